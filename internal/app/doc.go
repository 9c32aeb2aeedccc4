// Package app contains the core application logic. It loads and validates a
// project, then runs the export and preview operations against it,
// decoupled from any specific entrypoint like a CLI.
package app
