// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// layers flags, environment variables and an optional .env file into the
// application's configuration.
package cli
