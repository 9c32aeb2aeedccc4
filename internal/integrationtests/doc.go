// Package integrationtests drives the command line end to end against
// project files and template repositories laid out on disk.
package integrationtests
