package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/a3dk/internal/cli"
	"github.com/vk/a3dk/internal/testutil"
)

func TestRun_Info(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"info", "--config", f.ProjectFile})

	require.NoError(t, err)
	require.Contains(t, out.String(), "ARTICo3 Project 'Demo'")
}

func TestRun_Help(t *testing.T) {
	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when help is requested")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "run() should return an ExitError when argument parsing fails")
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_ProjectError(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", "general {\n")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"info", "--config", f.ProjectFile})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load project")
}
