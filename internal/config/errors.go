package config

import (
	"fmt"
	"strings"
)

// ParseError reports a project file that cannot be read or is not well formed.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse project file %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Problem is a single validation failure, located by section and key.
type Problem struct {
	Section string
	Key     string
	Message string
}

func (p Problem) String() string {
	switch {
	case p.Section == "":
		return p.Message
	case p.Key == "":
		return fmt.Sprintf("%s: %s", p.Section, p.Message)
	default:
		return fmt.Sprintf("%s: %s: %s", p.Section, p.Key, p.Message)
	}
}

// ValidationError lists every rule a loaded project violates.
type ValidationError struct {
	File     string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	return fmt.Sprintf("project validation failed for %s:\n- %s", e.File, strings.Join(lines, "\n- "))
}
