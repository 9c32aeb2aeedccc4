package config

import (
	"strings"
	"unicode"
)

// Source is the raw, unvalidated content of a project file. Loaders fill it;
// Build turns it into a Project. Pointer fields are nil when the key is absent.
type Source struct {
	// File is the path the source was read from.
	File string

	General  GeneralSource
	Shuffler ShufflerSource
	Kernels  []KernelSource
}

// GeneralSource is the content of the general section.
type GeneralSource struct {
	Name            *string
	TargetBoard     []string
	TargetPart      *string
	ReferenceDesign *string
	TargetXil       []string
	TargetOS        *string
	CFlags          *string
	LdFlags         *string
}

// ShufflerSource is the content of the shared infrastructure section.
type ShufflerSource struct {
	Slots          *int
	PipelineStages *int
	ClockBuffers   *string
	ResetBuffers   *string
	Part           *string
	PadSlots       *bool
}

// KernelSource is the content of one kernel section.
type KernelSource struct {
	Name     string
	HwSource *string
	MemBytes *int
	MemBanks *int
	RegRW    *int
	RegRO    *int
	Regs     *int
	RstPol   *string
	Replicas *int
}

// Ptr returns a pointer to v. Loaders and tests use it to fill Source fields.
func Ptr[T any](v T) *T {
	return &v
}

// SplitList splits a list written as a single string, such as
// "zcu102, pynq" or "vivado 2018.3", on commas and white space.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
