// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the validated entities of a project: the target
// implementation, the shared shuffler infrastructure, kernels and the slots
// they are bound to.
package config

import (
	"fmt"
	"strings"
)

// BufferKind selects the hardware primitive used for clock or reset buffering.
type BufferKind string

const (
	BufferNone       BufferKind = "none"
	BufferGlobal     BufferKind = "global"
	BufferHorizontal BufferKind = "horizontal"
)

// Valid reports whether b is one of the enumerated kinds.
func (b BufferKind) Valid() bool {
	switch b {
	case BufferNone, BufferGlobal, BufferHorizontal:
		return true
	}
	return false
}

// ResetPolarity is the active level of a kernel reset.
type ResetPolarity string

const (
	ResetHigh ResetPolarity = "high"
	ResetLow  ResetPolarity = "low"
)

// Valid reports whether p is one of the enumerated polarities.
func (p ResetPolarity) Valid() bool {
	return p == ResetHigh || p == ResetLow
}

// RegProfile tells how a kernel declares its register file.
type RegProfile string

const (
	// RegsSplit uses separate read-write and read-only counts.
	RegsSplit RegProfile = "split"
	// RegsCombined uses a single count, stored as RegRW.
	RegsCombined RegProfile = "combined"
)

// MaxKernelMemory is the largest local memory a kernel may declare, in bytes.
const MaxKernelMemory = 64 * 1024

// Implementation holds target specific details of the system.
type Implementation struct {
	Boards      []string
	Part        string
	Design      string
	Tool        string
	ToolVersion string
	OS          string
	CFlags      string
	LdFlags     string
}

func (i Implementation) String() string {
	return fmt.Sprintf("board=%s,part=%s,design=%s,tool=%s %s,os=%s,cflags=%q,ldflags=%q",
		strings.Join(i.Boards, ","), i.Part, i.Design, i.Tool, i.ToolVersion, i.OS, i.CFlags, i.LdFlags)
}

// Shuffler is the shared infrastructure descriptor.
type Shuffler struct {
	Slots          int
	PipelineStages int
	ClockBuffer    BufferKind
	ResetBuffer    BufferKind
	// Part is the device identifier used to pick low-level constraints.
	Part string
}

func (s Shuffler) String() string {
	return fmt.Sprintf("slots=%d,pipeline_stages=%d,clock_buffers=%s,reset_buffers=%s,part=%s",
		s.Slots, s.PipelineStages, s.ClockBuffer, s.ResetBuffer, s.Part)
}

// Kernel is one hardware accelerator type.
type Kernel struct {
	Name          string
	HwSource      string
	MemBytes      int
	MemBanks      int
	RegRW         int
	RegRO         int
	RegProfile    RegProfile
	ResetPolarity ResetPolarity
	Replicas      int
	// Synthetic marks the pass-through kernel used to pad empty slots.
	Synthetic bool
}

// CoreName is the IP core name generated for the kernel.
func (k *Kernel) CoreName() string {
	return "a3_" + strings.ToLower(k.Name)
}

// CoreVersion is the IP core version generated for the kernel.
func (k *Kernel) CoreVersion() string {
	return "1.00.a"
}

// Registers is the total register count of the kernel.
func (k *Kernel) Registers() int {
	return k.RegRW + k.RegRO
}

// WordsPerBank is the number of 32-bit words in each memory bank.
func (k *Kernel) WordsPerBank() int {
	if k.MemBanks <= 0 {
		return 0
	}
	return k.MemBytes / k.MemBanks / 4
}

func (k *Kernel) String() string {
	return fmt.Sprintf("name=%s,hwsrc=%s,mem=(%d,%d),reg=(%d,%d),rst=%s",
		k.Name, k.HwSource, k.MemBytes, k.MemBanks, k.RegRW, k.RegRO, k.ResetPolarity)
}

// Slot binds one reconfigurable location to a kernel.
type Slot struct {
	ID     int
	Kernel *Kernel
}

func (s Slot) String() string {
	return fmt.Sprintf("id=%d,kernel=%s", s.ID, s.Kernel.Name)
}

// Project is the validated model of a whole configuration.
type Project struct {
	Name string
	// File is the absolute path of the project file.
	File string
	// Dir is the directory holding the project file.
	Dir string
	// BaseDir is File without its extension; export directories derive from it.
	BaseDir string

	Impl     Implementation
	Shuffler Shuffler
	Kernels  []*Kernel
	Slots    []Slot
}

// Kernel returns the kernel with the given name.
func (p *Project) Kernel(name string) (*Kernel, bool) {
	for _, k := range p.Kernels {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}

// BoundSlots counts slots bound to user-declared kernels.
func (p *Project) BoundSlots() int {
	n := 0
	for _, s := range p.Slots {
		if !s.Kernel.Synthetic {
			n++
		}
	}
	return n
}
