package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top-level layout of an HCL project file.
type fileRoot struct {
	General  *generalBlock  `hcl:"general,block"`
	Shuffler *shufflerBlock `hcl:"artico3,block"`
	Kernels  []*kernelBlock `hcl:"kernel,block"`
}

// generalBlock maps the `general` block. List-valued attributes are kept as
// raw expressions because they accept either a list or a single string.
type generalBlock struct {
	Name            *string        `hcl:"name,optional"`
	TargetBoard     hcl.Expression `hcl:"target_board,optional"`
	TargetPart      *string        `hcl:"target_part,optional"`
	ReferenceDesign *string        `hcl:"reference_design,optional"`
	TargetXil       hcl.Expression `hcl:"target_xil,optional"`
	TargetOS        *string        `hcl:"target_os,optional"`
	CFlags          *string        `hcl:"cflags,optional"`
	LdFlags         *string        `hcl:"ldflags,optional"`
}

// shufflerBlock maps the `artico3` block.
type shufflerBlock struct {
	Slots          *int    `hcl:"slots,optional"`
	PipelineStages *int    `hcl:"pipeline_stages,optional"`
	ClockBuffers   *string `hcl:"clock_buffers,optional"`
	ResetBuffers   *string `hcl:"reset_buffers,optional"`
	Part           *string `hcl:"part,optional"`
	PadSlots       *bool   `hcl:"pad_slots,optional"`
}

// kernelBlock maps a `kernel "<name>"` block.
type kernelBlock struct {
	Name     string  `hcl:"name,label"`
	HwSource *string `hcl:"hw_source,optional"`
	MemBytes *int    `hcl:"mem_bytes,optional"`
	MemBanks *int    `hcl:"mem_banks,optional"`
	RegRW    *int    `hcl:"reg_rw,optional"`
	RegRO    *int    `hcl:"reg_ro,optional"`
	Regs     *int    `hcl:"regs,optional"`
	RstPol   *string `hcl:"rst_pol,optional"`
	Replicas *int    `hcl:"replicas,optional"`
}
