package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/devices"
	"github.com/vk/a3dk/internal/fsutil"
)

// Values filled in for absent keys.
const (
	DefaultMemBytes      = 16 * 1024
	DefaultMemBanks      = 2
	DefaultRegisters     = 4
	DefaultReplicas      = 1
	DefaultResetPolarity = ResetLow
)

// PadKernelName is the name of the synthetic kernel bound to padded slots.
const PadKernelName = "dummy"

// Options tune Build.
type Options struct {
	// Devices resolves shuffler parameters missing from the source.
	Devices DeviceLookup
	// PadSlots, when non-nil, overrides the pad_slots key of the source.
	PadSlots *bool
}

// slotAllocator hands out slot ids for a single Build call.
type slotAllocator struct {
	next int
}

func (a *slotAllocator) bind(k *Kernel) Slot {
	s := Slot{ID: a.next, Kernel: k}
	a.next++
	return s
}

// builder carries the state of one Build call.
type builder struct {
	logger   *slog.Logger
	src      *Source
	opts     Options
	slots    slotAllocator
	problems []Problem
}

func (b *builder) problem(section, key, format string, args ...any) {
	b.problems = append(b.problems, Problem{Section: section, Key: key, Message: fmt.Sprintf(format, args...)})
}

// Build turns a Source into a validated Project. It fills defaults, repairs
// kernel memory alignment, resolves shuffler parameters, binds kernels to
// slots and validates the result. Any rule violation yields a
// *ValidationError listing all problems, and no Project.
func Build(ctx context.Context, src *Source, opts Options) (*Project, error) {
	logger := ctxlog.FromContext(ctx).With("file", src.File)
	logger.Debug("Building project model.", "kernels", len(src.Kernels))

	b := &builder{logger: logger, src: src, opts: opts}
	p := &Project{}

	b.locate(p)
	b.general(p)
	slotsKnown := b.shuffler(p)
	b.kernels(p)
	b.capacity(p, slotsKnown)

	if len(b.problems) > 0 {
		logger.Debug("Project validation failed.", "problems", len(b.problems))
		return nil, &ValidationError{File: src.File, Problems: b.problems}
	}

	logger.Debug("Project model built.", "name", p.Name, "kernels", len(p.Kernels), "slots", len(p.Slots))
	return p, nil
}

func (b *builder) locate(p *Project) {
	file := b.src.File
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	p.File = file
	p.Dir = filepath.Dir(file)
	p.BaseDir = fsutil.TrimExt(file)
}

func (b *builder) general(p *Project) {
	g := b.src.General
	const section = "general"

	required := func(key string, v *string) string {
		if v == nil || *v == "" {
			b.problem(section, key, "is required")
			return ""
		}
		return *v
	}

	p.Name = required("name", g.Name)
	p.Impl.Part = required("target_part", g.TargetPart)
	p.Impl.Design = required("reference_design", g.ReferenceDesign)
	p.Impl.OS = required("target_os", g.TargetOS)

	if len(g.TargetBoard) == 0 {
		b.problem(section, "target_board", "is required")
	}
	p.Impl.Boards = append([]string(nil), g.TargetBoard...)

	switch len(g.TargetXil) {
	case 2:
		p.Impl.Tool, p.Impl.ToolVersion = g.TargetXil[0], g.TargetXil[1]
	case 0:
		b.problem(section, "target_xil", "is required")
	default:
		b.problem(section, "target_xil", "must name a tool and its version, got %d values", len(g.TargetXil))
	}

	if g.CFlags != nil {
		p.Impl.CFlags = *g.CFlags
	}
	if g.LdFlags != nil {
		p.Impl.LdFlags = *g.LdFlags
	}

	b.logger.Debug("Implementation parsed.", "impl", p.Impl.String())
}

// shuffler resolves the shared infrastructure. Keys absent from the source
// are taken from the device registry, which is queried at most once. It
// reports whether the slot capacity is known.
func (b *builder) shuffler(p *Project) bool {
	s := b.src.Shuffler
	const section = "artico3"

	var (
		dev   devices.Device
		found bool
	)
	query := p.Impl.Part
	if s.Part != nil {
		query = *s.Part
	}
	incomplete := s.Slots == nil || s.PipelineStages == nil || s.ClockBuffers == nil || s.ResetBuffers == nil || s.Part == nil
	if incomplete && b.opts.Devices != nil && query != "" {
		dev, found = b.opts.Devices.Lookup(query)
		if found {
			b.logger.Debug("Device descriptor found.", "query", query, "device", dev.Part)
		} else {
			b.logger.Warn("No device descriptor matches target part.", "part", query)
		}
	}

	sh := &p.Shuffler
	slotsKnown := true

	switch {
	case s.Part != nil:
		sh.Part = *s.Part
	case found:
		sh.Part = dev.Part
	default:
		b.problem(section, "part", "not set and no device descriptor matches target part %q", query)
	}

	switch {
	case s.Slots != nil:
		sh.Slots = *s.Slots
	case found:
		sh.Slots = dev.Slots
	default:
		slotsKnown = false
		b.problem(section, "slots", "not set and no device descriptor matches target part %q", query)
	}
	if sh.Slots < 0 {
		slotsKnown = false
		b.problem(section, "slots", "must not be negative, got %d", sh.Slots)
	}

	switch {
	case s.PipelineStages != nil:
		sh.PipelineStages = *s.PipelineStages
	case found:
		sh.PipelineStages = dev.PipeDepth
	default:
		b.logger.Warn("Pipeline stages not specified, assuming 0.")
	}
	if sh.PipelineStages < 0 {
		b.problem(section, "pipeline_stages", "must not be negative, got %d", sh.PipelineStages)
	}

	sh.ClockBuffer = b.bufferKind(section, "clock_buffers", s.ClockBuffers, dev.ClockBuffer, found)
	sh.ResetBuffer = b.bufferKind(section, "reset_buffers", s.ResetBuffers, dev.ResetBuffer, found)

	b.logger.Debug("Shuffler resolved.", "shuffler", sh.String())
	return slotsKnown
}

func (b *builder) bufferKind(section, key string, explicit *string, fromDevice string, found bool) BufferKind {
	var kind BufferKind
	switch {
	case explicit != nil:
		kind = BufferKind(*explicit)
	case found:
		kind = BufferKind(fromDevice)
	default:
		b.logger.Warn("Buffer kind not specified, assuming none.", "key", key)
		kind = BufferNone
	}
	if !kind.Valid() {
		b.problem(section, key, "must be one of none, global, horizontal; got %q", kind)
	}
	return kind
}

func (b *builder) kernels(p *Project) {
	seen := make(map[string]bool, len(b.src.Kernels))

	for _, ks := range b.src.Kernels {
		if ks.Name == "" {
			b.problem("kernel", "", "kernels must have a name")
			continue
		}
		section := fmt.Sprintf("kernel %q", ks.Name)
		if seen[ks.Name] {
			b.problem(section, "", "declared more than once")
			continue
		}
		seen[ks.Name] = true

		k := b.kernel(section, ks)
		p.Kernels = append(p.Kernels, k)
		for i := 0; i < k.Replicas; i++ {
			slot := b.slots.bind(k)
			p.Slots = append(p.Slots, slot)
			b.logger.Debug("Slot bound.", "slot", slot.String())
		}
	}
}

func (b *builder) kernel(section string, ks KernelSource) *Kernel {
	logger := b.logger.With("kernel", ks.Name)
	k := &Kernel{Name: ks.Name}

	if ks.Replicas != nil {
		k.Replicas = *ks.Replicas
	} else {
		logger.Warn("Number of replicas not specified, assuming 1.")
		k.Replicas = DefaultReplicas
	}
	if k.Replicas < 0 {
		b.problem(section, "replicas", "must not be negative, got %d", k.Replicas)
		k.Replicas = 0
	}

	if ks.HwSource != nil {
		k.HwSource = *ks.HwSource
	}
	if k.HwSource == "" {
		b.problem(section, "hw_source", "is required")
	}

	if ks.MemBytes != nil {
		k.MemBytes = *ks.MemBytes
	} else {
		logger.Warn("Local memory size not specified, assuming 16kB.")
		k.MemBytes = DefaultMemBytes
	}
	if ks.MemBanks != nil {
		k.MemBanks = *ks.MemBanks
	} else {
		logger.Warn("Number of local memory banks not specified, assuming 2.")
		k.MemBanks = DefaultMemBanks
	}

	switch {
	case k.MemBytes < 0:
		b.problem(section, "mem_bytes", "must not be negative, got %d", k.MemBytes)
	case k.MemBanks < 1:
		b.problem(section, "mem_banks", "must be a positive integer, got %d", k.MemBanks)
	default:
		// Each bank holds a whole number of 32-bit words.
		align := 4 * k.MemBanks
		if rounded := (k.MemBytes + align - 1) / align * align; rounded != k.MemBytes {
			logger.Warn("Increasing kernel memory size to ensure integer number of 32-bit words per bank.",
				"from", k.MemBytes, "to", rounded)
			k.MemBytes = rounded
		}
	}
	if k.MemBytes > MaxKernelMemory {
		b.problem(section, "mem_bytes", "kernels cannot have more than 64kB of local memory, got %d", k.MemBytes)
	}

	b.registers(section, ks, k, logger)

	if ks.RstPol != nil {
		k.ResetPolarity = ResetPolarity(*ks.RstPol)
	} else {
		logger.Warn("Reset polarity not specified, setting active low for AXI compatibility.")
		k.ResetPolarity = DefaultResetPolarity
	}
	if !k.ResetPolarity.Valid() {
		b.problem(section, "rst_pol", "must be high or low, got %q", k.ResetPolarity)
	}

	logger.Debug("Kernel parsed.", "kernel", k.String())
	return k
}

func (b *builder) registers(section string, ks KernelSource, k *Kernel, logger *slog.Logger) {
	if ks.Regs != nil {
		if ks.RegRW != nil || ks.RegRO != nil {
			b.problem(section, "regs", "cannot be combined with reg_rw or reg_ro")
		}
		k.RegProfile = RegsCombined
		k.RegRW = *ks.Regs
	} else {
		k.RegProfile = RegsSplit
		if ks.RegRW != nil {
			k.RegRW = *ks.RegRW
		} else {
			logger.Warn("Number of read/write registers not specified, assuming 4.")
			k.RegRW = DefaultRegisters
		}
		if ks.RegRO != nil {
			k.RegRO = *ks.RegRO
		} else {
			logger.Warn("Number of read-only registers not specified, assuming 4.")
			k.RegRO = DefaultRegisters
		}
	}
	if k.RegRW < 0 || k.RegRO < 0 {
		b.problem(section, "registers", "counts must not be negative, got (%d,%d)", k.RegRW, k.RegRO)
	}
}

// capacity checks bound slots against the shuffler and pads free slots
// with a pass-through kernel when asked to.
func (b *builder) capacity(p *Project, slotsKnown bool) {
	if !slotsKnown {
		return
	}

	bound := len(p.Slots)
	capacity := p.Shuffler.Slots
	if bound > capacity {
		b.problem("artico3", "slots", "configured %d kernel slots but the infrastructure only provides %d", bound, capacity)
		return
	}
	if bound == capacity {
		return
	}

	pad := false
	if b.src.Shuffler.PadSlots != nil {
		pad = *b.src.Shuffler.PadSlots
	}
	if b.opts.PadSlots != nil {
		pad = *b.opts.PadSlots
	}
	if !pad {
		b.logger.Info("Slots left without a kernel.", "free", capacity-bound)
		return
	}

	if _, taken := p.Kernel(PadKernelName); taken {
		b.problem("artico3", "pad_slots", "kernel name %q is reserved for slot padding", PadKernelName)
		return
	}

	dummy := &Kernel{
		Name:          PadKernelName,
		HwSource:      "vhdl",
		MemBytes:      4096,
		MemBanks:      2,
		RegRW:         2,
		RegRO:         2,
		RegProfile:    RegsSplit,
		ResetPolarity: ResetLow,
		Replicas:      capacity - bound,
		Synthetic:     true,
	}
	p.Kernels = append(p.Kernels, dummy)
	for i := bound; i < capacity; i++ {
		p.Slots = append(p.Slots, b.slots.bind(dummy))
	}
	b.logger.Info("Padded free slots with pass-through kernel.", "padded", capacity-bound)
}
