package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL project loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses an HCL project file into a config.Source. It performs no
// validation beyond the shape of the file; config.Build does the rest.
func (l *Loader) Load(ctx context.Context, path string) (*config.Source, error) {
	logger := ctxlog.FromContext(ctx).With("file", path)
	logger.Debug("HCL loader started.")

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &config.ParseError{File: path, Err: diags}
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, &config.ParseError{File: path, Err: diags}
	}

	src, err := l.translate(ctx, path, &root)
	if err != nil {
		return nil, &config.ParseError{File: path, Err: err}
	}

	logger.Debug("HCL loading complete.", "kernels", len(src.Kernels), "has_artico3", root.Shuffler != nil)
	return src, nil
}

// translate copies the decoded blocks into the format-agnostic Source.
func (l *Loader) translate(ctx context.Context, path string, root *fileRoot) (*config.Source, error) {
	src := &config.Source{File: path}

	if g := root.General; g != nil {
		boards, err := stringList(ctx, g.TargetBoard, "target_board")
		if err != nil {
			return nil, fmt.Errorf("in general block: %w", err)
		}
		xil, err := stringList(ctx, g.TargetXil, "target_xil")
		if err != nil {
			return nil, fmt.Errorf("in general block: %w", err)
		}
		src.General = config.GeneralSource{
			Name:            g.Name,
			TargetBoard:     boards,
			TargetPart:      g.TargetPart,
			ReferenceDesign: g.ReferenceDesign,
			TargetXil:       xil,
			TargetOS:        g.TargetOS,
			CFlags:          g.CFlags,
			LdFlags:         g.LdFlags,
		}
	}

	if s := root.Shuffler; s != nil {
		src.Shuffler = config.ShufflerSource{
			Slots:          s.Slots,
			PipelineStages: s.PipelineStages,
			ClockBuffers:   s.ClockBuffers,
			ResetBuffers:   s.ResetBuffers,
			Part:           s.Part,
			PadSlots:       s.PadSlots,
		}
	}

	for _, k := range root.Kernels {
		src.Kernels = append(src.Kernels, config.KernelSource{
			Name:     k.Name,
			HwSource: k.HwSource,
			MemBytes: k.MemBytes,
			MemBanks: k.MemBanks,
			RegRW:    k.RegRW,
			RegRO:    k.RegRO,
			Regs:     k.Regs,
			RstPol:   k.RstPol,
			Replicas: k.Replicas,
		})
	}
	return src, nil
}
