// Package ini_adapter loads projects written in the legacy section/key
// format, where a project is described by a [General] section, an optional
// [ARTICo3] section and one [A3Kernel@<name>] section per kernel.
package ini_adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"gopkg.in/ini.v1"
)

// Section names of the legacy format.
const (
	sectionGeneral  = "General"
	sectionShuffler = "ARTICo3"
	kernelPrefix    = "A3Kernel"
)

var (
	generalKeys  = []string{"Name", "TargetBoard", "TargetPart", "ReferenceDesign", "TargetXil", "TargetOS", "CFlags", "LdFlags"}
	shufflerKeys = []string{"Slots", "PipelineStages", "ClockBuffers", "ResetBuffers", "Part", "PadSlots"}
	kernelKeys   = []string{"HwSource", "MemBytes", "MemBanks", "RegRW", "RegRO", "Regs", "RstPol", "Replicas"}
)

// Loader is the INI implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new legacy project loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses a legacy project file into a config.Source. Key names are
// matched case-insensitively; section names are not.
func (l *Loader) Load(ctx context.Context, path string) (*config.Source, error) {
	logger := ctxlog.FromContext(ctx).With("file", path)
	logger.Debug("INI loader started.")

	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return nil, &config.ParseError{File: path, Err: err}
	}

	src := &config.Source{File: path}
	var errs []error
	for _, sec := range f.Sections() {
		if err := l.section(src, sec); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, &config.ParseError{File: path, Err: errors.Join(errs...)}
	}

	logger.Debug("INI loading complete.", "kernels", len(src.Kernels))
	return src, nil
}

func (l *Loader) section(src *config.Source, sec *ini.Section) error {
	name := sec.Name()
	switch {
	case name == ini.DefaultSection:
		if len(sec.Keys()) > 0 {
			return fmt.Errorf("keys %v appear outside any section", sec.KeyStrings())
		}
		return nil

	case name == sectionGeneral:
		r := newReader(sec, generalKeys)
		src.General = config.GeneralSource{
			Name:            r.str("Name"),
			TargetBoard:     r.list("TargetBoard"),
			TargetPart:      r.str("TargetPart"),
			ReferenceDesign: r.str("ReferenceDesign"),
			TargetXil:       r.list("TargetXil"),
			TargetOS:        r.str("TargetOS"),
			CFlags:          r.str("CFlags"),
			LdFlags:         r.str("LdFlags"),
		}
		return r.err()

	case name == sectionShuffler:
		r := newReader(sec, shufflerKeys)
		src.Shuffler = config.ShufflerSource{
			Slots:          r.num("Slots"),
			PipelineStages: r.num("PipelineStages"),
			ClockBuffers:   r.str("ClockBuffers"),
			ResetBuffers:   r.str("ResetBuffers"),
			Part:           r.str("Part"),
			PadSlots:       r.flag("PadSlots"),
		}
		return r.err()

	case strings.HasPrefix(name, kernelPrefix):
		kname, ok := strings.CutPrefix(name, kernelPrefix+"@")
		if !ok || kname == "" {
			return fmt.Errorf("section [%s]: kernel sections must be named [%s@<name>]", name, kernelPrefix)
		}
		r := newReader(sec, kernelKeys)
		src.Kernels = append(src.Kernels, config.KernelSource{
			Name:     kname,
			HwSource: r.str("HwSource"),
			MemBytes: r.num("MemBytes"),
			MemBanks: r.num("MemBanks"),
			RegRW:    r.num("RegRW"),
			RegRO:    r.num("RegRO"),
			Regs:     r.num("Regs"),
			RstPol:   r.str("RstPol"),
			Replicas: r.num("Replicas"),
		})
		return r.err()

	default:
		return fmt.Errorf("unknown section [%s]", name)
	}
}
