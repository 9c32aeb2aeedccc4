// Package yaml_adapter loads projects written in YAML. The layout mirrors
// the HCL format, with kernels given as an ordered list.
package yaml_adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

type document struct {
	General  *generalDoc  `yaml:"general"`
	Shuffler *shufflerDoc `yaml:"artico3"`
	Kernels  []kernelDoc  `yaml:"kernels"`
}

type generalDoc struct {
	Name            *string    `yaml:"name"`
	TargetBoard     stringList `yaml:"target_board"`
	TargetPart      *string    `yaml:"target_part"`
	ReferenceDesign *string    `yaml:"reference_design"`
	TargetXil       stringList `yaml:"target_xil"`
	TargetOS        *string    `yaml:"target_os"`
	CFlags          *string    `yaml:"cflags"`
	LdFlags         *string    `yaml:"ldflags"`
}

type shufflerDoc struct {
	Slots          *wholeInt `yaml:"slots"`
	PipelineStages *wholeInt `yaml:"pipeline_stages"`
	ClockBuffers   *string   `yaml:"clock_buffers"`
	ResetBuffers   *string   `yaml:"reset_buffers"`
	Part           *string   `yaml:"part"`
	PadSlots       *bool     `yaml:"pad_slots"`
}

type kernelDoc struct {
	Name     string    `yaml:"name"`
	HwSource *string   `yaml:"hw_source"`
	MemBytes *wholeInt `yaml:"mem_bytes"`
	MemBanks *wholeInt `yaml:"mem_banks"`
	RegRW    *wholeInt `yaml:"reg_rw"`
	RegRO    *wholeInt `yaml:"reg_ro"`
	Regs     *wholeInt `yaml:"regs"`
	RstPol   *string   `yaml:"rst_pol"`
	Replicas *wholeInt `yaml:"replicas"`
}

// wholeInt only accepts integer scalars; yaml.v3 would otherwise truncate
// floats into int fields.
type wholeInt int

func (n *wholeInt) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return fmt.Errorf("line %d: expected a whole number, got %q", node.Line, node.Value)
	}
	var v int
	if err := node.Decode(&v); err != nil {
		return err
	}
	*n = wholeInt(v)
	return nil
}

func (n *wholeInt) ptr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

// stringList accepts either a sequence of strings or one string holding
// comma or space separated items.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = config.SplitList(node.Value)
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
	return nil
}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML project loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses a YAML project file into a config.Source. Unknown keys are
// rejected.
func (l *Loader) Load(ctx context.Context, path string) (*config.Source, error) {
	logger := ctxlog.FromContext(ctx).With("file", path)
	logger.Debug("YAML loader started.")

	f, err := os.Open(path)
	if err != nil {
		return nil, &config.ParseError{File: path, Err: err}
	}
	defer f.Close()

	var doc document
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty project file")
		}
		return nil, &config.ParseError{File: path, Err: err}
	}

	src := translate(path, &doc)
	logger.Debug("YAML loading complete.", "kernels", len(src.Kernels))
	return src, nil
}

func translate(path string, doc *document) *config.Source {
	src := &config.Source{File: path}

	if g := doc.General; g != nil {
		src.General = config.GeneralSource{
			Name:            g.Name,
			TargetBoard:     g.TargetBoard,
			TargetPart:      g.TargetPart,
			ReferenceDesign: g.ReferenceDesign,
			TargetXil:       g.TargetXil,
			TargetOS:        g.TargetOS,
			CFlags:          g.CFlags,
			LdFlags:         g.LdFlags,
		}
	}
	if s := doc.Shuffler; s != nil {
		src.Shuffler = config.ShufflerSource{
			Slots:          s.Slots.ptr(),
			PipelineStages: s.PipelineStages.ptr(),
			ClockBuffers:   s.ClockBuffers,
			ResetBuffers:   s.ResetBuffers,
			Part:           s.Part,
			PadSlots:       s.PadSlots,
		}
	}
	for _, k := range doc.Kernels {
		src.Kernels = append(src.Kernels, config.KernelSource{
			Name:     k.Name,
			HwSource: k.HwSource,
			MemBytes: k.MemBytes.ptr(),
			MemBanks: k.MemBanks.ptr(),
			RegRW:    k.RegRW.ptr(),
			RegRO:    k.RegRO.ptr(),
			Regs:     k.Regs.ptr(),
			RstPol:   k.RstPol,
			Replicas: k.Replicas.ptr(),
		})
	}
	return src
}
