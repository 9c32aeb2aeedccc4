package devices

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

//go:embed builtin.hcl
var builtinCatalogue []byte

// Device holds the infrastructure parameters of one FPGA part.
type Device struct {
	Part        string
	Slots       int
	PipeDepth   int
	ClockBuffer string
	ResetBuffer string
}

// catalogue is the HCL root of a device file.
type catalogue struct {
	Devices []*deviceBlock `hcl:"device,block"`
}

type deviceBlock struct {
	Part        string `hcl:"part,label"`
	Slots       int    `hcl:"slots"`
	PipeDepth   int    `hcl:"pipe_depth"`
	ClockBuffer string `hcl:"clk_buffer"`
	ResetBuffer string `hcl:"rst_buffer"`
}

// Registry holds all known devices keyed by part identifier.
type Registry struct {
	devices map[string]Device
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{devices: make(map[string]Device)}
}

// Builtin returns a Registry populated with the embedded catalogue.
func Builtin() (*Registry, error) {
	r := New()
	if err := r.Parse(builtinCatalogue, "builtin.hcl"); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes an HCL device catalogue and merges it into the registry.
// Later definitions of the same part replace earlier ones.
func (r *Registry) Parse(src []byte, filename string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse device catalogue %s: %w", filename, diags)
	}
	return r.decode(file.Body, filename)
}

// LoadFile reads an HCL device catalogue from disk and merges it.
func (r *Registry) LoadFile(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse device catalogue %s: %w", path, diags)
	}
	return r.decode(file.Body, path)
}

func (r *Registry) decode(body hcl.Body, filename string) error {
	var root catalogue
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode device catalogue %s: %w", filename, diags)
	}

	for _, d := range root.Devices {
		if d.Slots < 0 || d.PipeDepth < 0 {
			return fmt.Errorf("device %q in %s: slots and pipe_depth must not be negative", d.Part, filename)
		}
		r.devices[d.Part] = Device{
			Part:        d.Part,
			Slots:       d.Slots,
			PipeDepth:   d.PipeDepth,
			ClockBuffer: d.ClockBuffer,
			ResetBuffer: d.ResetBuffer,
		}
	}
	return nil
}

// Lookup returns the device registered for part. An exact match wins;
// otherwise the longest registered identifier that prefixes part is used,
// so a full ordering code such as "xc7z020clg400-1" resolves to "xc7z020".
func (r *Registry) Lookup(part string) (Device, bool) {
	if d, ok := r.devices[part]; ok {
		return d, true
	}

	best := ""
	for id := range r.devices {
		if strings.HasPrefix(part, id) && len(id) > len(best) {
			best = id
		}
	}
	if best == "" {
		return Device{}, false
	}
	return r.devices[best], true
}

// Parts lists the registered part identifiers in sorted order.
func (r *Registry) Parts() []string {
	parts := make([]string, 0, len(r.devices))
	for id := range r.devices {
		parts = append(parts, id)
	}
	sort.Strings(parts)
	return parts
}
