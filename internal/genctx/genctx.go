// Package genctx builds the generation contexts that templates are expanded
// against. Each context is a cty object converted from a Go struct whose
// cty tags name the keys templates refer to.
package genctx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

type slotEntry struct {
	CoreName    string `cty:"SlotCoreName"`
	CoreVersion string `cty:"SlotCoreVersion"`
	ID          int    `cty:"id"`
}

type kernelEntry struct {
	CoreName    string `cty:"KernCoreName"`
	CoreVersion string `cty:"KernCoreVersion"`
}

type bankEntry struct {
	ID int `cty:"bid"`
}

type fileEntry struct {
	File string `cty:"File"`
}

type hardware struct {
	NumSlots    int           `cty:"NUM_SLOTS"`
	PipeDepth   int           `cty:"PIPE_DEPTH"`
	ClockBuffer string        `cty:"CLK_BUFFER"`
	ResetBuffer string        `cty:"RST_BUFFER"`
	Part        string        `cty:"PART"`
	Sources     []string      `cty:"SOURCES"`
	Slots       []slotEntry   `cty:"SLOTS"`
	Kernels     []kernelEntry `cty:"KERNELS"`
}

type kernel struct {
	Name     string      `cty:"NAME"`
	HwSource string      `cty:"HWSRC"`
	RstPol   string      `cty:"RST_POL"`
	RegRW    int         `cty:"REGRW"`
	RegRO    int         `cty:"REGRO"`
	MemBytes int         `cty:"MEMBYTES"`
	MemBanks int         `cty:"MEMBANKS"`
	Banks    []bankEntry `cty:"BANKS"`
	Sources  []string    `cty:"SOURCES"`
	Includes []fileEntry `cty:"INCLUDES"`
}

type software struct {
	Name     string   `cty:"NAME"`
	CFlags   string   `cty:"CFLAGS"`
	LdFlags  string   `cty:"LDFLAGS"`
	NumSlots int      `cty:"NUM_SLOTS"`
	Device   string   `cty:"DEVICE"`
	Sources  []string `cty:"SOURCES"`
}

type objEntry struct {
	Source string `cty:"Source"`
}

type makefile struct {
	RepoRel string     `cty:"REPO_REL"`
	Objs    []objEntry `cty:"OBJS"`
}

// toValue converts a tagged struct into a cty object.
func toValue(v any) (cty.Value, error) {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// bufferName is the HDL constant selecting a buffer primitive.
func bufferName(b config.BufferKind) string {
	if b == config.BufferNone {
		return "NO_BUFFER"
	}
	return strings.ToUpper(string(b))
}

// Hardware is the context of the reference hardware design.
func Hardware(p *config.Project, repo string) (cty.Value, error) {
	h := hardware{
		NumSlots:    p.Shuffler.Slots,
		PipeDepth:   p.Shuffler.PipelineStages,
		ClockBuffer: bufferName(p.Shuffler.ClockBuffer),
		ResetBuffer: bufferName(p.Shuffler.ResetBuffer),
		Part:        p.Shuffler.Part,
		Sources:     []string{filepath.Join(repo, "templates", "artico3_devices", p.Shuffler.Part+".xdc")},
		Slots:       make([]slotEntry, 0, len(p.Slots)),
		Kernels:     make([]kernelEntry, 0, len(p.Kernels)),
	}
	for _, s := range p.Slots {
		h.Slots = append(h.Slots, slotEntry{CoreName: s.Kernel.CoreName(), CoreVersion: s.Kernel.CoreVersion(), ID: s.ID})
	}
	for _, k := range p.Kernels {
		h.Kernels = append(h.Kernels, kernelEntry{CoreName: k.CoreName(), CoreVersion: k.CoreVersion()})
	}
	return toValue(h)
}

// KernelSourceDir is where the sources of k live: <project>/src/a3_<name>/<hwsrc>.
func KernelSourceDir(p *config.Project, k *config.Kernel) string {
	return filepath.Join(p.Dir, "src", k.CoreName(), k.HwSource)
}

// Kernel is the context of an HDL kernel core. INCLUDES lists the files of
// the kernel sources without their extension. A missing source directory
// yields empty SOURCES and INCLUDES, so the core is generated from the
// template alone.
func Kernel(p *config.Project, k *config.Kernel) (cty.Value, error) {
	src := KernelSourceDir(p, k)
	includes, err := sourceFiles(src, true)
	if err != nil {
		return cty.NilVal, err
	}
	sources := []string{}
	if fsutil.IsDir(src) {
		sources = append(sources, src)
	}
	return toValue(kernel{
		Name:     strings.ToLower(k.Name),
		HwSource: k.HwSource,
		RstPol:   string(k.ResetPolarity),
		RegRW:    k.RegRW,
		RegRO:    k.RegRO,
		MemBytes: k.MemBytes,
		MemBanks: k.MemBanks,
		Banks:    banks(k.MemBanks),
		Sources:  sources,
		Includes: includes,
	})
}

func banks(n int) []bankEntry {
	out := make([]bankEntry, n)
	for i := range out {
		out[i] = bankEntry{ID: i}
	}
	return out
}

// sourceFiles lists the files below dir, relative and sorted, optionally
// without extensions.
func sourceFiles(dir string, trim bool) ([]fileEntry, error) {
	out := []fileEntry{}
	if !fsutil.IsDir(dir) {
		return out, nil
	}
	files, err := fsutil.ListFiles(dir, true, nil)
	if err != nil {
		return nil, fmt.Errorf("listing kernel sources in %s: %w", dir, err)
	}
	for _, f := range files {
		f = filepath.ToSlash(f)
		if trim {
			f = fsutil.TrimExt(f)
		}
		out = append(out, fileEntry{File: f})
	}
	return out, nil
}

// Software is the context of the host application.
func Software(p *config.Project, debug bool) (cty.Value, error) {
	cflags := p.Impl.CFlags
	if debug {
		cflags += " -DA3_DEBUG"
	}
	device := "zynq"
	if strings.Contains(p.Impl.Part, "xczu") {
		device = "zynqmp"
	}
	return toValue(software{
		Name:     strings.ToLower(p.Name),
		CFlags:   cflags,
		LdFlags:  p.Impl.LdFlags,
		NumSlots: p.Shuffler.Slots,
		Device:   device,
		Sources:  []string{filepath.Join(p.Dir, "src", "application")},
	})
}

// Makefile is the context of the second pass over an exported software
// Makefile: the repository path relative to swdir and one object file per
// C or C++ source present in swdir.
func Makefile(repo, swdir string) (cty.Value, error) {
	absRepo, err := filepath.Abs(repo)
	if err != nil {
		return cty.NilVal, err
	}
	absSw, err := filepath.Abs(swdir)
	if err != nil {
		return cty.NilVal, err
	}
	rel, err := filepath.Rel(absSw, absRepo)
	if err != nil {
		return cty.NilVal, fmt.Errorf("locating repository from %s: %w", swdir, err)
	}

	files, err := fsutil.ListFiles(swdir, true, cSourcePattern)
	if err != nil {
		return cty.NilVal, fmt.Errorf("listing sources in %s: %w", swdir, err)
	}
	objs := make([]objEntry, 0, len(files))
	for _, f := range files {
		objs = append(objs, objEntry{Source: filepath.ToSlash(fsutil.TrimExt(f)) + ".o"})
	}
	return toValue(makefile{RepoRel: filepath.ToSlash(rel), Objs: objs})
}

// Project is the union of the hardware and software contexts, used to
// preview single files.
func Project(p *config.Project, repo string) (cty.Value, error) {
	hw, err := Hardware(p, repo)
	if err != nil {
		return cty.NilVal, err
	}
	sw, err := Software(p, false)
	if err != nil {
		return cty.NilVal, err
	}
	return Merge(hw, sw), nil
}

// Merge combines object values; keys of later values win.
func Merge(vals ...cty.Value) cty.Value {
	attrs := make(map[string]cty.Value)
	for _, v := range vals {
		if v.IsNull() || !v.Type().IsObjectType() {
			continue
		}
		for k, av := range v.AsValueMap() {
			attrs[k] = av
		}
	}
	return cty.ObjectVal(attrs)
}
