package genctx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var (
	cSourcePattern  = regexp.MustCompile(`\.(c|cpp)$`)
	kernelSignature = regexp.MustCompile(`A3_KERNEL\((.+)\)`)
	argTypePattern  = regexp.MustCompile(`a3\w+_t`)
)

type port struct {
	Type string `cty:"type"`
	Name string `cty:"pid"`
	Bank int    `cty:"bid"`
}

type hlsKernel struct {
	Part     string      `cty:"PART"`
	Name     string      `cty:"NAME"`
	HwSource string      `cty:"HWSRC"`
	RegRW    int         `cty:"REGRW"`
	RegRO    int         `cty:"REGRO"`
	MemBytes int         `cty:"MEMBYTES"`
	MemBanks int         `cty:"MEMBANKS"`
	MemPos   int         `cty:"MEMPOS"`
	Args     string      `cty:"ARGS"`
	Ports    []port      `cty:"PORTS"`
	Sources  []string    `cty:"SOURCES"`
	Files    []fileEntry `cty:"FILES"`
}

// kernelArgs extracts the argument list of the A3_KERNEL signature in src,
// with the ARTICo3 qualifier types stripped.
func kernelArgs(src string) (string, error) {
	m := kernelSignature.FindStringSubmatch(src)
	if m == nil {
		return "", fmt.Errorf("no A3_KERNEL signature found")
	}
	return strings.TrimSpace(argTypePattern.ReplaceAllString(m[1], "")), nil
}

// parsePorts splits an argument list into typed ports, sorted by type and name.
// Each port is assigned the memory bank matching its position.
func parsePorts(args string) ([]port, error) {
	var out []port
	for _, arg := range strings.Split(args, ",") {
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed kernel argument %q", strings.TrimSpace(arg))
		}
		out = append(out, port{Type: fields[0], Name: fields[1]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Bank = i
	}
	if out == nil {
		out = []port{}
	}
	return out, nil
}

// HLSKernel is the context of a high-level synthesis kernel build. The port
// list is taken from <name>.cpp in the kernel sources and overrides the
// declared bank count; MEMPOS still derives from the declared banks.
func HLSKernel(ctx context.Context, p *config.Project, k *config.Kernel) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("kernel", k.Name)
	name := strings.ToLower(k.Name)
	src := KernelSourceDir(p, k)

	main := filepath.Join(src, name+".cpp")
	data, err := os.ReadFile(main)
	if err != nil {
		return cty.NilVal, fmt.Errorf("reading kernel entry point: %w", err)
	}
	args, err := kernelArgs(string(data))
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s: %w", main, err)
	}
	ports, err := parsePorts(args)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s: %w", main, err)
	}

	banks := len(ports)
	if banks != k.MemBanks {
		logger.Warn("Kernel signature does not match the declared memory banks.", "declared", k.MemBanks, "ports", banks)
	}
	files, err := sourceFiles(src, false)
	if err != nil {
		return cty.NilVal, err
	}
	return toValue(hlsKernel{
		Part:     p.Impl.Part,
		Name:     name,
		HwSource: k.HwSource,
		RegRW:    k.RegRW,
		RegRO:    k.RegRO,
		MemBytes: k.MemBytes,
		MemBanks: banks,
		MemPos:   k.WordsPerBank(),
		Args:     args,
		Ports:    ports,
		Sources:  []string{src},
		Files:    files,
	})
}
