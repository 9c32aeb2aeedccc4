package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/genctx"
	"github.com/vk/a3dk/internal/macro"
)

// Template names used by the exports.
const (
	VHDLKernelTemplate = "artico3_kernel_vhdl_pcore"
	HLSKernelTemplate  = "artico3_kernel_hls_build"
	appTemplatePrefix  = "artico3_app_"
)

// HWOptions tune ExportHW.
type HWOptions struct {
	// Dir overrides the export directory, <project>.hw by default.
	Dir  string
	Link bool
	// Kernel restricts the export to one kernel core.
	Kernel string
}

// SWOptions tune ExportSW.
type SWOptions struct {
	// Dir overrides the export directory, <project>.sw by default.
	Dir   string
	Link  bool
	Debug bool
}

// HardwareTemplate is the name of the reference design template for p:
// ref_<os>_<boards>_<design>_<tool>_<version>.
func HardwareTemplate(p *config.Project) string {
	parts := []string{"ref", p.Impl.OS}
	parts = append(parts, p.Impl.Boards...)
	parts = append(parts, p.Impl.Design, p.Impl.Tool, p.Impl.ToolVersion)
	return strings.Join(parts, "_")
}

func (a *App) checkTool() error {
	if a.project.Impl.Tool != "vivado" {
		return fmt.Errorf("tool %q not supported", a.project.Impl.Tool)
	}
	return nil
}

// ExportHW generates the reference hardware design and then one core per
// kernel under its pcores directory.
func (a *App) ExportHW(ctx context.Context, opts HWOptions) error {
	ctx = a.withLogger(ctx)
	if err := a.checkTool(); err != nil {
		return err
	}
	if opts.Kernel != "" {
		return a.ExportKernel(ctx, opts.Kernel, opts.Dir, opts.Link)
	}
	if err := a.requireRepo(); err != nil {
		return err
	}

	p := a.project
	dir := opts.Dir
	if dir == "" {
		dir = p.BaseDir + ".hw"
	}
	tmpl := HardwareTemplate(p)
	logger := ctxlog.FromContext(ctx).With("dir", dir)
	logger.Info("Exporting hardware.", "template", tmpl)

	gen, err := genctx.Hardware(p, a.config.RepoDir)
	if err != nil {
		return err
	}
	if err := a.resolver.Apply(ctx, tmpl, gen, dir, opts.Link); err != nil {
		return err
	}

	pcores := filepath.Join(dir, "pcores")
	for _, k := range p.Kernels {
		if err := a.exportKernel(ctx, k, pcores, opts.Link); err != nil {
			return err
		}
	}
	logger.Info("Hardware exported.", "kernels", len(p.Kernels))
	return nil
}

// ExportKernel generates the core of a single kernel, by default into
// <project>.hw.<kernel>.
func (a *App) ExportKernel(ctx context.Context, name, dir string, link bool) error {
	ctx = a.withLogger(ctx)
	if err := a.checkTool(); err != nil {
		return err
	}
	k, ok := a.project.Kernel(name)
	if !ok {
		return fmt.Errorf("kernel %q not found", name)
	}
	if dir == "" {
		dir = a.project.BaseDir + ".hw." + strings.ToLower(k.Name)
	}
	return a.exportKernel(ctx, k, dir, link)
}

func (a *App) exportKernel(ctx context.Context, k *config.Kernel, dir string, link bool) error {
	p := a.project
	ctx = ctxlog.With(ctx, "kernel", k.Name)
	logger := ctxlog.FromContext(ctx)

	switch k.HwSource {
	case "vhdl":
		if src := genctx.KernelSourceDir(p, k); !fsutil.IsDir(src) {
			logger.Warn("Kernel sources not found, generating the core from the template alone.", "path", src)
		}
		gen, err := genctx.Kernel(p, k)
		if err != nil {
			return err
		}
		logger.Info("Exporting kernel.", "dir", dir)
		return a.resolver.Apply(ctx, VHDLKernelTemplate, gen, dir, link)

	case "hls":
		gen, err := genctx.HLSKernel(ctx, p, k)
		if err != nil {
			return fmt.Errorf("kernel %s: %w", k.Name, err)
		}
		out := p.BaseDir + ".hls." + strings.ToLower(k.Name)
		logger.Info("Generating HLS project. Run synthesis on it to obtain the kernel core.", "dir", out)
		return a.resolver.Apply(ctx, HLSKernelTemplate, gen, out, link)
	}
	return fmt.Errorf("kernel %s: unsupported hardware source %q", k.Name, k.HwSource)
}

// ExportSW generates the host application and then resolves its Makefile
// against the sources present in the exported tree.
func (a *App) ExportSW(ctx context.Context, opts SWOptions) error {
	ctx = a.withLogger(ctx)
	if err := a.requireRepo(); err != nil {
		return err
	}

	p := a.project
	dir := opts.Dir
	if dir == "" {
		dir = p.BaseDir + ".sw"
	}
	logger := ctxlog.FromContext(ctx).With("dir", dir)
	logger.Info("Exporting software.", "debug", opts.Debug)

	gen, err := genctx.Software(p, opts.Debug)
	if err != nil {
		return err
	}
	if err := a.resolver.Apply(ctx, appTemplatePrefix+p.Impl.OS, gen, dir, opts.Link); err != nil {
		return err
	}
	if err := a.expandMakefile(ctx, dir); err != nil {
		return err
	}
	logger.Info("Software exported.")
	return nil
}

// expandMakefile runs a forced second pass over <dir>/Makefile.
func (a *App) expandMakefile(ctx context.Context, dir string) error {
	path := filepath.Join(dir, "Makefile")
	gen, err := genctx.Makefile(a.config.RepoDir, dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("software template has no Makefile: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := macro.Expand(string(data), gen, macro.Options{})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Makefile resolved.", "path", path, "objects", gen.GetAttr("OBJS").LengthInt())
	return nil
}
