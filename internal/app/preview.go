package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/genctx"
	"github.com/vk/a3dk/internal/macro"
	"github.com/vk/a3dk/internal/materialize"
	"github.com/zclconf/go-cty/cty"
)

// ContextKind selects the generation context a preview is expanded against.
type ContextKind string

const (
	ContextHardware ContextKind = "hw"
	ContextSoftware ContextKind = "sw"
	ContextProject  ContextKind = "project"
)

func (a *App) genContext(kind ContextKind) (cty.Value, error) {
	switch kind {
	case ContextHardware:
		return genctx.Hardware(a.project, a.config.RepoDir)
	case ContextSoftware:
		return genctx.Software(a.project, false)
	case ContextProject, "":
		return genctx.Project(a.project, a.config.RepoDir)
	}
	return cty.NilVal, fmt.Errorf("unknown context kind %q: must be 'hw', 'sw' or 'project'", kind)
}

// Preview expands target against the selected context and prints the
// result without writing anything. A regular file is expanded as a whole,
// marker or not. A directory or a template name is materialized in a
// scratch copy and every opted-in file is printed.
func (a *App) Preview(ctx context.Context, target string, kind ContextKind) error {
	ctx = a.withLogger(ctx)
	gen, err := a.genContext(kind)
	if err != nil {
		return err
	}

	if fsutil.Exists(target) && !fsutil.IsDir(target) {
		data, err := os.ReadFile(target)
		if err != nil {
			return err
		}
		out, err := macro.Expand(string(data), gen, macro.Options{})
		if err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}
		_, err = io.WriteString(a.outW, out)
		return err
	}

	dir := target
	if !fsutil.IsDir(dir) {
		if dir, err = a.resolver.Find(target); err != nil {
			return err
		}
	}
	return a.previewTree(ctx, dir, gen)
}

func (a *App) previewTree(ctx context.Context, dir string, gen cty.Value) error {
	scratch, err := os.MkdirTemp("", "a3dk-preview-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	if err := fsutil.CopyTree(dir, scratch, true); err != nil {
		return fmt.Errorf("copying %s: %w", dir, err)
	}
	ctxlog.FromContext(ctx).Debug("Previewing tree.", "source", dir, "scratch", scratch)

	// Linked subtrees are skipped by the content pass, so their sources
	// never show up in the preview.
	return materialize.Run(ctx, scratch, gen, materialize.Options{
		Mode:    materialize.ModePreview,
		Link:    true,
		Workers: a.config.Workers,
		Preview: a.outW,
	})
}
