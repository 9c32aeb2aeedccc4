// Package materialize turns a copied template directory into a concrete
// source tree. Run applies three passes in order: subtree substitution,
// name expansion and content expansion.
package materialize

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/macro"
	"github.com/zclconf/go-cty/cty"
)

// Mode selects what the content pass does with expanded files.
type Mode int

const (
	// ModeOverwrite rewrites each expanded file in place.
	ModeOverwrite Mode = iota
	// ModePreview writes expanded files to Options.Preview instead of
	// rewriting them. Subtree substitution and renames still apply to dir.
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "overwrite"
}

// Options tune Run.
type Options struct {
	Mode Mode
	// Link makes subtree substitution link files instead of copying them.
	Link bool
	// Force expands every text file, not only those carrying the marker.
	Force bool
	// Workers bounds the number of files expanded concurrently. Values
	// below 1 mean sequential processing.
	Workers int
	// Preview receives expanded files in ModePreview.
	Preview io.Writer
	// Macro is passed to the template parser.
	Macro macro.Options
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// Run materializes the tree rooted at dir against the generation context
// root. The first failure aborts the run and is returned with the offending
// path. Only the content pass honors ModePreview: the subtree and rename
// passes modify dir in every mode, so previews should run on a scratch copy.
func Run(ctx context.Context, dir string, root cty.Value, opts Options) error {
	ctx = ctxlog.With(ctx, "dir", dir)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Materializing template tree.", "mode", opts.Mode.String(), "workers", opts.workers())

	if opts.Mode == ModePreview && opts.Preview == nil {
		return fmt.Errorf("preview mode needs a writer")
	}

	if err := substituteSubtrees(ctx, dir, root, opts.Link); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := expandNames(ctx, dir, root); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return expandContents(ctx, dir, root, opts)
}
