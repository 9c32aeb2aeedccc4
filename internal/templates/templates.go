// Package templates locates template directories and applies them to an
// output directory.
package templates

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/materialize"
	"github.com/zclconf/go-cty/cty"
)

// ResolutionError reports a template found in none of the searched
// directories.
type ResolutionError struct {
	Name     string
	Searched []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("template %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// Resolver finds templates in the project's own templates directory first
// and in the shared repository second.
type Resolver struct {
	ProjectDir string
	RepoDir    string
	// Options are passed to the materializer. Mode is always overwrite.
	Options materialize.Options
}

func (r *Resolver) candidates(name string) []string {
	var dirs []string
	if r.ProjectDir != "" {
		dirs = append(dirs, filepath.Join(r.ProjectDir, "templates", name))
	}
	if r.RepoDir != "" {
		dirs = append(dirs, filepath.Join(r.RepoDir, "templates", name))
	}
	return dirs
}

// Get returns the directory of the named template.
func (r *Resolver) Get(name string) (string, bool) {
	for _, dir := range r.candidates(name) {
		if fsutil.IsDir(dir) {
			return dir, true
		}
	}
	return "", false
}

// Find is Get reporting a missing template as a *ResolutionError.
func (r *Resolver) Find(name string) (string, error) {
	if dir, ok := r.Get(name); ok {
		return dir, nil
	}
	return "", &ResolutionError{Name: name, Searched: r.candidates(name)}
}

// Apply copies the named template into outDir and materializes it against
// gen. With link set, subtree substitution links sources instead of copying
// them.
func (r *Resolver) Apply(ctx context.Context, name string, gen cty.Value, outDir string, link bool) error {
	logger := ctxlog.FromContext(ctx).With("template", name, "out", outDir)

	if err := fsutil.MakeDir(outDir); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	src, err := r.Find(name)
	if err != nil {
		return err
	}
	logger.Debug("Template resolved.", "path", src)

	if err := fsutil.CopyTree(src, outDir, true); err != nil {
		return fmt.Errorf("copying template %s: %w", name, err)
	}

	opts := r.Options
	opts.Mode = materialize.ModeOverwrite
	opts.Link = link
	if err := materialize.Run(ctx, outDir, gen, opts); err != nil {
		return fmt.Errorf("applying template %s: %w", name, err)
	}
	logger.Info("Template applied.")
	return nil
}
