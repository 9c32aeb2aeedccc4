package materialize

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/macro"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// result is the outcome of expanding one file.
type result struct {
	rel      string
	expanded bool
	content  string
}

// expandContents runs the macro interpreter over every opted-in text file.
// Files are independent of each other, so up to opts.Workers of them are
// processed at once; output order does not depend on scheduling.
func expandContents(ctx context.Context, dir string, root cty.Value, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	files, err := regularFiles(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	results := make([]result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := expandFile(dir, rel, root, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	expanded := 0
	for _, res := range results {
		if !res.expanded {
			continue
		}
		expanded++
		logger.Debug("Expanded file contents.", "path", res.rel)
		if opts.Mode == ModePreview {
			if _, err := fmt.Fprintf(opts.Preview, "==> %s\n%s", res.rel, res.content); err != nil {
				return fmt.Errorf("writing preview of %s: %w", res.rel, err)
			}
		}
	}
	logger.Debug("Content pass complete.", "files", len(files), "expanded", expanded)
	return nil
}

// expandFile expands one file. Files without the marker, unless forced, and
// binary files are skipped.
func expandFile(dir, rel string, root cty.Value, opts Options) (result, error) {
	path := filepath.Join(dir, rel)
	res := result{rel: filepath.ToSlash(rel)}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if isBinary(data) {
		return res, nil
	}
	text := string(data)
	if !opts.Force && !macro.HasMarker(text) {
		return res, nil
	}

	out, err := macro.Expand(text, root, opts.Macro)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.expanded = true

	if opts.Mode == ModePreview {
		res.content = out
		return res, nil
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}

// regularFiles lists regular files below dir in lexical order. Symlinks are
// left out, so linked sources are never rewritten.
func regularFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}
