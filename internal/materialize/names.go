package materialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/macro"
	"github.com/zclconf/go-cty/cty"
)

// expandNames renames entries whose names carry substitution tokens,
// top-down, so that a renamed directory is descended under its new name.
func expandNames(ctx context.Context, dir string, root cty.Value) error {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	// Names written by a rename in this directory. A template entry that
	// was replaced by one of them must not be visited again.
	renamed := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if renamed[name] {
			continue
		}
		path := filepath.Join(dir, name)

		if newName := macro.ExpandName(name, root); newName != name {
			if newName == "" || strings.ContainsRune(newName, '/') || strings.ContainsRune(newName, filepath.Separator) {
				return fmt.Errorf("%s: expanded name %q is not a valid file name", path, newName)
			}
			target := filepath.Join(dir, newName)
			if fsutil.Exists(target) {
				logger.Debug("Replacing existing entry with renamed one.", "path", target)
				if err := fsutil.RemovePath(target); err != nil {
					return fmt.Errorf("%s: %w", target, err)
				}
			}
			if err := fsutil.Rename(path, target); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("Renamed entry.", "from", path, "to", target)
			renamed[newName] = true
			path = target
		}

		if e.IsDir() {
			if err := expandNames(ctx, path, root); err != nil {
				return err
			}
		}
	}
	return nil
}
