package materialize

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/macro"
	"github.com/zclconf/go-cty/cty"
)

// substituteSubtrees replaces every placeholder file named
// "<a3<generate_for_KEY>a3>..." by copies or links of the paths listed in
// KEY. Placeholders whose key is not in the context stay in place.
func substituteSubtrees(ctx context.Context, dir string, root cty.Value, link bool) error {
	logger := ctxlog.FromContext(ctx)

	var placeholders []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := macro.SubtreeKey(d.Name()); ok {
			placeholders = append(placeholders, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	scope := macro.NewScope(root)
	for _, path := range placeholders {
		key, _ := macro.SubtreeKey(filepath.Base(path))
		v, ok := scope.Lookup(key)
		if !ok {
			logger.Debug("Subtree key not in context, keeping placeholder.", "path", path, "key", key)
			continue
		}
		sources, err := pathList(v)
		if err != nil {
			return fmt.Errorf("%s: key %s: %w", path, key, err)
		}

		if err := fsutil.RemovePath(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		parent := filepath.Dir(path)
		for _, src := range sources {
			if link {
				err = fsutil.LinkTree(src, parent)
			} else {
				err = fsutil.CopyTree(src, parent, true)
			}
			if err != nil {
				return fmt.Errorf("%s: substituting %s: %w", path, src, err)
			}
		}
		logger.Debug("Substituted subtree placeholder.", "path", path, "key", key, "sources", len(sources), "link", link)
	}
	return nil
}

// pathList reads a context value as a list of filesystem paths. A single
// string is a one-element list and null is an empty one.
func pathList(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if ty.Equals(cty.String) {
		return []string{v.AsString()}, nil
	}
	if !ty.IsListType() && !ty.IsSetType() && !ty.IsTupleType() {
		return nil, fmt.Errorf("expected a list of paths, got %s", ty.FriendlyName())
	}

	var paths []string
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.IsNull() || !el.Type().Equals(cty.String) {
			return nil, fmt.Errorf("expected a list of paths, found a %s element", el.Type().FriendlyName())
		}
		paths = append(paths, el.AsString())
	}
	return paths, nil
}
