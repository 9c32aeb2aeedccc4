// Package fsutil provides the file system primitives used by template
// generation: tree copy and link, removal, rename, existence checks and
// filtered listings.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ListFiles returns the paths of all regular files (and file symlinks) under
// dir whose base name matches filter, relative to dir and sorted. A nil
// filter matches everything. When recursive is false only the top level is
// listed.
func ListFiles(dir string, recursive bool, filter *regexp.Regexp) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if filter != nil && !filter.MatchString(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	rel, err := ListFiles(rootPath, true, regexp.MustCompile(regexp.QuoteMeta(extension)+"$"))
	if err != nil {
		return nil, err
	}
	files := make([]string, len(rel))
	for i, r := range rel {
		files[i] = filepath.Join(rootPath, r)
	}
	return files, nil
}

// Exists reports whether path exists. Dangling symlinks count as existing.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MakeDir creates path and any missing parents.
func MakeDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// RemovePath deletes path and everything below it. Missing paths are not an error.
func RemovePath(path string) error {
	return os.RemoveAll(path)
}

// Rename moves oldPath to newPath.
func Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// TrimExt strips the final extension from path.
func TrimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// CopyTree copies src into the directory dst. A directory source has its
// contents merged into dst; a file source is copied to dst/<base>. When
// followLinks is set, symlinks are replaced by copies of their targets,
// otherwise they are recreated as symlinks.
func CopyTree(src, dst string, followLinks bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := MakeDir(dst); err != nil {
		return err
	}
	if !info.IsDir() {
		return copyEntry(src, filepath.Join(dst, filepath.Base(src)), followLinks)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	for _, e := range entries {
		if err := copyEntry(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name()), followLinks); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(src, dst string, followLinks bool) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !followLinks {
			target, err := os.Readlink(src)
			if err != nil {
				return fmt.Errorf("copy %s: %w", src, err)
			}
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("copy %s: %w", src, err)
			}
			return os.Symlink(target, dst)
		}
		if info, err = os.Stat(src); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
	}

	if info.IsDir() {
		return CopyTree(src, dst, followLinks)
	}
	return copyFile(src, dst, info.Mode().Perm())
}

func copyFile(src, dst string, perm fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	// A previous link at dst would otherwise be written through.
	if fi, err := os.Lstat(dst); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// LinkTree mirrors src into the directory dst using real directories and
// absolute symlinks for files. A file source becomes dst/<base>.
func LinkTree(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("link %s: %w", src, err)
	}
	if err := MakeDir(dst); err != nil {
		return err
	}
	if !info.IsDir() {
		return relink(abs, filepath.Join(dst, filepath.Base(abs)))
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("link %s: %w", src, err)
	}
	for _, e := range entries {
		from := filepath.Join(abs, e.Name())
		to := filepath.Join(dst, e.Name())
		if IsDir(from) {
			if err := LinkTree(from, to); err != nil {
				return err
			}
			continue
		}
		if err := relink(from, to); err != nil {
			return err
		}
	}
	return nil
}

func relink(target, link string) error {
	if Exists(link) {
		if err := os.RemoveAll(link); err != nil {
			return err
		}
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("link %s: %w", target, err)
	}
	return nil
}
