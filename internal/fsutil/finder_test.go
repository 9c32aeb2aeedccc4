package fsutil

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"), "")
	writeFile(t, filepath.Join(root, "Makefile"), "")
	writeFile(t, filepath.Join(root, "lib", "util.cpp"), "")
	writeFile(t, filepath.Join(root, "lib", "util.h"), "")

	t.Run("recursive with filter", func(t *testing.T) {
		files, err := ListFiles(root, true, regexp.MustCompile(`\.c(pp)?$`))
		require.NoError(t, err)
		assert.Equal(t, []string{"lib/util.cpp", "main.c"}, files)
	})

	t.Run("top level only", func(t *testing.T) {
		files, err := ListFiles(root, false, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Makefile", "main.c"}, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := ListFiles(filepath.Join(root, "nope"), true, nil)
		require.Error(t, err)
	})
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.hcl"), "")
	writeFile(t, filepath.Join(root, "sub", "b.hcl"), "")
	writeFile(t, filepath.Join(root, "c.txt"), "")

	files, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.hcl"), filepath.Join(root, "sub", "b.hcl")}, files)
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(src, "top.v"), "module top;")
	writeFile(t, filepath.Join(src, "rtl", "core.vhd"), "entity core")
	require.NoError(t, os.Symlink(filepath.Join(src, "top.v"), filepath.Join(src, "alias.v")))

	t.Run("directory contents are merged into dst", func(t *testing.T) {
		require.NoError(t, CopyTree(src, dst, true))

		data, err := os.ReadFile(filepath.Join(dst, "rtl", "core.vhd"))
		require.NoError(t, err)
		assert.Equal(t, "entity core", string(data))

		info, err := os.Lstat(filepath.Join(dst, "alias.v"))
		require.NoError(t, err)
		assert.Zero(t, info.Mode()&os.ModeSymlink, "followLinks must materialize link targets")
	})

	t.Run("links are preserved without followLinks", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, CopyTree(src, out, false))
		info, err := os.Lstat(filepath.Join(out, "alias.v"))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
	})

	t.Run("copying links again replaces them", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, CopyTree(src, out, false))
		require.NoError(t, CopyTree(src, out, false))
		target, err := os.Readlink(filepath.Join(out, "alias.v"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(src, "top.v"), target)
	})

	t.Run("link over a non-empty directory fails", func(t *testing.T) {
		out := t.TempDir()
		writeFile(t, filepath.Join(out, "alias.v", "keep.v"), "module keep;")

		err := CopyTree(src, out, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alias.v")
		assert.True(t, Exists(filepath.Join(out, "alias.v", "keep.v")))
	})

	t.Run("single file source", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, CopyTree(filepath.Join(src, "top.v"), out, true))
		assert.True(t, Exists(filepath.Join(out, "top.v")))
	})

	t.Run("missing source", func(t *testing.T) {
		require.Error(t, CopyTree(filepath.Join(src, "missing"), t.TempDir(), true))
	})
}

func TestLinkTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.c"), "int a;")
	writeFile(t, filepath.Join(src, "inc", "a.h"), "extern int a;")

	require.NoError(t, LinkTree(src, dst))

	dirInfo, err := os.Lstat(filepath.Join(dst, "inc"))
	require.NoError(t, err)
	assert.True(t, dirInfo.IsDir(), "directories are recreated, not linked")

	target, err := os.Readlink(filepath.Join(dst, "inc", "a.h"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src, "inc", "a.h"), target)

	// Linking again replaces existing links.
	require.NoError(t, LinkTree(src, dst))
}

func TestRenameAndRemove(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old", "f"), "x")

	require.NoError(t, Rename(filepath.Join(root, "old"), filepath.Join(root, "new")))
	assert.False(t, Exists(filepath.Join(root, "old")))
	assert.True(t, IsDir(filepath.Join(root, "new")))

	require.NoError(t, RemovePath(filepath.Join(root, "new")))
	assert.False(t, Exists(filepath.Join(root, "new")))
	require.NoError(t, RemovePath(filepath.Join(root, "new")), "removing a missing path is not an error")
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "src/main", TrimExt("src/main.c"))
	assert.Equal(t, "Makefile", TrimExt("Makefile"))
}
