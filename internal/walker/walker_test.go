package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/idwiden/internal/errs"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("class X {}"), 0o644))
	}
}

func rels(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"CMS.Data/Article.cs",
		"CMS.Data/Product.CS",
		"CMS.Data/readme.md",
		"CMS.Dto/ArticleDto.cs",
		"CMS.Dto/bin/Debug/Gen.cs",
		"CMS.Dto/obj/Gen.cs",
		".git/hooks/x.cs",
		"node_modules/pkg/y.cs",
	)

	tests := []struct {
		name string
		exts []string
	}{
		{"with dot", []string{".cs"}},
		{"without dot", []string{"cs"}},
		{"upper case", []string{"CS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Walk([]string{root}, Options{Extensions: tt.exts})
			require.NoError(t, err)
			assert.Equal(t, []string{
				"CMS.Data/Article.cs",
				"CMS.Data/Product.CS",
				"CMS.Dto/ArticleDto.cs",
			}, rels(t, root, files))
		})
	}
}

func TestWalk_MultipleRootsDedup(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a/A.cs", "b/B.cs")

	files, err := Walk([]string{
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
		filepath.Join(root, "a") + string(filepath.Separator),
		filepath.Join(root, "missing"),
		filepath.Join(root, "b", "B.cs"),
	}, Options{Extensions: []string{"cs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/A.cs", "b/B.cs"}, rels(t, root, files))
}

func TestWalk_NoFilter(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x.cs", "y.txt")

	files, err := Walk([]string{root}, Options{SkipDirs: []string{}})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestWalk_UnreadableSubdirIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	touch(t, root, "A.cs", "locked/B.cs", "open/C.cs")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := Walk([]string{root}, Options{Extensions: []string{".cs"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.cs", "open/C.cs"}, rels(t, root, files))
}

func TestWalk_UnreadableRootFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := filepath.Join(t.TempDir(), "models")
	touch(t, root, "A.cs")
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := Walk([]string{root}, Options{})
	assert.True(t, errs.IsRead(err))
}
