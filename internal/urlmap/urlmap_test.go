package urlmap

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathToURL(t *testing.T) {
	root := t.TempDir()

	t.Run("relative path under root", func(t *testing.T) {
		u, err := PathToURL(root, filepath.Join("app", "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "app/index.html", u)
	})

	t.Run("absolute path under root", func(t *testing.T) {
		u, err := PathToURL(root, filepath.Join(root, "shell.html"))
		require.NoError(t, err)
		assert.Equal(t, "shell.html", u)
	})

	t.Run("path escaping root fails", func(t *testing.T) {
		_, err := PathToURL(root, filepath.Join("..", "outside.html"))
		var oor *OutOfRootError
		require.True(t, errors.As(err, &oor))
		assert.Equal(t, root, oor.Root)
	})

	t.Run("dot segments are cleaned", func(t *testing.T) {
		u, err := PathToURL(root, filepath.Join("app", "..", "app", "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "app/index.html", u)
	})
}

func TestURLToPath(t *testing.T) {
	root := t.TempDir()

	p, err := URLToPath(root, "app/index.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app", "index.html"), p)

	// Escaping URLs are clamped to the root, never above it.
	p, err = URLToPath(root, "../evil.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "evil.html"), p)
}

func TestRoundTrip(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"index.html",
		"app/index.html",
		"deep/nested/dir/fragment.html",
		"styles/main.css",
	} {
		u, err := PathToURL(root, filepath.FromSlash(rel))
		require.NoError(t, err)
		p, err := URLToPath(root, u)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(rel)), p)

		// And the other direction.
		u2, err := PathToURL(root, p)
		require.NoError(t, err)
		assert.Equal(t, u, u2)
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://cdn.example.com/lib.js"))
	assert.True(t, IsRemote("http://example.com/a.html"))
	assert.True(t, IsRemote("//cdn.example.com/lib.js"))
	assert.True(t, IsRemote("data:text/css,body{}"))
	assert.False(t, IsRemote("lib.js"))
	assert.False(t, IsRemote("../shared/lib.js"))
	assert.False(t, IsRemote("/abs/lib.js"))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "app/lib.js", Resolve("app/index.html", "lib.js"))
	assert.Equal(t, "lib.js", Resolve("app/index.html", "../lib.js"))
	assert.Equal(t, "shared/f.html", Resolve("app/index.html", "../shared/f.html"))
	assert.Equal(t, "abs/lib.js", Resolve("app/index.html", "/abs/lib.js"))
	assert.Equal(t, "app/lib.js", Resolve("app/index.html", "lib.js?v=2"))
	assert.Equal(t, "app/lib.js", Resolve("app/index.html", "lib.js#frag"))
	assert.Equal(t, "app/index.html", Resolve("app/index.html", "#anchor"))
}

func TestRelative(t *testing.T) {
	assert.Equal(t, "lib.js", Relative("index.html", "lib.js"))
	assert.Equal(t, "app/lib.js", Relative("index.html", "app/lib.js"))
	assert.Equal(t, "lib.js", Relative("app/index.html", "app/lib.js"))
	assert.Equal(t, "../shared/f.html", Relative("app/index.html", "shared/f.html"))
	assert.Equal(t, "../../top.css", Relative("a/b/page.html", "top.css"))

	// Relative output must resolve back to the target.
	for _, tc := range [][2]string{
		{"app/index.html", "shared/deep/f.html"},
		{"index.html", "styles/site.css"},
		{"a/b/c/page.html", "a/x/y.js"},
	} {
		spec := Relative(tc[0], tc[1])
		assert.Equal(t, tc[1], Resolve(tc[0], spec), "rebase %s -> %s via %q", tc[0], tc[1], spec)
	}
}
