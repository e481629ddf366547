package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webbundle/internal/config"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func TestEngineOptions(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": "<p>i</p>",
		"app/a.html": "<p>a</p>",
	})
	cfg := config.Default()
	cfg.Root = root
	cfg.Entrypoints = []string{filepath.Join("app", "a.html"), "index.html"}
	cfg.Shell = "index.html"
	cfg.InlineScripts = false

	opts, err := engineOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/a.html", "index.html"}, opts.Entrypoints)
	assert.Equal(t, "index.html", opts.Shell)
	assert.False(t, opts.InlineScripts)
	assert.True(t, opts.InlineStylesheets)
}

func TestEngineOptionsRejectsEscapingEntrypoint(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Entrypoints = []string{filepath.Join("..", "outside.html")}

	_, err := engineOptions(cfg)
	assert.Error(t, err)
}

func TestBundleCommandEndToEnd(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": `<html><head><link rel="import" href="frag.html"></head><body></body></html>`,
		"frag.html":  `<p id="merged">frag</p>`,
	})
	out := filepath.Join(t.TempDir(), "dist")

	rootCmd.SetArgs([]string{
		"bundle",
		"--config", filepath.Join(root, "webbundle.yaml"), // absent: defaults apply
		"--root", root,
		"--out", out,
		"--entrypoint", "index.html",
	})
	require.NoError(t, rootCmd.Execute())

	merged, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(merged), `id="merged"`)

	_, err = os.Stat(filepath.Join(out, "frag.html"))
	assert.True(t, os.IsNotExist(err))
}
