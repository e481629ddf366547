package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"webbundle/internal/store"
	"webbundle/internal/urlmap"
)

// IngestTree walks the project root and ingests every regular file into the
// store, keyed by its canonical URL. Hidden directories and excluded glob
// patterns (matched against the root-relative slash path) are skipped. The
// caller seals the store afterwards; on error it should discard it instead,
// since a partial ingest must never reach the graph builder.
func IngestTree(root string, st *store.Store, exclude []string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		// Walk paths carry the root prefix; PathToURL resolves relative
		// paths against the root, so strip it first.
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		url, err := urlmap.PathToURL(root, rel)
		if err != nil {
			return err
		}
		for _, pattern := range exclude {
			ok, merr := filepath.Match(pattern, url)
			if merr != nil {
				return fmt.Errorf("exclude pattern %q: %w", pattern, merr)
			}
			if ok {
				logger.Debug("excluded from ingestion", zap.String("url", url))
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := st.Add(url, content); err != nil {
			return err
		}
		logger.Debug("ingested", zap.String("url", url), zap.Int("bytes", len(content)))
		return nil
	})
}

// WriteFiles materializes an emitted file set under outDir, creating
// directories as needed. It is the downstream writer of the emission
// boundary.
func WriteFiles(outDir string, files []File) error {
	for _, f := range files {
		dest := filepath.Join(outDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("creating %q: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, f.Content, 0644); err != nil {
			return fmt.Errorf("writing %q: %w", dest, err)
		}
	}
	return nil
}
