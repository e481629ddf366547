// Package engine orchestrates one build: it enforces the ingestion barrier,
// builds the dependency graph, plans the manifest, inlines each bundle,
// reconciles the file store against the bundled set, and emits the final
// file set. Everything after the barrier is a deterministic function of the
// sealed store and the options; a build either fully succeeds or emits
// nothing.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webbundle/internal/graph"
	"webbundle/internal/inline"
	"webbundle/internal/manifest"
	"webbundle/internal/store"
	"webbundle/internal/urlmap"
)

// Options is the engine's configuration surface. Entrypoints and Shell are
// canonical URLs in the store's URL space.
type Options struct {
	Entrypoints       []string
	Shell             string
	InlineScripts     bool
	InlineStylesheets bool
}

// File is one emitted output file. Path is the URL translated back to a
// relative filesystem path; the downstream writer anchors it wherever it
// wants the output tree.
type File struct {
	URL        string
	Path       string
	Content    []byte
	Provenance store.Provenance
}

// Result is the outcome of one successful build.
type Result struct {
	BuildID  string
	Manifest *manifest.Manifest
	Files    []File
}

// Build runs the whole pipeline over a sealed store. The store is claimed
// for the duration of the build; bundles are inlined concurrently since
// their member sets are pairwise disjoint. No store mutation happens until
// every bundle has been inlined and serialized, so a failed build leaves the
// store untouched and emits nothing.
func Build(ctx context.Context, st *store.Store, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	buildID := uuid.NewString()
	log := logger.With(zap.String("build_id", buildID))

	if err := st.BeginBuild(); err != nil {
		return nil, err
	}
	defer st.EndBuild()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("building dependency graph", zap.Int("files", st.Len()))
	g, err := graph.Build(st)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Plan(g, manifest.Options{
		Entrypoints:       opts.Entrypoints,
		Shell:             opts.Shell,
		InlineScripts:     opts.InlineScripts,
		InlineStylesheets: opts.InlineStylesheets,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("manifest planned", zap.Int("bundles", len(m.Bundles)))

	// Inline and serialize every bundle before touching the store: all or
	// nothing.
	serialized := make([][]byte, len(m.Bundles))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, b := range m.Bundles {
		i, b := i, b
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := inline.Run(b, g, st, inline.Options{
				InlineScripts:     opts.InlineScripts,
				InlineStylesheets: opts.InlineStylesheets,
			}); err != nil {
				return fmt.Errorf("inlining bundle %q: %w", b.Canonical, err)
			}
			out, err := g.Docs[b.Canonical].Serialize()
			if err != nil {
				return err
			}
			serialized[i] = out
			log.Debug("bundle inlined",
				zap.String("canonical", b.Canonical),
				zap.Int("members", len(b.Members)),
				zap.Int("bytes", len(out)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reconcile: merged-away members disappear, canonicals are replaced in
	// place, untouched URLs pass through.
	for i, b := range m.Bundles {
		for _, member := range b.Members {
			if member != b.Canonical {
				st.Delete(member)
			}
		}
		st.Put(b.Canonical, serialized[i], store.ProvenanceBundled)
	}

	files, err := emit(st)
	if err != nil {
		return nil, err
	}
	log.Info("build complete",
		zap.Int("bundles", len(m.Bundles)),
		zap.Int("files", len(files)))

	return &Result{BuildID: buildID, Manifest: m, Files: files}, nil
}

func emit(st *store.Store) ([]File, error) {
	urls := st.URLs()
	files := make([]File, 0, len(urls))
	for _, u := range urls {
		entry, _ := st.Get(u)
		p, err := urlmap.URLToPath(".", u)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			URL:        u,
			Path:       filepath.Clean(p),
			Content:    entry.Content,
			Provenance: entry.Provenance,
		})
	}
	return files, nil
}
