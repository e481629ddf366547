// Package inline merges a bundle's member documents into one tree rooted at
// the bundle's canonical document. Member trees are consumed destructively:
// their content migrates into the canonical tree, which is mutated in place
// to the final merged form.
package inline

import (
	"fmt"

	"golang.org/x/net/html"

	"webbundle/internal/graph"
	"webbundle/internal/htmldoc"
	"webbundle/internal/manifest"
	"webbundle/internal/store"
	"webbundle/internal/urlmap"
)

// Options gate which reference kinds are inlined. Imports always are.
type Options struct {
	InlineScripts     bool
	InlineStylesheets bool
}

func (o Options) kinds() map[htmldoc.Kind]bool {
	return map[htmldoc.Kind]bool{
		htmldoc.KindImport:     true,
		htmldoc.KindScript:     o.InlineScripts,
		htmldoc.KindStylesheet: o.InlineStylesheets,
	}
}

// Run merges one bundle. After it returns, the canonical document's tree in
// the graph holds the merged content and is ready to serialize. Bundles have
// pairwise-disjoint member sets, so distinct bundles may run concurrently.
func Run(b manifest.Bundle, g *graph.Graph, st *store.Store, opts Options) error {
	root, ok := g.Docs[b.Canonical]
	if !ok {
		return fmt.Errorf("bundle canonical %q is not a parsed document", b.Canonical)
	}

	m := &merger{
		canonical: b.Canonical,
		members:   make(map[string]bool, len(b.Members)),
		graph:     g,
		store:     st,
		kinds:     opts.kinds(),
		done:      make(map[string]bool),
		active:    make(map[string]bool),
	}
	for _, u := range b.Members {
		m.members[u] = true
	}
	return m.merge(root)
}

type merger struct {
	canonical string
	members   map[string]bool
	graph     *graph.Graph
	store     *store.Store
	kinds     map[htmldoc.Kind]bool

	// done tracks targets already inlined once: later references to them are
	// removed rather than re-inlined, so a document reachable via two paths
	// appears exactly once. active tracks the recursion stack: a back-edge
	// into it is a cycle and is treated as already satisfied.
	done   map[string]bool
	active map[string]bool
}

// merge resolves every reference of a member document, depth-first, before
// its content is spliced into the canonical tree.
func (m *merger) merge(d *htmldoc.Document) error {
	m.active[d.URL] = true
	defer delete(m.active, d.URL)

	for _, ref := range d.References() {
		if err := m.resolve(ref); err != nil {
			return err
		}
	}
	m.done[d.URL] = true
	return nil
}

func (m *merger) resolve(ref htmldoc.Reference) error {
	if !m.kinds[ref.Kind] || !m.members[ref.Target] {
		// Stays an external reference, but the content carrying it is moving
		// to the canonical location: rebase so it still resolves.
		htmldoc.SetAttr(ref.Node, specAttr(ref.Kind), urlmap.Relative(m.canonical, ref.Target))
		return nil
	}

	if m.done[ref.Target] || m.active[ref.Target] {
		htmldoc.Remove(ref.Node)
		return nil
	}

	switch ref.Kind {
	case htmldoc.KindImport:
		target, ok := m.graph.Docs[ref.Target]
		if !ok {
			return fmt.Errorf("import target %q is not a parsed document", ref.Target)
		}
		if err := m.merge(target); err != nil {
			return err
		}
		htmldoc.ReplaceWith(ref.Node, htmldoc.ContentNodes(target))

	case htmldoc.KindScript:
		entry, ok := m.store.Get(ref.Target)
		if !ok {
			return fmt.Errorf("script target %q missing from store", ref.Target)
		}
		htmldoc.ReplaceWith(ref.Node, []*html.Node{htmldoc.ScriptNode(string(entry.Content))})
		m.done[ref.Target] = true

	case htmldoc.KindStylesheet:
		entry, ok := m.store.Get(ref.Target)
		if !ok {
			return fmt.Errorf("stylesheet target %q missing from store", ref.Target)
		}
		css := RebaseCSS(string(entry.Content), ref.Target, m.canonical)
		htmldoc.ReplaceWith(ref.Node, []*html.Node{htmldoc.StyleNode(css)})
		m.done[ref.Target] = true
	}
	return nil
}

func specAttr(k htmldoc.Kind) string {
	if k == htmldoc.KindScript {
		return "src"
	}
	return "href"
}
