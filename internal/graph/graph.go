// Package graph builds the directed dependency graph over document URLs.
// Nodes are every URL in the (complete) file store; edges are the references
// extracted from each HTML document, kept in source-document order. Ordering
// and deduplication of edges beyond that is the inliner's concern.
package graph

import (
	"fmt"
	"strings"

	"webbundle/internal/htmldoc"
	"webbundle/internal/store"
)

// MissingDependencyError reports a reference whose target is absent from the
// file store. Dependency resolution is only sound on a complete store, so
// this is fatal.
type MissingDependencyError struct {
	Source string
	Target string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("document %q references %q, which was never ingested", e.Source, e.Target)
}

// Graph is the dependency graph of one build.
type Graph struct {
	// Docs holds the parsed tree for every HTML node. Non-HTML nodes
	// (scripts, stylesheets) are leaves with raw content only.
	Docs map[string]*htmldoc.Document
	// Edges holds each HTML node's outbound references in source order.
	Edges map[string][]htmldoc.Reference

	nodes map[string]bool
}

// Build parses every HTML entry of a sealed store and validates that each
// reference target exists. Self references are illegal; cycles through two or
// more documents are legal.
func Build(st *store.Store) (*Graph, error) {
	g := &Graph{
		Docs:  make(map[string]*htmldoc.Document),
		Edges: make(map[string][]htmldoc.Reference),
		nodes: make(map[string]bool),
	}
	urls := st.URLs()
	for _, u := range urls {
		g.nodes[u] = true
	}
	for _, u := range urls {
		if !IsHTML(u) {
			continue
		}
		entry, _ := st.Get(u)
		doc, err := htmldoc.Parse(u, entry.Content)
		if err != nil {
			return nil, err
		}
		g.Docs[u] = doc

		refs := doc.References()
		for _, r := range refs {
			if r.Target == u {
				return nil, fmt.Errorf("document %q references itself via %q", u, r.Specifier)
			}
			if !g.nodes[r.Target] {
				return nil, &MissingDependencyError{Source: u, Target: r.Target}
			}
		}
		g.Edges[u] = refs
	}
	return g, nil
}

// Has reports whether a URL is a node of the graph.
func (g *Graph) Has(url string) bool {
	return g.nodes[url]
}

// Reachable returns every URL transitively referenced from the given URL
// through edges whose kind is enabled, in breadth-first order starting with
// the URL itself. Breadth-first order is what makes manifests reproducible
// run to run.
func (g *Graph) Reachable(from string, kinds map[htmldoc.Kind]bool) []string {
	if !g.nodes[from] {
		return nil
	}
	seen := map[string]bool{from: true}
	order := []string{from}
	for i := 0; i < len(order); i++ {
		for _, r := range g.Edges[order[i]] {
			if !kinds[r.Kind] || seen[r.Target] {
				continue
			}
			seen[r.Target] = true
			order = append(order, r.Target)
		}
	}
	return order
}

// IsHTML reports whether a URL names a parseable HTML document.
func IsHTML(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
