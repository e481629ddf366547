// Package manifest partitions the dependency graph into output bundles and
// emits the build manifest. Planning is a pure function of the graph and the
// options: identical inputs always yield an identical manifest, which is what
// makes builds reproducible.
package manifest

import (
	"fmt"

	"webbundle/internal/graph"
	"webbundle/internal/htmldoc"
)

// Strategy selects how the graph partitions into bundles.
type Strategy string

const (
	// StrategyDefault gives each entrypoint its own bundle containing the
	// documents only it can reach. Documents reachable from two or more
	// entrypoints stay un-bundled, since merging would duplicate them.
	StrategyDefault Strategy = "default"
	// StrategyShellMerge hoists documents shared between the shell and any
	// fragment into the shell's bundle, so shared cost is paid once.
	StrategyShellMerge Strategy = "shell-merge"
)

// StrategyConflictError reports a shell URL that is not part of the graph.
type StrategyConflictError struct {
	Shell string
}

func (e *StrategyConflictError) Error() string {
	return fmt.Sprintf("shell %q is not part of the ingested file set", e.Shell)
}

// Bundle is one planned output unit: the canonical URL it will be written to
// and its member URLs in breadth-first order from the canonical.
type Bundle struct {
	Canonical string
	Members   []string
	Strategy  Strategy
}

// Manifest is the complete bundle plan of one build. It is immutable once
// generated; the inliner consumes it as the single source of truth.
type Manifest struct {
	Bundles []Bundle
}

// Bundled reports whether a URL is a member of any bundle.
func (m *Manifest) Bundled(url string) bool {
	for _, b := range m.Bundles {
		for _, member := range b.Members {
			if member == url {
				return true
			}
		}
	}
	return false
}

// Options configure planning.
type Options struct {
	// Entrypoints in declaration order. Declaration order is the tie-break:
	// when a document is claimable by several bundles, first claim wins.
	Entrypoints []string
	// Shell, when set, selects the shell-merge strategy.
	Shell string
	// InlineScripts and InlineStylesheets gate whether script/stylesheet
	// edges count toward bundle membership. Import edges always do. A
	// gated-off target must stay a standalone file: it is still referenced
	// from the merged output.
	InlineScripts     bool
	InlineStylesheets bool
}

// Kinds returns the reference kinds that are inlinable under these options.
func (o Options) Kinds() map[htmldoc.Kind]bool {
	return map[htmldoc.Kind]bool{
		htmldoc.KindImport:     true,
		htmldoc.KindScript:     o.InlineScripts,
		htmldoc.KindStylesheet: o.InlineStylesheets,
	}
}

// Plan partitions the graph into bundles. Bundle member sets are pairwise
// disjoint; every entrypoint and the shell is the canonical URL of exactly
// one bundle; claim order is {shell, then entrypoints as declared}.
func Plan(g *graph.Graph, opts Options) (*Manifest, error) {
	strategy := StrategyDefault
	if opts.Shell != "" {
		strategy = StrategyShellMerge
		if !g.Has(opts.Shell) {
			return nil, &StrategyConflictError{Shell: opts.Shell}
		}
	}

	// Entrypoints, deduplicated, shell excluded (the shell is its own
	// claimant, never also a fragment).
	var entrypoints []string
	seen := make(map[string]bool)
	for _, e := range opts.Entrypoints {
		if e == opts.Shell || seen[e] {
			continue
		}
		seen[e] = true
		if !g.Has(e) {
			return nil, fmt.Errorf("entrypoint %q is not part of the ingested file set", e)
		}
		entrypoints = append(entrypoints, e)
	}

	kinds := opts.Kinds()

	canonicals := make(map[string]bool)
	if opts.Shell != "" {
		canonicals[opts.Shell] = true
	}
	for _, e := range entrypoints {
		canonicals[e] = true
	}

	// Reachability per claimant, and how many fragments reach each document.
	reach := make(map[string][]string)
	fragmentCount := make(map[string]int)
	claimants := entrypoints
	if opts.Shell != "" {
		claimants = append([]string{opts.Shell}, entrypoints...)
	}
	for _, c := range claimants {
		reach[c] = g.Reachable(c, kinds)
	}
	for _, e := range entrypoints {
		for _, u := range reach[e] {
			fragmentCount[u]++
		}
	}

	// First-claim assignment in {shell, entrypoints...} order.
	claimed := make(map[string]string)
	for _, c := range claimants {
		for _, u := range reach[c] {
			if u != c {
				if claimed[u] != "" || canonicals[u] {
					continue
				}
				// Under either strategy a document reachable from two or
				// more fragments stays un-bundled — unless the shell, which
				// claims first, already hoisted it.
				if c != opts.Shell && fragmentCount[u] > 1 {
					continue
				}
			}
			claimed[u] = c
		}
	}

	m := &Manifest{}
	for _, c := range claimants {
		b := Bundle{Canonical: c, Strategy: strategy}
		for _, u := range reach[c] {
			if claimed[u] == c {
				b.Members = append(b.Members, u)
			}
		}
		m.Bundles = append(m.Bundles, b)
	}
	return m, nil
}
