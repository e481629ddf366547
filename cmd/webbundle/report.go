package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"webbundle/internal/config"
	"webbundle/internal/engine"
	"webbundle/internal/store"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("42"))

	canonicalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// renderReport formats the outcome of one successful build.
func renderReport(cfg *config.Config, res *engine.Result) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render(fmt.Sprintf("✓ build %s", res.BuildID)))
	b.WriteString("\n")

	for _, bundle := range res.Manifest.Bundles {
		bytes := 0
		for _, f := range res.Files {
			if f.URL == bundle.Canonical {
				bytes = len(f.Content)
			}
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			canonicalStyle.Render(bundle.Canonical),
			dimStyle.Render(fmt.Sprintf("(%d merged, %d bytes, %s)",
				len(bundle.Members), bytes, bundle.Strategy))))
	}

	passthrough := 0
	for _, f := range res.Files {
		if f.Provenance == store.ProvenanceOriginal {
			passthrough++
		}
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d files written to %s (%d passed through)",
		len(res.Files), cfg.OutDir, passthrough)))
	return b.String()
}
