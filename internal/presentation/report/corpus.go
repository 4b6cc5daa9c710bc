package report

import (
	"fmt"
	"strings"

	"github.com/aretw0/teiinfo/pkg/iiif"
	"github.com/aretw0/teiinfo/pkg/scans"
	"github.com/aretw0/teiinfo/pkg/tei"
)

// Matches renders the result of an XPath query, one row per match.
func Matches(expr string, matches []tei.CorpusMatch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# `%s`\n\n%d matches.\n\n", escapeCell(expr), len(matches))
	if len(matches) == 0 {
		return sb.String()
	}
	sb.WriteString("| document | location | text |\n|---|---|---|\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "| `%s` | `%s` | %s |\n", m.Document, m.Location, escapeCell(clip(m.Text, 80)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Manifests renders the summary of a manifest run.
func Manifests(s *iiif.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# IIIF manifests\n\n%d manifests, %d items for %d pages.\n\n", len(s.Manifests), s.Items, s.Pages)
	if len(s.Excluded) > 0 {
		sb.WriteString("Excluded: ")
		writeNames(&sb, s.Excluded)
	}
	if len(s.Missing) > 0 {
		sb.WriteString("## Missing scans\n\n| kind | file | page | references |\n|---|---|---|---:|\n")
		for _, m := range s.Missing {
			fmt.Fprintf(&sb, "| %s | `%s` | `%s` | %d |\n", m.Kind, m.File, m.Page, m.N)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Scans renders the outcome of measuring a scan directory.
func Scans(r *scans.Result) string {
	var sb strings.Builder
	sb.WriteString("# Scans\n\n")
	if r.UpToDate {
		sb.WriteString("Size reports are up to date.\n")
		return sb.String()
	}
	if r.Info != nil {
		for _, kind := range sortedKeys(r.Info.Sizes) {
			fmt.Fprintf(&sb, "- **%s**: %d scans\n", kind, len(r.Info.Sizes[kind]))
		}
		fmt.Fprintf(&sb, "- **rotations**: %d\n\n", len(r.Info.Rotations))
		if len(r.Info.Skipped) > 0 {
			sb.WriteString("## Skipped\n\n")
			for _, f := range sortedKeys(r.Info.Skipped) {
				fmt.Fprintf(&sb, "- `%s`: %s\n", f, r.Info.Skipped[f])
			}
			sb.WriteString("\n")
		}
	}
	for _, w := range r.Written {
		fmt.Fprintf(&sb, "Wrote `%s`\n", w)
	}
	return sb.String()
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
