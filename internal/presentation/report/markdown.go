package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/teiinfo/pkg/domain"
)

// Analysis renders a schema analysis as Markdown: a summary line followed by
// the mixed and the pure elements.
func Analysis(a *domain.SchemaAnalysis) string {
	var sb strings.Builder
	mixed, pure := a.Mixed(), a.Pure()

	fmt.Fprintf(&sb, "# Schema %s\n\n", a.Schema)
	fmt.Fprintf(&sb, "%d elements: **%d mixed**, **%d pure**.\n\n", len(a.Elements), len(mixed), len(pure))
	if a.Checksum != "" {
		fmt.Fprintf(&sb, "Checksum `%s`\n\n", short(a.Checksum))
	}

	sb.WriteString("## Mixed content\n\n")
	writeNames(&sb, mixed)

	sb.WriteString("## Pure content\n\n")
	sb.WriteString("| element | content |\n|---|---|\n")
	for _, el := range a.Elements {
		if el.Kind.IsPure() {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", el.Name, el.Kind)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Diff renders the comparison of two analyses.
func Diff(base, override string, d domain.AnalysisDiff) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s compared to %s\n\n", override, base)
	if d.Empty() {
		sb.WriteString("No differences.\n")
		return sb.String()
	}

	if len(d.Added) > 0 {
		sb.WriteString("## Added\n\n")
		for _, el := range d.Added {
			fmt.Fprintf(&sb, "- `%s` (%s)\n", el.Name, el.Kind)
		}
		sb.WriteString("\n")
	}
	if len(d.Removed) > 0 {
		sb.WriteString("## Removed\n\n")
		for _, el := range d.Removed {
			fmt.Fprintf(&sb, "- `%s` (%s)\n", el.Name, el.Kind)
		}
		sb.WriteString("\n")
	}
	if len(d.Changed) > 0 {
		sb.WriteString("## Changed\n\n| element | from | to |\n|---|---|---|\n")
		for _, c := range d.Changed {
			fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", c.Name, c.From, c.To)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validation renders one validation report.
func Validation(r *domain.ValidationReport) string {
	var sb strings.Builder

	status := "valid"
	if !r.Valid {
		status = "**invalid**"
	}
	fmt.Fprintf(&sb, "# %s\n\n", r.Instance)
	fmt.Fprintf(&sb, "%s against `%s` (%s, %s)\n\n", status, r.Schema, r.Engine, r.Duration.Round(time.Millisecond))

	if len(r.Diagnostics) > 0 {
		sb.WriteString("| line | col | severity | message |\n|---|---|---|---|\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&sb, "| %d | %d | %s | %s |\n", d.Line, d.Column, d.Severity, escapeCell(d.Message))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Inventory renders the element statistics and page count of a corpus.
func Inventory(inv domain.Inventory) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Inventory\n\n%d documents, %d distinct elements, %d pages.\n\n",
		inv.Documents, len(inv.Elements), len(inv.Pages))

	sb.WriteString("| element | count | documents | text | attributes |\n|---|---:|---:|:-:|---|\n")
	for _, st := range inv.SortedElements() {
		text := ""
		if st.HasText {
			text = "✓"
		}
		fmt.Fprintf(&sb, "| `%s` | %d | %d | %s | %s |\n", st.Name, st.Count, st.Documents, text, attributes(st.Attributes))
	}
	sb.WriteString("\n")

	if len(inv.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, id := range sortedKeys(inv.Failures) {
			fmt.Fprintf(&sb, "- `%s`: %s\n", id, inv.Failures[id])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Header renders the metadata of one document.
func Header(doc domain.Document) string {
	var sb strings.Builder
	h := doc.Header

	title := h.Title
	if title == "" {
		title = doc.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "- **%s**: %s\n", k, v)
		}
	}
	row("id", doc.ID)
	row("authors", strings.Join(h.Authors, "; "))
	row("editors", strings.Join(h.Editors, "; "))
	row("publisher", h.Publisher)
	row("date", h.Date)
	row("idno", h.Idno)
	row("language", h.Language)
	return sb.String()
}

func writeNames(sb *strings.Builder, names []string) {
	if len(names) == 0 {
		sb.WriteString("_none_\n\n")
		return
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString("\n\n")
}

func attributes(attrs map[string]int) string {
	parts := make([]string, 0, len(attrs))
	for _, name := range sortedKeys(attrs) {
		parts = append(parts, fmt.Sprintf("@%s (%d)", name, attrs[name]))
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
