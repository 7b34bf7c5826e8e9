package report

import (
	"fmt"
	"strings"
)

// Markdown renders the report for terminals and plain-text docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	b.WriteString(fmt.Sprintf("Table: %s\n", safeVal(r.Table)))
	if r.Compare != "" {
		b.WriteString(fmt.Sprintf("Compared with: %s\n", safeVal(r.Compare)))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Columns)))
	b.WriteString(fmt.Sprintf("Insights: %d\n\n", len(r.Insights)))

	b.WriteString("## Insights\n\n")
	if len(r.Insights) == 0 {
		b.WriteString("No insights could be computed for this table.\n")
	}
	for i, in := range r.Insights {
		b.WriteString(fmt.Sprintf("%d. **%s**: %s\n", i+1, safeVal(in.Title), safeVal(in.Value.String())))
	}

	b.WriteString("\n## Columns\n\n")
	b.WriteString("| Column | Role |\n| --- | --- |\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("| %s | %s |\n", safeName(c.Name), c.Role))
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\n## Skipped analyses\n\n")
		for _, s := range r.Skipped {
			b.WriteString(fmt.Sprintf("- %s: %s\n", s.Analysis, s.Reason))
		}
	}
	b.WriteString(fmt.Sprintf("\n_Generated %s (run %s)_\n", r.GeneratedAt.Format("2006-01-02 15:04:05"), r.RunID))
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
