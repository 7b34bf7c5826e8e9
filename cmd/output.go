package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/table"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	dimText  = color.New(color.Faint).SprintFunc()
	boldText = color.New(color.Bold).SprintFunc()
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark("⚠ Warning:"), fmt.Sprintf(format, args...))
}

func debugf(w io.Writer, format string, args ...any) {
	if !debug {
		return
	}
	fmt.Fprintln(w, dimText("[debug] "+fmt.Sprintf(format, args...)))
}

// printInsights writes the numbered insight list.
func printInsights(w io.Writer, res analysis.Result) {
	if len(res.Insights) == 0 {
		fmt.Fprintln(w, "  (no insights for this table)")
	}
	for i, in := range res.Insights {
		fmt.Fprintf(w, "  %2d. %s: %s\n", i+1, boldText(in.Title), in.Value)
	}
	for _, s := range res.Skipped {
		debugf(w, "skipped %s: %s", s.Analysis, s.Reason)
	}
}

// explainRoles prints the role and deciding keyword for every column.
func explainRoles(w io.Writer, t *table.Table, cl *analysis.Classifier) {
	if !debug {
		return
	}
	for _, c := range t.Columns {
		role, kw := cl.Explain(c.Name)
		if kw == "" {
			debugf(w, "column %q -> %s", c.Name, role)
			continue
		}
		debugf(w, "column %q -> %s (keyword %q)", c.Name, role, kw)
	}
}
