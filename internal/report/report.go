package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/table"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

// RenderError reports a failure to render or write a report.
type RenderError struct {
	Path  string
	Cause error
}

func (e *RenderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render report: %v", e.Cause)
	}
	return fmt.Sprintf("render report %s: %v", e.Path, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Output formats accepted by WriteFile and Render.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ColumnInfo is a column name with its classified role.
type ColumnInfo struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Report is everything a renderer needs for one analyzed table.
type Report struct {
	RunID       string             `json:"run_id"`
	Title       string             `json:"title"`
	Source      string             `json:"source"`
	Table       string             `json:"table"`
	Compare     string             `json:"compare,omitempty"`
	Rows        int                `json:"rows"`
	Columns     []ColumnInfo       `json:"columns"`
	Insights    []analysis.Insight `json:"insights"`
	Skipped     []analysis.Skip    `json:"skipped,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// New assembles a report for t. compare may be nil.
func New(source string, t *table.Table, roles analysis.RoleMap, res analysis.Result, compare *table.Table) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		Title:       "Insight report: " + filepath.Base(source),
		Source:      source,
		Table:       t.Name,
		Rows:        t.Rows(),
		Insights:    res.Insights,
		Skipped:     res.Skipped,
		GeneratedAt: time.Now(),
	}
	if compare != nil {
		r.Compare = compare.Name
	}
	for i, c := range t.Columns {
		role := analysis.RoleUnknown
		if i < len(roles) {
			role = roles[i]
		}
		r.Columns = append(r.Columns, ColumnInfo{Name: c.Name, Role: role.String()})
	}
	return r
}

// Analyze classifies t with cl (nil means default keywords), runs the
// aggregator and assembles the report. compare may be nil.
func Analyze(source string, t, compare *table.Table, cl *analysis.Classifier, opt analysis.Options) *Report {
	if cl == nil {
		cl = analysis.NewClassifier(nil)
	}
	roles := cl.ClassifyTable(t)
	agg := analysis.NewAggregator(opt)
	agg.Classifier = cl
	agg.Compare = compare
	return New(source, t, roles, agg.Aggregate(t, roles), compare)
}

// Result returns the insights and skipped analyses the report was built from.
func (r *Report) Result() analysis.Result {
	return analysis.Result{Insights: r.Insights, Skipped: r.Skipped}
}

// Render writes the report to w in the given format.
func (r *Report) Render(w io.Writer, format string) error {
	var err error
	switch normalizeFormat(format) {
	case FormatHTML:
		err = r.HTML(w)
	case FormatMarkdown:
		_, err = io.WriteString(w, r.Markdown())
	case FormatJSON:
		var b []byte
		b, err = utils.PrettyJSON(r)
		if err == nil {
			_, err = w.Write(append(b, '\n'))
		}
	default:
		return &RenderError{Cause: fmt.Errorf("unsupported format %q (use html|markdown|json)", format)}
	}
	if err != nil {
		return &RenderError{Cause: err}
	}
	return nil
}

// WriteFile renders the report into path atomically.
func (r *Report) WriteFile(path, format string) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, format); err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			re.Path = path
		}
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &RenderError{Path: path, Cause: err}
		}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &RenderError{Path: path, Cause: err}
	}
	return nil
}

// ExtFor returns the file extension for a format.
func ExtFor(format string) string {
	switch normalizeFormat(format) {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".html"
	}
}

func normalizeFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "", "html", "htm":
		return FormatHTML
	case "md", "markdown":
		return FormatMarkdown
	case "json":
		return FormatJSON
	default:
		return f
	}
}
