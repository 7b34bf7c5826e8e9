package report

import (
	"embed"
	"html/template"
	"io"
	"time"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"iso":   func(t time.Time) string { return t.Format(time.RFC3339) },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// HTML writes the report as a standalone HTML document.
func (r *Report) HTML(w io.Writer) error {
	return htmlTemplate.Execute(w, r)
}
