package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/table"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	tb := table.FromRecords("Sales", []string{"Ürün Adı", "Fiyat", "Görüntüleme"}, [][]string{
		{"Latte", "95", "120"},
		{"<b>Simit</b>", "35", "300"},
	}, table.NumberFormat{})
	roles := analysis.ClassifyTable(tb)
	res := analysis.NewAggregator(analysis.DefaultOptions()).Aggregate(tb, roles)
	require.NotEmpty(t, res.Insights)
	return New("data/menu.xlsx", tb, roles, res, nil)
}

func TestHTMLStructure(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Insight report: menu.xlsx", doc.Find("header h1").Text())
	assert.Equal(t, "2", doc.Find("#tile-rows .value").Text())
	assert.Equal(t, "3", doc.Find("#tile-columns .value").Text())

	items := doc.Find("ol.insights li")
	assert.Equal(t, len(r.Insights), items.Length())
	assert.Equal(t, strconv.Itoa(len(r.Insights)), doc.Find("#tile-insights .value").Text())
	items.Each(func(i int, s *goquery.Selection) {
		analysisName, _ := s.Attr("data-analysis")
		assert.Equal(t, r.Insights[i].Analysis, analysisName)
		assert.Equal(t, r.Insights[i].Title, s.Find(".title").Text())
	})

	// Cell text is escaped, never injected as markup.
	assert.Equal(t, 0, doc.Find("ol.insights b").Length())
	assert.Contains(t, items.First().Text(), "<b>Simit</b>")

	stamp, ok := doc.Find("footer time").Attr("datetime")
	require.True(t, ok)
	assert.NotEmpty(t, stamp)
	assert.Equal(t, "price", doc.Find("table.columns tbody tr").Eq(1).Find("td").Eq(1).Text())
}

func TestHTMLEmptyInsights(t *testing.T) {
	tb := table.FromRecords("Empty", []string{"Sıra"}, nil, table.NumberFormat{})
	r := New("empty.csv", tb, analysis.ClassifyTable(tb), analysis.Result{}, nil)
	var buf bytes.Buffer
	require.NoError(t, r.HTML(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("p.empty").Length())
	assert.Equal(t, "0", doc.Find("#tile-insights .value").Text())
}

func TestMarkdownAndJSON(t *testing.T) {
	r := sampleReport(t)
	md := r.Markdown()
	assert.Contains(t, md, "# Insight report: menu.xlsx")
	assert.Contains(t, md, "Rows: 2")
	assert.Contains(t, md, "1. **"+r.Insights[0].Title+"**")
	assert.Contains(t, md, "| Fiyat | price |")

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded["run_id"])
	insights := decoded["insights"].([]any)
	assert.Len(t, insights, len(r.Insights))
}

func TestWriteFile(t *testing.T) {
	r := sampleReport(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "report.html")
	require.NoError(t, r.WriteFile(out, "html"))
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<!DOCTYPE html>"))
}

func TestWriteFileUnwritablePath(t *testing.T) {
	r := sampleReport(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := r.WriteFile(filepath.Join(blocker, "report.html"), "html")
	var re *RenderError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, filepath.Join(blocker, "report.html"), re.Path)

	err = r.WriteFile(filepath.Join(t.TempDir(), "r.pdf"), "pdf")
	require.True(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "unsupported format")
}
