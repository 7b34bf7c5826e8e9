package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

const menuCSV = "Ürün Adı,Fiyat,Görüntüleme\nLatte,120,40\nSimit,30,90\nTost,90,10\n"

func setupTestServer(cfg Config) http.Handler {
	gin.SetMode(gin.TestMode)
	if cfg.Options.TopN == 0 {
		cfg.Options = analysis.DefaultOptions()
	}
	return New(cfg).Handler()
}

func upload(t *testing.T, path string, files map[string][2]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, f := range files {
		part, err := w.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthz(t *testing.T) {
	h := setupTestServer(Config{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyzeReturnsInsights(t *testing.T) {
	h := setupTestServer(Config{})
	w := httptest.NewRecorder()
	req := upload(t, "/api/v1/analyze", map[string][2]string{
		"file":    {"menu.csv", menuCSV},
		"compare": {"kosuyolu.csv", "Ürün,Fiyat\nA,50\nB,70\n"},
	})
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var got struct {
		Rows     int    `json:"rows"`
		Compare  string `json:"compare"`
		Insights []struct {
			Analysis string `json:"analysis"`
			Title    string `json:"title"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, "kosuyolu.csv", got.Compare)
	require.NotEmpty(t, got.Insights)
	assert.Equal(t, analysis.TopMetric, got.Insights[0].Analysis)

	var names []string
	for _, in := range got.Insights {
		names = append(names, in.Analysis)
	}
	assert.Contains(t, names, analysis.CrossTable)
}

func TestReportReturnsHTML(t *testing.T) {
	h := setupTestServer(Config{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, upload(t, "/api/v1/report", map[string][2]string{"file": {"menu.csv", menuCSV}}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "3", doc.Find("#tile-rows .value").Text())
	assert.Positive(t, doc.Find("ol.insights li").Length())
}

func TestAnalyzeErrors(t *testing.T) {
	h := setupTestServer(Config{})

	t.Run("missing file field", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, upload(t, "/api/v1/analyze", map[string][2]string{"other": {"x.csv", "a\n1\n"}}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, upload(t, "/api/v1/analyze", map[string][2]string{"file": {"notes.pdf", "%PDF-1.4"}}))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "notes.pdf")
	})
}

func TestRateLimit(t *testing.T) {
	h := setupTestServer(Config{RateLimit: 0.001, Burst: 1})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, upload(t, "/api/v1/analyze", map[string][2]string{"file": {"menu.csv", menuCSV}}))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, upload(t, "/api/v1/analyze", map[string][2]string{"file": {"menu.csv", menuCSV}}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Health checks are not rate limited.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
