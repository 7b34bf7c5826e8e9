package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_CollisionSuffixAndFormat(t *testing.T) {
	wd := sandbox(t)

	// Two CSV files with the same basename in different directories
	csv := "Ürün,Fiyat,Görüntüleme\nA,100,10\nB,250,30\nC,1200,5\n"
	writeFile(t, filepath.Join(wd, "d1", "metrics.csv"), csv)
	writeFile(t, filepath.Join(wd, "d2", "metrics.csv"), csv)

	out := runCmd(t, "analyze-batch", filepath.Join(wd, "d*", "metrics.csv"), "--out-dir", "reports", "--format", "markdown")
	if !strings.Contains(out, "[1/2] Processing metrics.csv...") || !strings.Contains(out, "[2/2] Processing metrics.csv...") {
		t.Fatalf("expected progress lines:\n%s", out)
	}

	b1 := filepath.Join(wd, "reports", "metrics.md")
	b2 := filepath.Join(wd, "reports", "metrics__2.md")
	for _, p := range []string{b1, b2} {
		body, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing report: %v", err)
		}
		if !strings.Contains(string(body), "## Insights") || !strings.Contains(string(body), "Budget (< 200)") {
			t.Fatalf("unexpected report body in %s:\n%s", p, body)
		}
	}
}

func TestAnalyzeBatch_KeepGoingAndQuiet(t *testing.T) {
	wd := sandbox(t)
	writeFile(t, filepath.Join(wd, "in", "a.csv"), "Ürün,Fiyat\nA,10\n")
	writeFile(t, filepath.Join(wd, "in", "b.pdf"), "%PDF")

	if _, err := execCmd(t, "analyze-batch", filepath.Join(wd, "in", "*"), "--out-dir", "r1"); err == nil {
		t.Fatalf("expected the unsupported file to stop the batch")
	}

	out, err := execCmd(t, "analyze-batch", filepath.Join(wd, "in", "*"), "--out-dir", "r2", "--keep-going", "--quiet")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected failure summary, got %v", err)
	}
	if strings.Contains(out, "Processing") {
		t.Fatalf("--quiet must suppress progress:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(wd, "r2", "a.html")); err != nil {
		t.Fatalf("report for the good file missing: %v", err)
	}

	if _, err := execCmd(t, "analyze-batch", filepath.Join(wd, "nothing-*.csv")); err == nil {
		t.Fatalf("expected no-match error")
	}
}
