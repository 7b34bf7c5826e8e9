package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/insightloom/internal/utils"
)

func TestSafeWriteFileAndUniquePath(t *testing.T) {
	dir := t.TempDir()
	first := utils.UniquePath(dir, "menu", ".html")
	if filepath.Base(first) != "menu.html" {
		t.Fatalf("first = %s", first)
	}
	if err := utils.SafeWriteFile(first, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(first + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	second := utils.UniquePath(dir, "menu", ".html")
	if filepath.Base(second) != "menu__2.html" {
		t.Fatalf("second = %s", second)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Sales 2024.xlsx": "sales-2024-xlsx",
		"  Şube  ":        "ube",
		"***":             "table",
	}
	for in, want := range cases {
		if got := utils.Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
