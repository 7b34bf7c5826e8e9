package table

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var csvRows = []string{
	"Ürün Adı;Kategori;Fiyat;Görüntüleme;Foto Durumu",
	"Latte;İçecek;1.250,50;120;Evet",
	"Simit;Fırın;35;;Hayır",
	"Pasta;Tatlı;;80;Evet",
	"",
	"Çay;İçecek;20;300",
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadCSVLocaleAndPadding(t *testing.T) {
	path := writeFile(t, "menu.csv", []byte(strings.Join(csvRows, "\n")))

	tb, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Name != "menu.csv" {
		t.Fatalf("name = %q", tb.Name)
	}
	if tb.Rows() != 4 || tb.Width() != 5 {
		t.Fatalf("shape = %dx%d, want 4x5", tb.Rows(), tb.Width())
	}
	if got := tb.Names()[0]; got != "Ürün Adı" {
		t.Fatalf("first header = %q", got)
	}
	price := tb.Cell(0, 2)
	if f, ok := price.Float(); !ok || f != 1250.5 {
		t.Fatalf("price = %#v, want 1250.5", price)
	}
	if !tb.Cell(1, 3).IsMissing() {
		t.Fatalf("empty view cell should be missing: %#v", tb.Cell(1, 3))
	}
	if !tb.Cell(3, 4).IsMissing() {
		t.Fatalf("short row should pad with missing: %#v", tb.Cell(3, 4))
	}
	if tb.Cell(1, 4).Kind != Text || tb.Cell(1, 4).Text != "Hayır" {
		t.Fatalf("status = %#v", tb.Cell(1, 4))
	}
}

func TestReadCSVWindows1254(t *testing.T) {
	body := "Ürün,Fiyat\nŞeker,12\n"
	enc, err := charmap.Windows1254.NewEncoder().String(body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := writeFile(t, "legacy.csv", []byte(enc))

	tb, err := Load(path, LoadOptions{Encoding: "windows-1254"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Columns[0].Name != "Ürün" {
		t.Fatalf("decoded header = %q", tb.Columns[0].Name)
	}
	if tb.Cell(0, 0).Text != "Şeker" {
		t.Fatalf("decoded cell = %q", tb.Cell(0, 0).Text)
	}
}

func TestReadCSVBOMAndTSV(t *testing.T) {
	path := writeFile(t, "a.tsv", []byte("\xEF\xBB\xBFname\tprice\nx\t1\n"))
	tb, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Columns[0].Name != "name" {
		t.Fatalf("BOM not stripped: %q", tb.Columns[0].Name)
	}
	if f, _ := tb.Cell(0, 1).Float(); f != 1 {
		t.Fatalf("price = %v", f)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("want *LoadError, got %T %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist in chain: %v", err)
	}

	path := writeFile(t, "data.parquet", []byte("PAR1"))
	_, err = Load(path, LoadOptions{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("want ErrUnsupported, got %v", err)
	}

	path = writeFile(t, "bad.csv", []byte("a,b\n1,2\n"))
	if _, err := Load(path, LoadOptions{Encoding: "ebcdic"}); !errors.As(err, &le) {
		t.Fatalf("want *LoadError for bad encoding, got %v", err)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Notes"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := f.SetSheetRow("Notes", "A1", &[]any{"Note"}); err != nil {
		t.Fatalf("row: %v", err)
	}
	if err := f.SetSheetRow("Notes", "A2", &[]any{"hello"}); err != nil {
		t.Fatalf("row: %v", err)
	}
	if _, err := f.NewSheet("Sales"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]any{
		{"Ürün Adı", "Fiyat", "Görüntüleme"},
		{"Latte", 95.5, 120},
		{"Simit", 35, 300},
		{"Pasta", 1250.5, 80},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sales", cell, &r); err != nil {
			t.Fatalf("row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestLoadWorkbookPicksLargestSheet(t *testing.T) {
	path := writeWorkbook(t)

	tb, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Name != "Sales" {
		t.Fatalf("main sheet = %q, want Sales", tb.Name)
	}
	if tb.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", tb.Rows())
	}
	if f, ok := tb.Cell(0, 1).Float(); !ok || f != 95.5 {
		t.Fatalf("price = %#v", tb.Cell(0, 1))
	}

	comma, err := Load(path, LoadOptions{Number: NumberFormat{DecimalSeparator: ','}})
	if err != nil {
		t.Fatalf("Load with comma decimal: %v", err)
	}
	if f, ok := comma.Cell(2, 1).Float(); !ok || f != 1250.5 {
		t.Fatalf("workbook price with --decimal comma = %#v, want 1250.5", comma.Cell(2, 1))
	}

	notes, err := Load(path, LoadOptions{SheetName: "Notes"})
	if err != nil {
		t.Fatalf("Load forced sheet: %v", err)
	}
	if notes.Rows() != 1 {
		t.Fatalf("notes rows = %d", notes.Rows())
	}

	_, err = Load(path, LoadOptions{SheetName: "Missing"})
	if err == nil || !strings.Contains(err.Error(), "Available sheets: Notes, Sales") {
		t.Fatalf("want sheet listing error, got %v", err)
	}
}

func TestMainTieKeepsFirst(t *testing.T) {
	a := &Table{Name: "a", Columns: []*Column{{Name: "x", Values: make([]Value, 2)}}}
	b := &Table{Name: "b", Columns: []*Column{{Name: "x", Values: make([]Value, 2)}}}
	if got := Main([]*Table{a, b}); got != a {
		t.Fatalf("Main = %s, want a", got.Name)
	}
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New("t", []*Column{
		{Name: "a", Values: []Value{NumberValue(1)}},
		{Name: "b", Values: nil},
	})
	if err == nil {
		t.Fatalf("expected error for unequal columns")
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		nf   NumberFormat
		want float64
		ok   bool
	}{
		{"1.250,50", NumberFormat{}, 1250.5, true},
		{"1,250.50", NumberFormat{}, 1250.5, true},
		{"12 500", NumberFormat{}, 12500, true},
		{"35%", NumberFormat{}, 35, true},
		{"1,250", NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}, 1250, true},
		{"1.250", NumberFormat{ThousandsSeparator: '.'}, 1250, true},
		{"1.250,75", NumberFormat{ThousandsSeparator: '.'}, 1250.75, true},
		{"1,250", NumberFormat{ThousandsSeparator: ','}, 1250, true},
		{"1 250,5", NumberFormat{ThousandsSeparator: ' '}, 1250.5, true},
		{"-3e2", NumberFormat{}, -300, true},
		{"NaN", NumberFormat{}, 0, false},
		{"Inf", NumberFormat{}, 0, false},
		{"0x1p-2", NumberFormat{}, 0, false},
		{"2024-01-05", NumberFormat{}, 0, false},
		{"Evet", NumberFormat{}, 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, c.nf)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
