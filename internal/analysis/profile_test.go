package analysis

import (
	"math"
	"testing"

	"github.com/KaramelBytes/insightloom/internal/table"
)

func TestProfileKindsAndRoles(t *testing.T) {
	header := []string{"Ürün Adı", "Fiyat", "Tarih", "Kategori", "Not"}
	records := [][]string{
		{"Latte", "1.000,0", "2024-01-05", "İçecek", "first"},
		{"Simit", "35", "2024-01-06", "Fırın", "second"},
		{"Pasta", "", "2024-01-07", "İçecek", "third"},
		{"Çay", "20", "", "İçecek", "fourth"},
	}
	tb := table.FromRecords("menu", header, records, table.NumberFormat{})
	prof := Profile(tb, nil)
	if len(prof) != 5 {
		t.Fatalf("profiles = %d, want 5", len(prof))
	}

	price := prof[1]
	if price.Kind != "numeric" || price.Role != "price" {
		t.Fatalf("price profile = %+v", price)
	}
	if price.Missing != 1 || price.NonNull != 3 {
		t.Fatalf("price counts = %d/%d", price.NonNull, price.Missing)
	}
	if price.Min != 20 || price.Max != 1000 {
		t.Fatalf("price range = %v..%v", price.Min, price.Max)
	}
	if math.Abs(price.Mean-(1000+35+20)/3.0) > 1e-9 {
		t.Fatalf("price mean = %v", price.Mean)
	}
	if price.Sample != "1.000,0" {
		t.Fatalf("price sample = %q", price.Sample)
	}

	if prof[2].Kind != "datetime" || prof[2].Role != "date" {
		t.Fatalf("date profile = %+v", prof[2])
	}
	cat := prof[3]
	if cat.Kind != "categorical" || cat.Unique != 2 {
		t.Fatalf("category profile = %+v", cat)
	}
	if cat.TopValues[0].Value != "İçecek" || cat.TopValues[0].Count != 3 {
		t.Fatalf("top value = %+v", cat.TopValues[0])
	}
	if prof[4].Kind != "text" || prof[4].Role != "unknown" {
		t.Fatalf("text profile = %+v", prof[4])
	}
	if prof[0].Role != "name" {
		t.Fatalf("name role = %q", prof[0].Role)
	}
}
