package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branchMenu(t *testing.T) *Aggregator {
	t.Helper()
	agg := NewAggregator(DefaultOptions())
	agg.Compare = mustTable(t, "kosuyolu", col("Fiyat", 90, 110))
	return agg
}

func changeMenu(t *testing.T) Result {
	tb := mustTable(t, "menu",
		col("Ürün Adı", "A", "B", "C", "D"),
		col("Fiyat", 100, 200, 300, nil),
		col("Güncel Fiyat", 120, 180, 300, 50),
		col("Sıra", 1, 2, 3, 4),
		col("Güncel Sıra", 2, 2, 3, nil),
		col("Güncel Badge", "Yeni", nil, nil, "Popüler"),
		col("Kategori", "x", "y", "x", "z"),
	)
	return branchMenu(t).Aggregate(tb, ClassifyTable(tb))
}

func TestPriceChangePairsCurrentWithUnmarkedColumn(t *testing.T) {
	got := byAnalysis(changeMenu(t), PriceChange)
	require.Len(t, got, 1)
	assert.Equal(t, "Price changes (Güncel Fiyat vs Fiyat)", got[0].Title)
	assert.Equal(t, "1 increased, 1 decreased, 1 unchanged", got[0].Value.String())
	assert.Equal(t, 2.0, got[0].Value.Num)

	reason, ok := skipped(run(sampleMenu(t), DefaultOptions()), PriceChange)
	require.True(t, ok)
	assert.Equal(t, "no previous/current price column pair", reason)
}

func TestValueChangeCountsDifferingRows(t *testing.T) {
	got := byAnalysis(changeMenu(t), ValueChange)
	require.Len(t, got, 1)
	assert.Equal(t, "Güncel Sıra changed (vs Sıra)", got[0].Title)
	// A moved, D lost its rank; B and C kept theirs.
	assert.Equal(t, "2 of 4 rows", got[0].Value.String())
}

func TestBadgeCoverageAndRowCounts(t *testing.T) {
	res := changeMenu(t)

	badge := byAnalysis(res, BadgeCoverage)
	require.Len(t, badge, 1)
	assert.Equal(t, "Rows without Güncel Badge", badge[0].Title)
	assert.Equal(t, "2 of 4 rows (50.0%)", badge[0].Value.String())

	rows := byAnalysis(res, RowCounts)
	require.Len(t, rows, 1)
	assert.Equal(t, "Row count (menu vs kosuyolu)", rows[0].Title)
	assert.Equal(t, "4 vs 2", rows[0].Value.String())

	_, ok := skipped(run(sampleMenu(t), DefaultOptions()), RowCounts)
	assert.True(t, ok)
}

func TestCategoryDetailTopGroups(t *testing.T) {
	got := byAnalysis(run(sampleMenu(t), DefaultOptions()), CategoryDetail)
	require.Len(t, got, 3)
	assert.Equal(t, "Kategori: İçecek", got[0].Title)
	assert.Equal(t, "2 rows, avg Fiyat 57.75, avg Görüntüleme 310", got[0].Value.String())
	assert.Equal(t, "Kategori: Fırın", got[1].Title)

	opt := DefaultOptions()
	opt.TopN = 1
	got = byAnalysis(run(mustTable(t, "m", col("Kategori", "x", "y", "y")), opt), CategoryDetail)
	require.Len(t, got, 1)
	assert.Equal(t, "Kategori: y", got[0].Title)
	assert.Equal(t, "2 rows", got[0].Value.String())
}

func TestRecommendations(t *testing.T) {
	got := byAnalysis(run(sampleMenu(t), DefaultOptions()), Recommendations)
	require.Len(t, got, 3)
	assert.Equal(t, "Priority 1", got[0].Title)
	assert.Equal(t, "Fill in Foto Durumu for 3 rows", got[0].Value.String())
	assert.Equal(t, "Promote 1 expensive rows with low Görüntüleme: Kek", got[1].Value.String())
	assert.Equal(t, "Add more rows to Kategori İçecek, the best by Görüntüleme", got[2].Value.String())

	got = byAnalysis(changeMenu(t), Recommendations)
	require.Len(t, got, 1)
	assert.Equal(t, "Add Güncel Badge to the 2 rows without one", got[0].Value.String())

	_, ok := skipped(run(mustTable(t, "m", col("Ürün", "a")), DefaultOptions()), Recommendations)
	assert.True(t, ok)
}

func TestStripMarker(t *testing.T) {
	base, ok := stripMarker("Güncel  Fiyat", []string{"güncel"})
	assert.True(t, ok)
	assert.Equal(t, "fiyat", base)
	base, ok = stripMarker("Fiyat", []string{"önceki"})
	assert.False(t, ok)
	assert.Equal(t, "fiyat", base)
}
