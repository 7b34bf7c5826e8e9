package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/table"
)

func (f *frame) hasMarker(col int, markers []string) bool {
	_, ok := stripMarker(f.t.Columns[col].Name, markers)
	return ok
}

// stripMarker folds name and removes the first marker it contains, so that
// "Güncel Fiyat" and "Fiyat" share the base "fiyat".
func stripMarker(name string, markers []string) (string, bool) {
	folded := Fold(name)
	for _, m := range markers {
		if m = Fold(m); m != "" && strings.Contains(folded, m) {
			return strings.Join(strings.Fields(strings.Replace(folded, m, " ", 1)), " "), true
		}
	}
	return strings.Join(strings.Fields(folded), " "), false
}

type columnPair struct{ prev, cur int }

// markerPairs pairs each current-marked column in cols with the first other
// column of the same base name that is not current-marked. The previous
// column may carry a previous marker or none at all.
func (a *Aggregator) markerPairs(f *frame, cols []int) []columnPair {
	var pairs []columnPair
	used := map[int]bool{}
	for _, cur := range cols {
		base, ok := stripMarker(f.t.Columns[cur].Name, a.Options.CurrentMarkers)
		if !ok || base == "" {
			continue
		}
		for _, prev := range cols {
			if prev == cur || used[prev] || f.hasMarker(prev, a.Options.CurrentMarkers) {
				continue
			}
			if pb, _ := stripMarker(f.t.Columns[prev].Name, a.Options.PreviousMarkers); pb == base {
				pairs = append(pairs, columnPair{prev: prev, cur: cur})
				used[prev] = true
				break
			}
		}
	}
	return pairs
}

func (a *Aggregator) priceChange(f *frame) ([]Insight, error) {
	pairs := a.markerPairs(f, f.roles.All(RolePrice))
	if len(pairs) == 0 {
		return nil, skipf("no previous/current price column pair")
	}
	p := pairs[0]
	var up, down, same int
	for row := 0; row < f.t.Rows(); row++ {
		before, ok1 := f.num(p.prev, row)
		after, ok2 := f.num(p.cur, row)
		if !ok1 || !ok2 {
			continue
		}
		switch {
		case after > before:
			up++
		case after < before:
			down++
		default:
			same++
		}
	}
	if up+down+same == 0 {
		return nil, skipf("no rows with both %q and %q", f.t.Columns[p.prev].Name, f.t.Columns[p.cur].Name)
	}
	return []Insight{{
		Analysis: PriceChange,
		Title:    fmt.Sprintf("Price changes (%s vs %s)", f.t.Columns[p.cur].Name, f.t.Columns[p.prev].Name),
		Value:    NumText(float64(up+down), fmt.Sprintf("%d increased, %d decreased, %d unchanged", up, down, same)),
	}}, nil
}

// sameValue treats two missing cells as equal and compares numbers by value.
func sameValue(x, y table.Value) bool {
	if x.IsMissing() || y.IsMissing() {
		return x.IsMissing() && y.IsMissing()
	}
	fx, ok1 := x.Float()
	fy, ok2 := y.Float()
	if ok1 && ok2 {
		return fx == fy
	}
	return strings.TrimSpace(x.String()) == strings.TrimSpace(y.String())
}

func (a *Aggregator) valueChange(f *frame) ([]Insight, error) {
	var cols []int
	for i, r := range f.roles {
		if r != RolePrice && r != RoleMetric {
			cols = append(cols, i)
		}
	}
	pairs := a.markerPairs(f, cols)
	if len(pairs) == 0 {
		return nil, skipf("no previous/current column pair besides price and metric")
	}
	total := f.t.Rows()
	out := make([]Insight, 0, len(pairs))
	for _, p := range pairs {
		changed := 0
		for row := 0; row < total; row++ {
			if !sameValue(f.t.Cell(row, p.prev), f.t.Cell(row, p.cur)) {
				changed++
			}
		}
		out = append(out, Insight{
			Analysis: ValueChange,
			Title:    fmt.Sprintf("%s changed (vs %s)", f.t.Columns[p.cur].Name, f.t.Columns[p.prev].Name),
			Value:    NumText(float64(changed), fmt.Sprintf("%d of %d rows", changed, total)),
		})
	}
	return out, nil
}

// coverageColumn prefers a current-marked coverage column, then any coverage
// column, then the first meta column.
func (a *Aggregator) coverageColumn(f *frame) int {
	first := -1
	for i := range f.t.Columns {
		if !f.hasMarker(i, a.Options.CoverageMarkers) {
			continue
		}
		if f.hasMarker(i, a.Options.CurrentMarkers) {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	if first >= 0 {
		return first
	}
	return f.roles.First(RoleMeta)
}

func countEmpty(t *table.Table, col int) int {
	n := 0
	for _, v := range t.Columns[col].Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

func (a *Aggregator) badgeCoverage(f *frame) ([]Insight, error) {
	col := a.coverageColumn(f)
	if col < 0 {
		return nil, skipf("no badge or meta column")
	}
	empty, total := countEmpty(f.t, col), f.t.Rows()
	return []Insight{{
		Analysis: BadgeCoverage,
		Title:    "Rows without " + f.t.Columns[col].Name,
		Value:    NumText(float64(empty), fmt.Sprintf("%d of %d rows (%.1f%%)", empty, total, float64(empty)*100/float64(total))),
	}}, nil
}

func (a *Aggregator) rowCounts(f *frame) ([]Insight, error) {
	if a.Compare == nil {
		return nil, skipf("no comparison table")
	}
	n, m := f.t.Rows(), a.Compare.Rows()
	return []Insight{{
		Analysis: RowCounts,
		Title:    fmt.Sprintf("Row count (%s vs %s)", f.t.Name, a.Compare.Name),
		Value:    NumText(float64(n), fmt.Sprintf("%d vs %d", n, m)),
	}}, nil
}

func (a *Aggregator) categoryDetail(f *frame) ([]Insight, error) {
	cat, err := f.require(RoleCategory)
	if err != nil {
		return nil, err
	}
	price := f.roles.First(RolePrice)
	metric := f.roles.First(RoleMetric)
	groups := f.groups(cat, price, metric)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].count > groups[j].count })
	if top := a.Options.TopN; top > 0 && len(groups) > top {
		groups = groups[:top]
	}
	out := make([]Insight, 0, len(groups))
	for _, g := range groups {
		s := fmt.Sprintf("%d rows", g.count)
		if p, ok := Mean(g.prices); ok {
			s += fmt.Sprintf(", avg %s %s", f.t.Columns[price].Name, FormatNumber(p))
		}
		if m, ok := Mean(g.metric); ok {
			s += fmt.Sprintf(", avg %s %s", f.t.Columns[metric].Name, FormatNumber(m))
		}
		out = append(out, Insight{
			Analysis: CategoryDetail,
			Title:    fmt.Sprintf("%s: %s", f.t.Columns[cat].Name, g.key),
			Value:    NumText(float64(g.count), s),
		})
	}
	return out, nil
}

// recommendations turns the table's gaps into a numbered action list.
func (a *Aggregator) recommendations(f *frame) ([]Insight, error) {
	var actions []string
	if status := f.roles.First(RoleStatus); status >= 0 {
		if missing, _ := CountMissing(f.t, status, a.Options.MissingTokens); missing > 0 {
			actions = append(actions, fmt.Sprintf("Fill in %s for %d rows", f.t.Columns[status].Name, missing))
		}
	}
	if col := a.coverageColumn(f); col >= 0 {
		if empty := countEmpty(f.t, col); empty > 0 {
			actions = append(actions, fmt.Sprintf("Add %s to the %d rows without one", f.t.Columns[col].Name, empty))
		}
	}
	price, metric := f.roles.First(RolePrice), f.roles.First(RoleMetric)
	if price >= 0 && metric >= 0 {
		if rows, _, _, err := f.expensiveRows(price, metric); err == nil {
			refs := a.topRows(f, rows, func(r int) float64 { v, _ := f.num(price, r); return v })
			actions = append(actions, fmt.Sprintf("Promote %d expensive rows with low %s: %s",
				len(rows), f.t.Columns[metric].Name, joinLabels(refs, func(r RowRef) string { return r.Label })))
		}
	}
	if cat := f.roles.First(RoleCategory); cat >= 0 && metric >= 0 {
		if best, _ := bestGroup(f.groups(cat, price, metric)); best != nil {
			actions = append(actions, fmt.Sprintf("Add more rows to %s %s, the best by %s",
				f.t.Columns[cat].Name, best.key, f.t.Columns[metric].Name))
		}
	}
	if len(actions) == 0 {
		return nil, skipf("nothing to recommend")
	}
	out := make([]Insight, len(actions))
	for i, s := range actions {
		out[i] = Insight{Analysis: Recommendations, Title: fmt.Sprintf("Priority %d", i+1), Value: Text(s)}
	}
	return out, nil
}
