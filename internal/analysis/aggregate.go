package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/table"
)

// Options controls the thresholds used by the aggregate analyses.
type Options struct {
	// TrendThreshold is the absolute percent change that marks a row as rising or falling.
	TrendThreshold float64
	// TopN caps the rows listed by trend and opportunity insights.
	TopN int
	// Tolerance is the percent band inside which two averages count as similar.
	Tolerance float64
	// PriceLow and PriceHigh split prices into budget, mid-range and premium.
	PriceLow  float64
	PriceHigh float64
	// MissingTokens are the status values that mean "missing".
	MissingTokens []string
	// PreviousMarkers and CurrentMarkers find the two period columns among
	// metric columns by folded substring.
	PreviousMarkers []string
	CurrentMarkers  []string
	// PreviousColumn and CurrentColumn name the period columns explicitly.
	PreviousColumn string
	CurrentColumn  string
	// CoverageMarkers pick the column whose empty cells badge_coverage counts.
	CoverageMarkers []string
	// Extended enables the analyses listed after the cross-table comparison.
	Extended bool
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		TrendThreshold:  20,
		TopN:            3,
		Tolerance:       5,
		PriceLow:        200,
		PriceHigh:       1000,
		MissingTokens:   []string{"Hayır", "No"},
		PreviousMarkers: []string{"önceki", "previous", "prev"},
		CurrentMarkers:  []string{"güncel", "current", "curr"},
		CoverageMarkers: []string{"badge", "rozet"},
		Extended:        true,
	}
}

// Analysis names, in display order.
const (
	TopMetric         = "top_metric"
	Profitability     = "profitability"
	CategoryRollup    = "category_rollup"
	PriceSegments     = "price_segments"
	Trend             = "trend"
	MissingStatus     = "missing_status"
	CrossTable        = "cross_table"
	PriceExtremes     = "price_extremes"
	ValueForMoney     = "value_for_money"
	HiddenOpportunity = "hidden_opportunity"
	ExpensiveUnseen   = "expensive_low_visibility"
	PriceChange       = "price_change"
	ValueChange       = "value_change"
	BadgeCoverage     = "badge_coverage"
	RowCounts         = "row_counts"
	CategoryDetail    = "category_detail"
	Recommendations   = "recommendations"
)

// Aggregator runs the fixed battery of analyses over a classified table.
type Aggregator struct {
	Options Options
	// Classifier classifies the comparison table; nil uses the default keywords.
	Classifier *Classifier
	// Compare enables the cross-table comparison.
	Compare *table.Table
}

// NewAggregator returns an Aggregator with opt.
func NewAggregator(opt Options) *Aggregator {
	return &Aggregator{Options: opt}
}

type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }

func skipf(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

type step struct {
	name     string
	extended bool
	run      func(a *Aggregator, f *frame) ([]Insight, error)
}

var steps = []step{
	{name: TopMetric, run: (*Aggregator).topMetric},
	{name: Profitability, run: (*Aggregator).profitability},
	{name: CategoryRollup, run: (*Aggregator).categoryRollup},
	{name: PriceSegments, run: (*Aggregator).priceSegments},
	{name: Trend, run: (*Aggregator).trend},
	{name: MissingStatus, run: (*Aggregator).missingStatus},
	{name: CrossTable, run: (*Aggregator).crossTable},
	{name: PriceExtremes, extended: true, run: (*Aggregator).priceExtremes},
	{name: ValueForMoney, extended: true, run: (*Aggregator).valueForMoney},
	{name: HiddenOpportunity, extended: true, run: (*Aggregator).hiddenOpportunity},
	{name: ExpensiveUnseen, extended: true, run: (*Aggregator).expensiveUnseen},
	{name: PriceChange, extended: true, run: (*Aggregator).priceChange},
	{name: ValueChange, extended: true, run: (*Aggregator).valueChange},
	{name: BadgeCoverage, extended: true, run: (*Aggregator).badgeCoverage},
	{name: RowCounts, extended: true, run: (*Aggregator).rowCounts},
	{name: CategoryDetail, extended: true, run: (*Aggregator).categoryDetail},
	{name: Recommendations, extended: true, run: (*Aggregator).recommendations},
}

// frame is the read-only view every analysis works on.
type frame struct {
	t     *table.Table
	roles RoleMap
	name  int
}

func (f *frame) num(col, row int) (float64, bool) {
	return f.t.Cell(row, col).Float()
}

func (f *frame) label(row int) string {
	if f.name < 0 {
		return fmt.Sprintf("row %d", row+1)
	}
	s := strings.TrimSpace(f.t.Cell(row, f.name).String())
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func (f *frame) ref(row int) RowRef { return RowRef{Index: row, Label: f.label(row)} }

func (f *frame) require(r Role) (int, error) {
	idx := f.roles.First(r)
	if idx < 0 {
		return -1, skipf("no %s column", r)
	}
	return idx, nil
}

// Aggregate runs every analysis against t. Analyses whose inputs are missing
// are recorded in Skipped; the rest keep the fixed display order.
func (a *Aggregator) Aggregate(t *table.Table, roles RoleMap) Result {
	var res Result
	f := &frame{t: t, roles: roles, name: roles.First(RoleName)}
	for _, s := range steps {
		if s.extended && !a.Options.Extended {
			continue
		}
		if t.Rows() == 0 {
			res.Skipped = append(res.Skipped, Skip{Analysis: s.name, Reason: "table has no rows"})
			continue
		}
		out, err := s.run(a, f)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Analysis: s.name, Reason: err.Error()})
			continue
		}
		res.Insights = append(res.Insights, out...)
	}
	return res
}

func (a *Aggregator) topMetric(f *frame) ([]Insight, error) {
	metric, err := f.require(RoleMetric)
	if err != nil {
		return nil, err
	}
	best, bestV := -1, 0.0
	for row := 0; row < f.t.Rows(); row++ {
		v, ok := f.num(metric, row)
		if !ok {
			continue
		}
		if best < 0 || v > bestV {
			best, bestV = row, v
		}
	}
	if best < 0 {
		return nil, skipf("no numeric values in %q", f.t.Columns[metric].Name)
	}
	return []Insight{{
		Analysis: TopMetric,
		Title:    "Top by " + f.t.Columns[metric].Name,
		Value:    Text(fmt.Sprintf("%s (%s)", f.label(best), FormatNumber(bestV))),
		Rows:     []RowRef{f.ref(best)},
	}}, nil
}

func (a *Aggregator) profitability(f *frame) ([]Insight, error) {
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	metric, err := f.require(RoleMetric)
	if err != nil {
		return nil, err
	}
	best, bestV := -1, 0.0
	for row := 0; row < f.t.Rows(); row++ {
		p, ok := f.num(price, row)
		if !ok {
			continue
		}
		m, _ := f.num(metric, row)
		score := p * m
		if best < 0 || score > bestV {
			best, bestV = row, score
		}
	}
	if best < 0 {
		return nil, skipf("no numeric values in %q", f.t.Columns[price].Name)
	}
	return []Insight{{
		Analysis: Profitability,
		Title:    "Highest revenue potential (price × " + f.t.Columns[metric].Name + ")",
		Value:    Text(fmt.Sprintf("%s (score %s)", f.label(best), FormatNumber(bestV))),
		Rows:     []RowRef{f.ref(best)},
	}}, nil
}

// groupKey compares category cells by exact value; missing cells form
// their own group even when a cell literally reads "(missing)".
type groupKey struct {
	missing bool
	text    string
}

type group struct {
	key    string
	count  int
	prices []float64
	metric []float64
}

// groups splits rows by the value of cat in first-occurrence order.
func (f *frame) groups(cat, price, metric int) []*group {
	var groups []*group
	index := map[groupKey]*group{}
	for row := 0; row < f.t.Rows(); row++ {
		v := f.t.Cell(row, cat)
		k := groupKey{missing: v.IsMissing()}
		label := "(missing)"
		if !k.missing {
			k.text = v.String()
			label = k.text
		}
		g := index[k]
		if g == nil {
			g = &group{key: label}
			index[k] = g
			groups = append(groups, g)
		}
		g.count++
		if p, ok := f.num(price, row); ok {
			g.prices = append(g.prices, p)
		}
		if m, ok := f.num(metric, row); ok {
			g.metric = append(g.metric, m)
		}
	}
	return groups
}

// bestGroup returns the group with the highest mean metric, first on ties.
func bestGroup(groups []*group) (*group, float64) {
	var best *group
	var bestM float64
	for _, g := range groups {
		if m, ok := Mean(g.metric); ok && (best == nil || m > bestM) {
			best, bestM = g, m
		}
	}
	return best, bestM
}

func (a *Aggregator) categoryRollup(f *frame) ([]Insight, error) {
	cat, err := f.require(RoleCategory)
	if err != nil {
		return nil, err
	}
	price := f.roles.First(RolePrice)
	metric := f.roles.First(RoleMetric)
	groups := f.groups(cat, price, metric)

	largest := groups[0]
	for _, g := range groups[1:] {
		if g.count > largest.count {
			largest = g
		}
	}
	out := []Insight{{
		Analysis: CategoryRollup,
		Title:    fmt.Sprintf("Largest %s", f.t.Columns[cat].Name),
		Value:    NumText(float64(largest.count), fmt.Sprintf("%s (%d of %d rows, %d groups)", largest.key, largest.count, f.t.Rows(), len(groups))),
	}}

	// On ties best keeps the first group and worst the last, so the two
	// differ whenever more than one group has a metric mean.
	var best, worst *group
	var bestM, worstM float64
	measured := 0
	for _, g := range groups {
		m, ok := Mean(g.metric)
		if !ok {
			continue
		}
		measured++
		if best == nil || m > bestM {
			best, bestM = g, m
		}
		if worst == nil || m <= worstM {
			worst, worstM = g, m
		}
	}
	if best == nil {
		return out, nil
	}
	describe := func(g *group, m float64) string {
		s := fmt.Sprintf("%s (avg %s %s", g.key, f.t.Columns[metric].Name, FormatNumber(m))
		if p, ok := Mean(g.prices); ok {
			s += fmt.Sprintf(", avg %s %s", f.t.Columns[price].Name, FormatNumber(p))
		}
		return s + fmt.Sprintf(", %d rows)", g.count)
	}
	out = append(out, Insight{
		Analysis: CategoryRollup,
		Title:    fmt.Sprintf("Best %s by %s", f.t.Columns[cat].Name, f.t.Columns[metric].Name),
		Value:    NumText(bestM, describe(best, bestM)),
	})
	if measured > 1 {
		out = append(out, Insight{
			Analysis: CategoryRollup,
			Title:    fmt.Sprintf("Weakest %s by %s", f.t.Columns[cat].Name, f.t.Columns[metric].Name),
			Value:    NumText(worstM, describe(worst, worstM)),
		})
	}
	return out, nil
}

func (a *Aggregator) priceSegments(f *frame) ([]Insight, error) {
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	lo, hi := a.Options.PriceLow, a.Options.PriceHigh
	if hi < lo {
		return nil, skipf("price bands are inverted (%s > %s)", FormatNumber(lo), FormatNumber(hi))
	}
	counts := map[string]int{}
	total := 0
	for _, p := range numbers(f.t, price) {
		counts[PriceBand(p, lo, hi)]++
		total++
	}
	if total == 0 {
		return nil, skipf("no numeric values in %q", f.t.Columns[price].Name)
	}
	bands := []struct{ key, title string }{
		{BandBudget, fmt.Sprintf("Budget (< %s)", FormatNumber(lo))},
		{BandMid, fmt.Sprintf("Mid-range (%s-%s)", FormatNumber(lo), FormatNumber(hi))},
		{BandPremium, fmt.Sprintf("Premium (> %s)", FormatNumber(hi))},
	}
	out := make([]Insight, 0, len(bands))
	for _, b := range bands {
		n := counts[b.key]
		out = append(out, Insight{
			Analysis: PriceSegments,
			Title:    b.title,
			Value:    NumText(float64(n), fmt.Sprintf("%d rows (%.1f%%)", n, float64(n)*100/float64(total))),
		})
	}
	return out, nil
}

// periodColumns finds the previous and current metric columns.
func (a *Aggregator) periodColumns(f *frame) (prev, cur int, err error) {
	prev, cur = -1, -1
	if a.Options.PreviousColumn != "" || a.Options.CurrentColumn != "" {
		_, prev = f.t.Column(a.Options.PreviousColumn)
		_, cur = f.t.Column(a.Options.CurrentColumn)
		if prev < 0 || cur < 0 {
			return -1, -1, skipf("period columns %q/%q not found", a.Options.PreviousColumn, a.Options.CurrentColumn)
		}
		return prev, cur, nil
	}
	for _, col := range f.roles.All(RoleMetric) {
		if prev < 0 && f.hasMarker(col, a.Options.PreviousMarkers) {
			prev = col
			continue
		}
		if cur < 0 && f.hasMarker(col, a.Options.CurrentMarkers) {
			cur = col
		}
	}
	if prev < 0 || cur < 0 {
		return -1, -1, skipf("no previous/current metric column pair")
	}
	return prev, cur, nil
}

type delta struct {
	row int
	pct float64
}

func (a *Aggregator) trend(f *frame) ([]Insight, error) {
	prev, cur, err := a.periodColumns(f)
	if err != nil {
		return nil, err
	}
	if prev == cur {
		return nil, skipf("previous and current period are the same column")
	}
	var all []delta
	for row := 0; row < f.t.Rows(); row++ {
		p, ok1 := f.num(prev, row)
		c, ok2 := f.num(cur, row)
		if !ok1 || !ok2 {
			continue
		}
		all = append(all, delta{row: row, pct: TrendDelta(p, c)})
	}
	if len(all) == 0 {
		return nil, skipf("no rows with both %q and %q", f.t.Columns[prev].Name, f.t.Columns[cur].Name)
	}
	thr := a.Options.TrendThreshold
	var rising, falling []delta
	for _, d := range all {
		switch {
		case d.pct > thr:
			rising = append(rising, d)
		case d.pct < -thr:
			falling = append(falling, d)
		}
	}
	sort.SliceStable(rising, func(i, j int) bool { return rising[i].pct > rising[j].pct })
	sort.SliceStable(falling, func(i, j int) bool { return falling[i].pct < falling[j].pct })

	var out []Insight
	list := func(ds []delta, title string) {
		if len(ds) == 0 {
			return
		}
		n := len(ds)
		if top := a.Options.TopN; top > 0 && len(ds) > top {
			ds = ds[:top]
		}
		refs := make([]RowRef, len(ds))
		pct := map[int]float64{}
		for i, d := range ds {
			refs[i] = f.ref(d.row)
			pct[d.row] = d.pct
		}
		out = append(out, Insight{
			Analysis: Trend,
			Title:    fmt.Sprintf("%s (%d rows)", title, n),
			Value: NumText(float64(n), joinLabels(refs, func(r RowRef) string {
				return fmt.Sprintf("%s %s", r.Label, FormatPercent(pct[r.Index]))
			})),
			Rows: refs,
		})
	}
	list(rising, fmt.Sprintf("Rising more than %s%%", FormatNumber(thr)))
	list(falling, fmt.Sprintf("Falling more than %s%%", FormatNumber(thr)))

	sum := 0.0
	for _, d := range all {
		sum += d.pct
	}
	avg := sum / float64(len(all))
	out = append(out, Insight{
		Analysis: Trend,
		Title:    fmt.Sprintf("Average trend (%s vs %s)", f.t.Columns[cur].Name, f.t.Columns[prev].Name),
		Value:    NumText(avg, FormatPercent(avg)),
	})
	return out, nil
}

// CountMissing counts rows of col whose trimmed value equals one of tokens.
// Every other row, including empty cells, counts as present.
func CountMissing(t *table.Table, col int, tokens []string) (missing, present int) {
	for row := 0; row < t.Rows(); row++ {
		if isMissingToken(t.Cell(row, col), tokens) {
			missing++
		}
	}
	return missing, t.Rows() - missing
}

func isMissingToken(v table.Value, tokens []string) bool {
	if v.IsMissing() {
		return false
	}
	s := strings.TrimSpace(v.String())
	for _, tok := range tokens {
		if s == strings.TrimSpace(tok) {
			return true
		}
	}
	return false
}

func (a *Aggregator) missingStatus(f *frame) ([]Insight, error) {
	status, err := f.require(RoleStatus)
	if err != nil {
		return nil, err
	}
	missing, _ := CountMissing(f.t, status, a.Options.MissingTokens)
	total := f.t.Rows()
	pct := float64(missing) * 100 / float64(total)
	return []Insight{{
		Analysis: MissingStatus,
		Title:    fmt.Sprintf("Missing %s", f.t.Columns[status].Name),
		Value:    NumText(float64(missing), fmt.Sprintf("%d of %d rows (%.1f%%)", missing, total, pct)),
	}}, nil
}

func (a *Aggregator) crossTable(f *frame) ([]Insight, error) {
	if a.Compare == nil {
		return nil, skipf("no comparison table")
	}
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	c := a.Classifier
	if c == nil {
		c = defaultClassifier
	}
	other := c.ClassifyTable(a.Compare).First(RolePrice)
	if other < 0 {
		return nil, skipf("comparison table %q has no price column", a.Compare.Name)
	}
	ma, ok := Mean(numbers(f.t, price))
	if !ok {
		return nil, skipf("no numeric values in %q", f.t.Columns[price].Name)
	}
	mb, ok := Mean(numbers(a.Compare, other))
	if !ok {
		return nil, skipf("no numeric values in %q of %q", a.Compare.Columns[other].Name, a.Compare.Name)
	}
	diff, ok := RelativeDiff(ma, mb)
	if !ok {
		return nil, skipf("comparison average is zero")
	}
	label := CompareLabel(diff, a.Options.Tolerance)
	return []Insight{{
		Analysis: CrossTable,
		Title:    fmt.Sprintf("Average %s vs %s", f.t.Columns[price].Name, a.Compare.Name),
		Value:    NumText(diff, fmt.Sprintf("%s (%s, %s vs %s)", label, FormatPercent(diff), FormatNumber(ma), FormatNumber(mb))),
	}}, nil
}

func (a *Aggregator) priceExtremes(f *frame) ([]Insight, error) {
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	hi, lo := -1, -1
	var hiV, loV float64
	for row := 0; row < f.t.Rows(); row++ {
		p, ok := f.num(price, row)
		if !ok {
			continue
		}
		if hi < 0 || p > hiV {
			hi, hiV = row, p
		}
		if lo < 0 || p < loV {
			lo, loV = row, p
		}
	}
	if hi < 0 {
		return nil, skipf("no numeric values in %q", f.t.Columns[price].Name)
	}
	avg, _ := Mean(numbers(f.t, price))
	name := f.t.Columns[price].Name
	return []Insight{
		{Analysis: PriceExtremes, Title: "Average " + name, Value: Num(avg)},
		{Analysis: PriceExtremes, Title: "Highest " + name, Value: NumText(hiV, fmt.Sprintf("%s (%s)", f.label(hi), FormatNumber(hiV))), Rows: []RowRef{f.ref(hi)}},
		{Analysis: PriceExtremes, Title: "Lowest " + name, Value: NumText(loV, fmt.Sprintf("%s (%s)", f.label(lo), FormatNumber(loV))), Rows: []RowRef{f.ref(lo)}},
	}, nil
}

func (a *Aggregator) valueForMoney(f *frame) ([]Insight, error) {
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	metric, err := f.require(RoleMetric)
	if err != nil {
		return nil, err
	}
	best, bestV := -1, 0.0
	for row := 0; row < f.t.Rows(); row++ {
		p, ok1 := f.num(price, row)
		m, ok2 := f.num(metric, row)
		if !ok1 || !ok2 || p == -1 {
			continue
		}
		score := m / (p + 1)
		if best < 0 || score > bestV {
			best, bestV = row, score
		}
	}
	if best < 0 {
		return nil, skipf("no rows with both price and metric")
	}
	return []Insight{{
		Analysis: ValueForMoney,
		Title:    fmt.Sprintf("Best value (%s per unit of %s)", f.t.Columns[metric].Name, f.t.Columns[price].Name),
		Value:    NumText(bestV, fmt.Sprintf("%s (%s)", f.label(best), FormatNumber(bestV))),
		Rows:     []RowRef{f.ref(best)},
	}}, nil
}

func (a *Aggregator) topRows(f *frame, rows []int, key func(int) float64) []RowRef {
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) > key(rows[j]) })
	if top := a.Options.TopN; top > 0 && len(rows) > top {
		rows = rows[:top]
	}
	refs := make([]RowRef, len(rows))
	for i, r := range rows {
		refs[i] = f.ref(r)
	}
	return refs
}

func (a *Aggregator) hiddenOpportunity(f *frame) ([]Insight, error) {
	status, err := f.require(RoleStatus)
	if err != nil {
		return nil, err
	}
	metric, err := f.require(RoleMetric)
	if err != nil {
		return nil, err
	}
	vals := numbers(f.t, metric)
	if len(vals) == 0 {
		return nil, skipf("no numeric values in %q", f.t.Columns[metric].Name)
	}
	cut := Quantile(vals, 0.7)
	var rows []int
	for row := 0; row < f.t.Rows(); row++ {
		m, ok := f.num(metric, row)
		if ok && m > cut && isMissingToken(f.t.Cell(row, status), a.Options.MissingTokens) {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, skipf("no popular rows with missing %s", f.t.Columns[status].Name)
	}
	n := len(rows)
	refs := a.topRows(f, rows, func(r int) float64 { v, _ := f.num(metric, r); return v })
	return []Insight{{
		Analysis: HiddenOpportunity,
		Title:    fmt.Sprintf("Popular rows with missing %s (top 30%% by %s)", f.t.Columns[status].Name, f.t.Columns[metric].Name),
		Value:    NumText(float64(n), fmt.Sprintf("%d rows: %s", n, joinLabels(refs, func(r RowRef) string { return r.Label }))),
		Rows:     refs,
	}}, nil
}

// expensiveRows lists rows priced above the 75th percentile whose metric is
// at or below the 25th.
func (f *frame) expensiveRows(price, metric int) (rows []int, pCut, mCut float64, err error) {
	prices, metrics := numbers(f.t, price), numbers(f.t, metric)
	if len(prices) == 0 || len(metrics) == 0 {
		return nil, 0, 0, skipf("no rows with both price and metric")
	}
	pCut, mCut = Quantile(prices, 0.75), Quantile(metrics, 0.25)
	for row := 0; row < f.t.Rows(); row++ {
		p, ok1 := f.num(price, row)
		m, ok2 := f.num(metric, row)
		if ok1 && ok2 && p > pCut && m <= mCut {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, 0, 0, skipf("no expensive rows with low %s", f.t.Columns[metric].Name)
	}
	return rows, pCut, mCut, nil
}

func (a *Aggregator) expensiveUnseen(f *frame) ([]Insight, error) {
	price, err := f.require(RolePrice)
	if err != nil {
		return nil, err
	}
	metric, err := f.require(RoleMetric)
	if err != nil {
		return nil, err
	}
	rows, pCut, mCut, err := f.expensiveRows(price, metric)
	if err != nil {
		return nil, err
	}
	n := len(rows)
	refs := a.topRows(f, rows, func(r int) float64 { v, _ := f.num(price, r); return v })
	return []Insight{{
		Analysis: ExpensiveUnseen,
		Title:    fmt.Sprintf("Expensive but rarely seen (%s > %s, %s <= %s)", f.t.Columns[price].Name, FormatNumber(pCut), f.t.Columns[metric].Name, FormatNumber(mCut)),
		Value:    NumText(float64(n), fmt.Sprintf("%d rows: %s", n, joinLabels(refs, func(r RowRef) string { return r.Label }))),
		Rows:     refs,
	}}, nil
}
