package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/table"
)

// ColumnProfile captures the inferred type, role and basic statistics of a column.
type ColumnProfile struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Kind    string `json:"kind"` // numeric|datetime|categorical|text|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
	Sample    string          `json:"sample"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile infers a kind for every column by the predominant parsed type of its
// non-missing cells and attaches the role c assigns to the column name.
func Profile(t *table.Table, c *Classifier) []ColumnProfile {
	if c == nil {
		c = defaultClassifier
	}
	out := make([]ColumnProfile, 0, t.Width())
	for _, col := range t.Columns {
		out = append(out, profileColumn(col, c.Classify(col.Name)))
	}
	return out
}

func profileColumn(col *table.Column, role Role) ColumnProfile {
	p := ColumnProfile{Name: col.Name, Role: role.String()}
	var (
		n, numCnt, dtCnt, txtCnt int
		mean, m2                 float64
		lo, hi                   = math.Inf(1), math.Inf(-1)
		cats                     = map[string]int{}
	)
	for _, v := range col.Values {
		if v.IsMissing() {
			p.Missing++
			continue
		}
		p.NonNull++
		if p.Sample == "" {
			p.Sample = strings.TrimSpace(v.String())
		}
		if x, ok := v.Float(); ok {
			numCnt++
			// Welford update
			n++
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
			d := x - mean
			mean += d / float64(n)
			m2 += d * (x - mean)
			continue
		}
		s := strings.TrimSpace(v.Text)
		if _, ok := table.ParseTime(s); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(cats) <= 10000 && len(s) <= 64 {
			cats[s]++
		}
	}
	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		p.Kind = "numeric"
		p.Min, p.Max, p.Mean = lo, hi, mean
		if n > 1 {
			p.Std = math.Sqrt(m2 / float64(n-1))
		}
	case dtCnt > 0 && dtCnt >= txtCnt:
		p.Kind = "datetime"
	case len(cats) > 0 && len(cats) <= max(1, p.NonNull/2):
		p.Kind = "categorical"
		p.Unique = len(cats)
		p.TopValues = topValues(cats, 5)
	case txtCnt > 0:
		p.Kind = "text"
		p.Unique = len(cats)
	default:
		p.Kind = "empty"
	}
	return p
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}
