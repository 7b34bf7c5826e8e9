package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/KaramelBytes/insightloom/internal/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is the semantic role of a column, inferred from its name.
type Role int

const (
	RoleUnknown Role = iota
	RolePrice
	RoleMetric
	RoleCategory
	RoleName
	RoleDate
	RoleStatus
	RoleMeta
)

// Priority is the fixed order in which keyword groups are tested.
var Priority = []Role{RolePrice, RoleMetric, RoleCategory, RoleName, RoleDate, RoleStatus, RoleMeta}

var roleNames = map[Role]string{
	RoleUnknown:  "unknown",
	RolePrice:    "price",
	RoleMetric:   "metric",
	RoleCategory: "category",
	RoleName:     "name",
	RoleDate:     "date",
	RoleStatus:   "status",
	RoleMeta:     "meta",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRole maps a role name back to a Role.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// DefaultKeywords returns the keyword table per role.
func DefaultKeywords() map[Role][]string {
	return map[Role][]string{
		RolePrice:    {"fiyat", "price", "tutar", "amount", "cost"},
		RoleMetric:   {"görüntülenme", "görüntüleme", "view", "click", "tıklama", "sales", "adet", "quantity"},
		RoleCategory: {"kategori", "category", "grup", "type", "class"},
		RoleName:     {"ürün", "product", "name", "ad", "isim", "title"},
		RoleDate:     {"tarih", "date", "time", "created"},
		RoleStatus:   {"durum", "status", "state", "foto", "photo"},
		RoleMeta:     {"badge", "tag", "label", "note", "description"},
	}
}

// Classifier assigns roles by substring match over folded column names.
type Classifier struct {
	rules []rule
}

type rule struct {
	role     Role
	keywords []string
}

// NewClassifier builds a classifier. Roles missing from overrides keep their
// default keywords; priority order is fixed.
func NewClassifier(overrides map[Role][]string) *Classifier {
	kw := DefaultKeywords()
	for r, list := range overrides {
		if r == RoleUnknown || len(list) == 0 {
			continue
		}
		kw[r] = list
	}
	c := &Classifier{}
	for _, r := range Priority {
		folded := make([]string, 0, len(kw[r]))
		for _, k := range kw[r] {
			if k = Fold(k); k != "" {
				folded = append(folded, k)
			}
		}
		c.rules = append(c.rules, rule{role: r, keywords: folded})
	}
	return c
}

var defaultClassifier = NewClassifier(nil)

// Classify assigns a role with the default keyword table.
func Classify(name string) Role { return defaultClassifier.Classify(name) }

// Classify returns the first role whose keyword group matches name.
func (c *Classifier) Classify(name string) Role {
	r, _ := c.Explain(name)
	return r
}

// Explain is Classify plus the keyword that decided the role.
func (c *Classifier) Explain(name string) (Role, string) {
	f := Fold(name)
	for _, rl := range c.rules {
		for _, k := range rl.keywords {
			if strings.Contains(f, k) {
				return rl.role, k
			}
		}
	}
	return RoleUnknown, ""
}

// RoleMap holds one role per column position of a table.
type RoleMap []Role

// ClassifyTable classifies every column of t with the default keyword table.
func ClassifyTable(t *table.Table) RoleMap { return defaultClassifier.ClassifyTable(t) }

// ClassifyTable classifies every column of t.
func (c *Classifier) ClassifyTable(t *table.Table) RoleMap {
	out := make(RoleMap, t.Width())
	for i, col := range t.Columns {
		out[i] = c.Classify(col.Name)
	}
	return out
}

// First returns the position of the first column with role r, or -1.
func (m RoleMap) First(r Role) int {
	for i, got := range m {
		if got == r {
			return i
		}
	}
	return -1
}

// All returns the positions of every column with role r.
func (m RoleMap) All(r Role) []int {
	var out []int
	for i, got := range m {
		if got == r {
			out = append(out, i)
		}
	}
	return out
}

// Fold lower-cases s, strips combining marks and maps dotless ı to i, so
// "GÖRÜNTÜLEME" and "görüntüleme" both become "goruntuleme".
func Fold(s string) string {
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.ReplaceAll(out, "ı", "i")
}
