package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NumberFormat pins the locale separators used when parsing numeric cells.
// A zero separator means auto-detect per value.
type NumberFormat struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ParseCell interprets a raw cell string as missing, number or text.
func ParseCell(raw string, nf NumberFormat) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if f, ok := ParseNumber(s, nf); ok {
		return Value{Kind: Number, Num: f, Text: raw}
	}
	return Value{Kind: Text, Text: raw}
}

// ParseNumber parses locale-formatted numbers such as "1.250,50", "1,250.50",
// "12 500" or "35%". Percent signs are stripped, not divided.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" || !looksNumeric(raw) {
		return 0, false
	}
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	switch {
	case dec != 0:
	case thou == '.':
		dec = ','
	case thou == ',':
		dec = '.'
	default:
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec = ','
		case cpos >= 0 && dpos < 0:
			dec = ','
		default:
			dec = '.'
		}
		if thou == 0 && cpos >= 0 && dpos >= 0 {
			if dec == ',' {
				thou = '.'
			} else {
				thou = ','
			}
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// looksNumeric rejects inputs strconv would accept but a spreadsheet user
// would not call a number ("NaN", "Inf", hex floats).
func looksNumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == ',', r == ' ', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return strings.ContainsAny(s, "0123456789")
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006", "02.01.2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"02.01.2006 15:04",
}

// ParseTime tries the common spreadsheet date layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
