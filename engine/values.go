package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// CELL VALUES — parsing, normalization, comparison, formatting
// ============================================================================
// A cell holds nil (missing), float64, string, bool or time.Time. Every
// value entering the engine goes through normalizeCell first so integer
// literals from Go code and json.Number from decoders compare as float64.
// ============================================================================

// nullTokens are the spellings of a missing value in delimited files.
var nullTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "#n/a": true, "nan": true,
	"null": true, "none": true, "<na>": true, "nat": true,
}

// IsNullToken reports whether s spells a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses plain, thousands-separated and currency-prefixed numbers.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseBool accepts true/false, yes/no and 1/0, case-insensitively.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

// dateFormats are tried in order by ParseTime.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseTime parses the date and datetime layouts commonly found in exports.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeCell maps Go numeric types to float64 and NaN to nil.
func normalizeCell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return normalizeCell(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// ToFloat returns the numeric value of a cell, if it has one.
func ToFloat(v any) (float64, bool) {
	switch x := normalizeCell(v).(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// coerceForKind converts a string filter value toward the column's kind when
// it parses cleanly. For equality on text columns non-string scalars are
// compared by their display form so "2020" matches 2020.
func coerceForKind(kind ColumnKind, v any, equality bool) any {
	v = normalizeCell(v)
	switch x := v.(type) {
	case string:
		switch kind {
		case KindNumeric:
			if f, ok := ParseNumber(x); ok {
				return f
			}
		case KindDatetime:
			if t, ok := ParseTime(x); ok {
				return t
			}
		case KindBoolean:
			if b, ok := ParseBool(x); ok {
				return b
			}
		}
	case float64, bool:
		if equality && (kind == KindCategorical || kind == KindText) {
			return FormatValue(x)
		}
	}
	return v
}

// valuesEqual compares two normalized cells of the same dynamic type.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return false
}

// compareValues orders two normalized cells. ok is false when the types
// have no common ordering.
func compareValues(a, b any) (cmp int, ok bool) {
	switch x := a.(type) {
	case float64:
		y, isNum := b.(float64)
		if !isNum {
			return 0, false
		}
		return cmpOrdered(x, y), true
	case string:
		y, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		return cmpOrdered(boolRank(x), boolRank(y)), true
	}
	return 0, false
}

func cmpOrdered[T float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// groupKey returns a comparable map key for a normalized cell.
func groupKey(v any) any {
	if t, ok := v.(time.Time); ok {
		return timeKey(t.UnixNano())
	}
	return v
}

type timeKey int64

// ============================================================================
// FORMATTING
// ============================================================================

// FormatValue renders a cell for labels, CSV output and prompts.
func FormatValue(v any) string {
	switch x := normalizeCell(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// FormatFloat prints integers without a fraction and other values with up to
// four significant decimals.
func FormatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(RoundTo(f, 4), 'f', -1, 64)
}

// RoundTo rounds to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return FormatInt(n/1000) + "," + leftPad3(n%1000)
}

func leftPad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
