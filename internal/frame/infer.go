package frame

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are the accepted layouts for time cells in string records.
var TimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
	"nat":  {},
}

// IsNullToken reports whether a raw string cell denotes a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// FromRecords builds a frame from a header and string rows (CSV or
// spreadsheet data). Each column becomes Numeric when every non-null cell
// parses as a float, Time when every non-null cell parses with TimeLayouts,
// and Text otherwise. A column with no values is Numeric. kinds forces the
// kind of named columns; cells that fail a forced parse become null.
func FromRecords(header []string, records [][]string, kinds map[string]Kind) (*Frame, error) {
	cols := make([]*Column, len(header))
	cells := make([]string, len(records))
	for j, name := range header {
		name = strings.TrimSpace(name)
		for i, rec := range records {
			if j < len(rec) {
				cells[i] = rec[j]
			} else {
				cells[i] = ""
			}
		}
		kind, forced := kinds[name]
		if !forced {
			kind = inferKind(cells)
		}
		col, err := parseColumn(name, kind, cells)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return build(len(records), cols)
}

func inferKind(cells []string) Kind {
	numeric, timed := true, true
	seen := false
	for _, s := range cells {
		if IsNullToken(s) {
			continue
		}
		seen = true
		s = strings.TrimSpace(s)
		if numeric {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				numeric = false
			}
		}
		if timed {
			if _, ok := parseTime(s); !ok {
				timed = false
			}
		}
		if !numeric && !timed {
			return Text
		}
	}
	switch {
	case !seen || numeric:
		return Numeric
	case timed:
		return Time
	default:
		return Text
	}
}

func parseColumn(name string, kind Kind, cells []string) (*Column, error) {
	switch kind {
	case Numeric:
		vals := make([]float64, len(cells))
		for i, s := range cells {
			vals[i] = math.NaN()
			if IsNullToken(s) {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				vals[i] = v
			}
		}
		return &Column{name: name, kind: Numeric, num: vals}, nil
	case Time:
		vals := make([]time.Time, len(cells))
		for i, s := range cells {
			if IsNullToken(s) {
				continue
			}
			if t, ok := parseTime(strings.TrimSpace(s)); ok {
				vals[i] = t
			}
		}
		return &Column{name: name, kind: Time, tm: vals}, nil
	case Text:
		vals := make([]string, len(cells))
		valid := make([]bool, len(cells))
		for i, s := range cells {
			if IsNullToken(s) {
				continue
			}
			vals[i] = s
			valid[i] = true
		}
		return &Column{name: name, kind: Text, str: vals, valid: valid}, nil
	default:
		return nil, fmt.Errorf("column %s: unsupported kind %d", name, kind)
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FromValues builds a column from driver values (database rows).
// The kind follows the Go type of the first non-nil value: numbers and bools
// are Numeric, time.Time is Time, anything else is Text. Pointers are
// dereferenced; nil values are nulls.
func FromValues(name string, values []any) *Column {
	kind := Numeric
	for _, v := range values {
		v = deref(v)
		if v == nil {
			continue
		}
		kind = kindOf(v)
		break
	}

	switch kind {
	case Time:
		vals := make([]time.Time, len(values))
		for i, v := range values {
			if t, ok := deref(v).(time.Time); ok {
				vals[i] = t
			}
		}
		return &Column{name: name, kind: Time, tm: vals}
	case Text:
		vals := make([]string, len(values))
		valid := make([]bool, len(values))
		for i, v := range values {
			v = deref(v)
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				vals[i] = s
			} else {
				vals[i] = fmt.Sprint(v)
			}
			valid[i] = true
		}
		return &Column{name: name, kind: Text, str: vals, valid: valid}
	default:
		vals := make([]float64, len(values))
		for i, v := range values {
			vals[i] = toFloat(deref(v))
		}
		return &Column{name: name, kind: Numeric, num: vals}
	}
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func kindOf(v any) Kind {
	switch v.(type) {
	case time.Time:
		return Time
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, bool:
		return Numeric
	default:
		return Text
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
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
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}
