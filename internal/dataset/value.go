package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the string shapes recognized as temporal values, tried in
// order. Kept deliberately short; anything else is just a string.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// IsNull reports whether a cell is null. Only nil counts; empty strings are
// values.
func IsNull(v any) bool {
	return v == nil
}

// ToNumber coerces a cell to a float64. Numeric types convert directly;
// strings are parsed after trimming whitespace; booleans are 1/0. The second
// return is false when the value has no numeric reading.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case time.Time:
		return float64(n.UnixMilli()), true
	default:
		return 0, false
	}
}

// ToString coerces a cell to its display string. Floats drop a trailing
// ".0" so 25.0 renders as "25", matching how ingested integers print.
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// AsTime reports a temporal reading of a cell: time.Time values directly,
// strings through the recognized layouts. Numbers are not treated as
// timestamps; a bare 20060102 is more likely an id than an instant.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// CanonicalKey encodes a cell for value-equality comparison: equal values get
// equal keys regardless of representation (int 25 and float64 25.0 collide;
// string "25" does not). The type prefix keeps cross-type collisions out.
func CanonicalKey(v any) string {
	if v == nil {
		return "z:null"
	}
	switch c := v.(type) {
	case bool:
		return "b:" + strconv.FormatBool(c)
	case string:
		return "s:" + c
	case time.Time:
		return "t:" + c.UTC().Format(time.RFC3339Nano)
	default:
		if n, ok := ToNumber(v); ok {
			return "n:" + strconv.FormatFloat(n, 'g', -1, 64)
		}
		return "s:" + ToString(v)
	}
}
