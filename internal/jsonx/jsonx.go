// Package jsonx provides JSON scalar types that tolerate the loose typing
// found in documents written by older application versions, where numbers
// may arrive as floats or strings and strings may arrive as numbers.
package jsonx

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Int64 is an int64 that unmarshals from a JSON number (integer or float,
// rounded half away from zero) or a numeric string. Anything else decodes
// to zero. It marshals as a plain JSON number.
type Int64 int64

func (n *Int64) UnmarshalJSON(data []byte) error {
	*n = Int64(CoerceInt64(json.RawMessage(data)))
	return nil
}

func (n Int64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(n), 10)), nil
}

// CoerceInt64 converts a raw JSON value to int64 using the same rules as
// Int64. Unparseable values coerce to zero.
func CoerceInt64(raw json.RawMessage) int64 {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return coerceInt64(v)
}

func coerceInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(math.Round(t))
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(math.Round(f))
		}
		return 0
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return int64(math.Round(f))
		}
		return 0
	default:
		return 0
	}
}

// String is a string that unmarshals from a JSON string, number or boolean.
// Nulls, objects and arrays decode to the empty string.
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	*s = String(CoerceString(json.RawMessage(data)))
	return nil
}

func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// CoerceString converts a raw JSON scalar to its string form. Numbers keep
// their JSON representation, booleans become "true"/"false", anything
// non-scalar becomes "".
func CoerceString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
