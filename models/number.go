package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric field parsed from text. Valid is false when the source
// value was missing, unparseable or non-finite; such values are excluded from
// aggregates instead of being read as zero.
type Number struct {
	Value float64
	Valid bool
}

// Num wraps v, marking it invalid when it is NaN or infinite.
func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Get returns the value and whether it is usable.
func (n Number) Get() (float64, bool) {
	return n.Value, n.Valid
}

// ParseNumber coerces a loader value (string, numeric, []byte or nil) to a Number.
func ParseNumber(v any) Number {
	switch x := v.(type) {
	case nil:
		return Number{}
	case Number:
		return x
	case float64:
		return Num(x)
	case float32:
		return Num(float64(x))
	case int:
		return Num(float64(x))
	case int32:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Number{}
		}
		return Num(f)
	case []byte:
		return parseNumberString(string(x))
	case string:
		return parseNumberString(x)
	}
	return Number{}
}

func parseNumberString(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(f)
}

// MarshalJSON writes invalid numbers as null so no NaN reaches a renderer.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = ParseNumber(v)
	return nil
}

// Scan implements sql.Scanner so nullable REAL/NUMERIC columns scan directly.
func (n *Number) Scan(src any) error {
	*n = ParseNumber(src)
	return nil
}
