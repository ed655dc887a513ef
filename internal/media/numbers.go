package media

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// toNumber coerces JSON-ish scalars into a finite float. Booleans and empty
// strings are not numbers.
func toNumber(value any) (float64, bool) {
	var num float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		num = v
	case float32:
		num = float64(v)
	case int:
		num = float64(v)
	case int32:
		num = float64(v)
	case int64:
		num = float64(v)
	case uint:
		num = float64(v)
	case uint32:
		num = float64(v)
	case uint64:
		num = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		num = parsed
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		num = parsed
	default:
		return 0, false
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

// ToPositiveNumber parses a strictly positive number. Strings of the form
// "W/H" are read as a ratio from their first two segments. The second result
// is false when value is missing, unparseable or not positive, in which case
// callers apply their own fallback.
func ToPositiveNumber(value any) (float64, bool) {
	if s, ok := value.(string); ok && strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		num, okNum := toNumber(parts[0])
		den, okDen := toNumber(parts[1])
		if okNum && okDen && den != 0 {
			if ratio := num / den; ratio > 0 && !math.IsInf(ratio, 0) {
				return ratio, true
			}
		}
		return 0, false
	}
	num, ok := toNumber(value)
	if !ok || num <= 0 {
		return 0, false
	}
	return num, true
}

// PositiveOr returns the parsed positive number or fallback.
func PositiveOr(value any, fallback float64) float64 {
	if num, ok := ToPositiveNumber(value); ok {
		return num
	}
	return fallback
}

// ToClamped01 parses value and clamps it to [0,1]. A nil value means unset
// and reports false rather than zero.
func ToClamped01(value any) (float64, bool) {
	num, ok := toNumber(value)
	if !ok {
		return 0, false
	}
	return clamp01(num), true
}

// Clamped01Or returns the clamped value or fallback when value is unset.
func Clamped01Or(value any, fallback float64) float64 {
	if num, ok := ToClamped01(value); ok {
		return num
	}
	return fallback
}

func clamp01(num float64) float64 {
	if num <= 0 {
		return 0
	}
	if num >= 1 {
		return 1
	}
	return num
}

// FormatNumber renders num with at most four decimals and no trailing zeros.
func FormatNumber(num float64) string {
	out := strconv.FormatFloat(num, 'f', 4, 64)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	if out == "-0" {
		return "0"
	}
	return out
}

// FormatPercent renders a [0,1] fraction as a CSS percentage.
func FormatPercent(fraction float64) string {
	return FormatNumber(fraction*100) + "%"
}

func formatRatio(num float64) string {
	return strconv.FormatFloat(num, 'f', -1, 64)
}
