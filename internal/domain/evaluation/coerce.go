package evaluation

import (
	"math"
	"strconv"
	"strings"
)

// textValue accepts non-blank strings only.
func textValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// textList accepts a list of strings, skipping blanks and non-strings. A lone
// string is treated as a one-item list.
func textList(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		if s, ok := textValue(t); ok {
			return []string{s}, true
		}
		return nil, false
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := textValue(item); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// numberValue accepts JSON numbers and numeric strings such as "85" or "85%".
func numberValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
