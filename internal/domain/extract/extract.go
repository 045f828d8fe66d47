// Package extract salvages JSON values from free-form model output.
//
// Model replies routinely wrap the requested JSON in code fences, preambles or
// trailing commentary. Extraction walks an ordered ladder of strategies and
// keeps the first candidate that decodes; it never fails, an empty result is
// the worst case.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Strategy names reported in results.
const (
	StrategyFenced = "fenced"
	StrategyDirect = "direct"
	StrategySpan   = "span"
	StrategyNone   = "none"
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")

// Strategy proposes a candidate substring of raw text to decode. open and
// close are the delimiters of the value being looked for.
type Strategy struct {
	Name      string
	Candidate func(raw string, open, close byte) (string, bool)
}

// Strategies returns the extraction ladder in the order it is applied.
func Strategies() []Strategy {
	return []Strategy{
		{Name: StrategyFenced, Candidate: fenced},
		{Name: StrategyDirect, Candidate: direct},
		{Name: StrategySpan, Candidate: span},
	}
}

// fenced returns the inner content of the first ``` block.
func fenced(raw string, _, _ byte) (string, bool) {
	m := fencePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	inner := strings.TrimSpace(m[1])
	return inner, inner != ""
}

// direct returns the whole text.
func direct(raw string, _, _ byte) (string, bool) {
	t := strings.TrimSpace(raw)
	return t, t != ""
}

// span returns the widest substring from the first open delimiter to the last
// close delimiter.
func span(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ObjectResult holds a salvaged JSON object.
type ObjectResult struct {
	Value    map[string]any
	Strategy string
}

// ListResult holds a salvaged JSON array.
type ListResult struct {
	Items    []any
	Strategy string
}

// Object extracts the first decodable JSON object from raw. Value is never nil.
func Object(raw string) ObjectResult {
	for _, s := range Strategies() {
		candidate, ok := s.Candidate(raw, '{', '}')
		if !ok {
			continue
		}
		if v, ok := decodeObject(candidate); ok {
			return ObjectResult{Value: v, Strategy: s.Name}
		}
	}
	return ObjectResult{Value: map[string]any{}, Strategy: StrategyNone}
}

// List extracts an array from raw. An object carrying the array under key is
// preferred; a bare top-level array is accepted as well.
func List(raw, key string) ListResult {
	obj := Object(raw)
	if items, ok := obj.Value[key].([]any); ok {
		return ListResult{Items: items, Strategy: obj.Strategy}
	}
	for _, s := range Strategies() {
		candidate, ok := s.Candidate(raw, '[', ']')
		if !ok {
			continue
		}
		if v, ok := decodeArray(candidate); ok {
			return ListResult{Items: v, Strategy: s.Name}
		}
	}
	return ListResult{Strategy: StrategyNone}
}

func decodeObject(text string) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(text), &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func decodeArray(text string) ([]any, bool) {
	var v []any
	if err := json.Unmarshal([]byte(text), &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}
