package model

import (
	"time"
)

// MaxHighlights bounds the number of highlights kept on a record.
const MaxHighlights = 5

// EvaluationRecord is the mode-specific evaluation keyed by snake_case field
// names. A missing key means "unknown", never zero.
type EvaluationRecord map[string]any

// Has reports whether the key is present.
func (r EvaluationRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Number returns a numeric field.
func (r EvaluationRecord) Number(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Text returns a string field.
func (r EvaluationRecord) Text(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// Texts returns a list-of-strings field. Lists decoded from storage come back
// as []any and are converted.
func (r EvaluationRecord) Texts(key string) ([]string, bool) {
	switch v := r[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Keys returns the present field names in no particular order.
func (r EvaluationRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// Highlight is a notable moment in a clip. TimeMark is opaque text such as "01:23".
type Highlight struct {
	TimeMark    string `json:"timestamp"`
	Description string `json:"description"`
	QualityTag  string `json:"quality"`
}

// AnalysisRecord is the composed result of one analysis.
type AnalysisRecord struct {
	ID         string           `json:"id"`
	Mode       EvaluationMode   `json:"mode"`
	Subject    SubjectContext   `json:"subject"`
	Evaluation EvaluationRecord `json:"evaluation"`
	Highlights []Highlight      `json:"highlights"`
	CreatedAt  time.Time        `json:"created_at"`
}
