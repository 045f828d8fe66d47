package model

import (
	"strconv"
	"strings"
)

// EvaluationMode selects the scoring schema for a request.
type EvaluationMode string

// Supported evaluation modes.
const (
	ModeCompetitive EvaluationMode = "competitive"
	ModePractice    EvaluationMode = "practice"
)

// Modes lists every supported mode.
func Modes() []EvaluationMode {
	return []EvaluationMode{ModeCompetitive, ModePractice}
}

// Valid reports whether m is one of the supported modes.
func (m EvaluationMode) Valid() bool {
	return m == ModeCompetitive || m == ModePractice
}

func (m EvaluationMode) String() string { return string(m) }

// ParseEvaluationMode maps user input to a mode. "match" and "training" are
// accepted as aliases.
func ParseEvaluationMode(s string) (EvaluationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "competitive", "match":
		return ModeCompetitive, nil
	case "practice", "training":
		return ModePractice, nil
	default:
		return "", NewKind("mode.parse", ErrInvalidRequest, "unknown evaluation mode "+strconv.Quote(s))
	}
}
