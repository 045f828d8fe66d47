package evaluation

import (
	"strings"

	"github.com/okian/clipscout/internal/domain/model"
)

// Competitive record keys.
const (
	KeySummary              = "summary"
	KeyStrengths            = "strengths"
	KeyAreasForImprovement  = "areas_for_improvement"
	KeyPassCompletion       = "pass_completion"
	KeyFirstTouch           = "first_touch"
	KeySituationalAwareness = "situational_awareness"
	KeyDefensiveWork        = "defensive_work"
	KeyOverallGrade         = "overall_grade"
	KeyBreakdown            = "breakdown"
)

// SubScoreKeys are the 0-100 competitive metrics.
var SubScoreKeys = []string{KeyPassCompletion, KeyFirstTouch, KeySituationalAwareness, KeyDefensiveWork}

var breakdownKeys = []string{"technical", "tactical", "physical", "mental"}

const competitiveInstructions = `Evaluate the player's performance in this competitive match footage.
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "summary": "two or three sentence overview",
  "strengths": ["strength", "..."],
  "areas_for_improvement": ["area", "..."],
  "pass_completion": 0-100,
  "first_touch": 0-100,
  "situational_awareness": 0-100,
  "defensive_work": 0-100,
  "overall_grade": 0.0-10.0,
  "breakdown": {
    "technical": "commentary",
    "tactical": "commentary",
    "physical": "commentary",
    "mental": "commentary"
  }
}
Omit any metric you cannot judge from the frames instead of guessing.`

type competitiveSchema struct{}

func (competitiveSchema) sealed() {}

func (competitiveSchema) Mode() model.EvaluationMode { return model.ModeCompetitive }

func (competitiveSchema) Instructions(clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) string {
	var b strings.Builder
	writeContext(&b, clip, frames, subject)
	b.WriteString("\n")
	b.WriteString(competitiveInstructions)
	return b.String()
}

func (competitiveSchema) Shape(raw map[string]any) model.EvaluationRecord {
	rec := model.EvaluationRecord{}
	if s, ok := textValue(raw[KeySummary]); ok {
		rec[KeySummary] = s
	}
	for _, k := range []string{KeyStrengths, KeyAreasForImprovement} {
		if l, ok := textList(raw[k]); ok {
			rec[k] = l
		}
	}
	for _, k := range SubScoreKeys {
		if n, ok := numberValue(raw[k]); ok {
			rec[k] = clamp(n, 0, 100)
		}
	}
	if n, ok := numberValue(raw[KeyOverallGrade]); ok {
		rec[KeyOverallGrade] = roundTenth(clamp(n, 0, 10))
	}
	if obj, ok := raw[KeyBreakdown].(map[string]any); ok {
		bd := map[string]any{}
		for _, k := range breakdownKeys {
			if s, ok := textValue(obj[k]); ok {
				bd[k] = s
			}
		}
		if len(bd) > 0 {
			rec[KeyBreakdown] = bd
		}
	}
	return rec
}
