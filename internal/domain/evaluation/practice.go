package evaluation

import (
	"strings"

	"github.com/okian/clipscout/internal/domain/model"
)

// Practice record keys.
const (
	KeySessionSummary      = "session_summary"
	KeySkillFocus          = "skill_focus"
	KeyProficiencyLevel    = "proficiency_level"
	KeyTechnicalFeedback   = "technical_feedback"
	KeyImprovementTips     = "improvement_tips"
	KeyPracticeProgression = "practice_progression"
	KeyResources           = "resources"
)

// ProficiencyLevels is the closed set accepted for KeyProficiencyLevel.
var ProficiencyLevels = []string{"beginner", "intermediate", "advanced", "elite"}

const practiceInstructions = `Evaluate this individual practice session.
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "session_summary": "two or three sentence overview",
  "skill_focus": "the main skill being practiced",
  "proficiency_level": "beginner | intermediate | advanced | elite",
  "technical_feedback": "commentary on technique",
  "improvement_tips": ["tip", "..."],
  "practice_progression": ["next drill", "..."],
  "resources": ["title of a drill, video or article", "..."]
}
Omit any field you cannot judge from the frames instead of guessing.`

type practiceSchema struct{}

func (practiceSchema) sealed() {}

func (practiceSchema) Mode() model.EvaluationMode { return model.ModePractice }

func (practiceSchema) Instructions(clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) string {
	var b strings.Builder
	writeContext(&b, clip, frames, subject)
	b.WriteString("\n")
	b.WriteString(practiceInstructions)
	return b.String()
}

func (practiceSchema) Shape(raw map[string]any) model.EvaluationRecord {
	rec := model.EvaluationRecord{}
	for _, k := range []string{KeySessionSummary, KeySkillFocus, KeyTechnicalFeedback} {
		if s, ok := textValue(raw[k]); ok {
			rec[k] = s
		}
	}
	if s, ok := textValue(raw[KeyProficiencyLevel]); ok {
		if level, ok := proficiency(s); ok {
			rec[KeyProficiencyLevel] = level
		}
	}
	for _, k := range []string{KeyImprovementTips, KeyPracticeProgression} {
		if l, ok := textList(raw[k]); ok {
			rec[k] = l
		}
	}
	if l, ok := resourceTitles(raw[KeyResources]); ok {
		rec[KeyResources] = l
	}
	return rec
}

func proficiency(s string) (string, bool) {
	s = strings.ToLower(s)
	for _, level := range ProficiencyLevels {
		if s == level {
			return level, true
		}
	}
	return "", false
}

// resourceTitles accepts plain titles and objects carrying a "title".
func resourceTitles(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return textList(v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if s, ok := textValue(t); ok {
				out = append(out, s)
			}
		case map[string]any:
			if s, ok := textValue(t["title"]); ok {
				out = append(out, s)
			}
		}
	}
	return out, true
}
