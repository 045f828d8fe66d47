// Package evaluation builds inference requests for clip evaluation and shapes
// the replies into structured records.
package evaluation

import (
	"fmt"
	"strings"

	"github.com/okian/clipscout/internal/domain/model"
)

// MaxReferences caps the frame references sent with one request.
const MaxReferences = 10

// Schema renders the instructions for one evaluation mode and shapes the
// salvaged reply into that mode's record. Implementations live in this
// package only.
type Schema interface {
	Mode() model.EvaluationMode
	Instructions(clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) string
	Shape(raw map[string]any) model.EvaluationRecord

	sealed()
}

// SchemaFor returns the schema for mode.
func SchemaFor(mode model.EvaluationMode) (Schema, error) {
	switch mode {
	case model.ModeCompetitive:
		return competitiveSchema{}, nil
	case model.ModePractice:
		return practiceSchema{}, nil
	default:
		return nil, model.NewKind("evaluation.schema", model.ErrInvalidRequest, fmt.Sprintf("unsupported evaluation mode %q", mode))
	}
}

// capFrames drops frames beyond MaxReferences.
func capFrames(frames []model.FrameSample) []model.FrameSample {
	if len(frames) > MaxReferences {
		return frames[:MaxReferences]
	}
	return frames
}

func references(frames []model.FrameSample) []string {
	refs := make([]string, len(frames))
	for i, f := range frames {
		refs[i] = f.Reference
	}
	return refs
}

// writeContext writes the subject and frame listing shared by every prompt.
func writeContext(b *strings.Builder, clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) {
	fmt.Fprintf(b, "Player: %s\nPosition: %s\nClip duration: %.0f seconds\n", subject.DisplayName, subject.Role, clip.DurationSeconds)
	fmt.Fprintf(b, "You are given %d frames sampled from the clip, in order:\n", len(frames))
	for i, f := range frames {
		fmt.Fprintf(b, "  frame %d at %s\n", i+1, mmss(f.OffsetSeconds))
	}
}

func mmss(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
