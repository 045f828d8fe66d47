package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/clipscout/internal/domain/extract"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/vision"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"
)

// Defaults for highlight calls.
const (
	DefaultHighlightTemperature = 0.3
	DefaultHighlightMaxTokens   = 1000
)

const highlightsKey = "highlights"

const highlightInstructions = `Identify between 3 and 5 notable moments in this footage.
Respond with a single JSON object and nothing else:
{
  "highlights": [
    {"timestamp": "mm:ss", "description": "what happens", "quality": "excellent | good | needs_work"}
  ]
}`

// HighlightRequester asks the inference service for notable moments. With a
// nil service it returns an empty list, highlights being optional enrichment.
type HighlightRequester struct {
	callConfig
}

// NewHighlightRequester creates a highlight requester.
func NewHighlightRequester(svc vision.Service, opts ...Option) *HighlightRequester {
	return &HighlightRequester{callConfig: newCallConfig(svc, DefaultHighlightTemperature, DefaultHighlightMaxTokens, opts)}
}

// RequestHighlights returns at most model.MaxHighlights entries. Service
// errors propagate; unparseable replies give an empty list.
func (h *HighlightRequester) RequestHighlights(ctx context.Context, clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext, mode model.EvaluationMode) ([]model.Highlight, error) {
	const op = "highlights.request"

	if !mode.Valid() {
		return nil, model.NewKind(op, model.ErrInvalidRequest, fmt.Sprintf("unsupported evaluation mode %q", mode))
	}
	if h.service == nil {
		h.logger.Debug(ctx, "no inference service, skipping highlights")
		return []model.Highlight{}, nil
	}

	frames = capFrames(frames)
	raw, err := h.service.Complete(ctx, h.request(PurposeHighlights, highlightPrompt(clip, frames, subject, mode), frames))
	if err != nil {
		return nil, classify(op, err)
	}

	res := extract.List(raw, highlightsKey)
	metrics.RecordExtractionStrategy(PurposeHighlights, res.Strategy)
	out := shapeHighlights(res.Items)
	metrics.RecordHighlightsExtracted(len(out))
	h.logger.Debug(ctx, "highlights shaped",
		logger.String("strategy", res.Strategy),
		logger.Int("candidates", len(res.Items)),
		logger.Int("kept", len(out)),
	)
	return out, nil
}

func highlightPrompt(clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext, mode model.EvaluationMode) string {
	var b strings.Builder
	writeContext(&b, clip, frames, subject)
	if mode == model.ModePractice {
		b.WriteString("The footage is a practice session.\n\n")
	} else {
		b.WriteString("The footage is from a competitive match.\n\n")
	}
	b.WriteString(highlightInstructions)
	return b.String()
}

// shapeHighlights keeps object entries that carry a description.
func shapeHighlights(items []any) []model.Highlight {
	out := make([]model.Highlight, 0, model.MaxHighlights)
	for _, item := range items {
		if len(out) == model.MaxHighlights {
			break
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		desc, ok := textValue(obj["description"])
		if !ok {
			continue
		}
		hl := model.Highlight{Description: desc}
		hl.TimeMark = timeMark(obj["timestamp"])
		hl.QualityTag, _ = textValue(obj["quality"])
		out = append(out, hl)
	}
	return out
}

// timeMark keeps string marks as given and renders numeric seconds as mm:ss.
func timeMark(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t >= 0 {
			return mmss(t)
		}
	}
	return ""
}
