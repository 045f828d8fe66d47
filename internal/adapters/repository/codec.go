package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/clipscout/internal/domain/model"
)

// row is the storage shape of an analysis: scalar columns plus JSON
// documents for the schema-flexible parts.
type row struct {
	ID         string
	Owner      string
	Mode       string
	Locator    string
	Duration   float64
	Subject    []byte
	Evaluation []byte
	Highlights []byte
	CreatedAt  time.Time
}

func encodeRow(a StoredAnalysis) (row, error) {
	if a.Owner == "" || a.Record.ID == "" {
		return row{}, fmt.Errorf("%w: owner and id are required", ErrInvalidRecord)
	}
	eval := a.Record.Evaluation
	if eval == nil {
		eval = model.EvaluationRecord{}
	}
	highlights := a.Record.Highlights
	if highlights == nil {
		highlights = []model.Highlight{}
	}

	subject, err := json.Marshal(a.Record.Subject)
	if err != nil {
		return row{}, fmt.Errorf("encode subject: %w", err)
	}
	evalDoc, err := json.Marshal(eval)
	if err != nil {
		return row{}, fmt.Errorf("encode evaluation: %w", err)
	}
	hlDoc, err := json.Marshal(highlights)
	if err != nil {
		return row{}, fmt.Errorf("encode highlights: %w", err)
	}
	return row{
		ID:         a.Record.ID,
		Owner:      a.Owner,
		Mode:       a.Record.Mode.String(),
		Locator:    a.Clip.Locator,
		Duration:   a.Clip.DurationSeconds,
		Subject:    subject,
		Evaluation: evalDoc,
		Highlights: hlDoc,
		CreatedAt:  a.Record.CreatedAt.UTC(),
	}, nil
}

func decodeRow(r row) (StoredAnalysis, error) {
	a := StoredAnalysis{
		Owner: r.Owner,
		Clip:  model.ClipReference{Locator: r.Locator, DurationSeconds: r.Duration},
		Record: model.AnalysisRecord{
			ID:        r.ID,
			Mode:      model.EvaluationMode(r.Mode),
			CreatedAt: r.CreatedAt.UTC(),
		},
	}
	if err := json.Unmarshal(r.Subject, &a.Record.Subject); err != nil {
		return StoredAnalysis{}, fmt.Errorf("decode subject: %w", err)
	}
	if err := json.Unmarshal(r.Evaluation, &a.Record.Evaluation); err != nil {
		return StoredAnalysis{}, fmt.Errorf("decode evaluation: %w", err)
	}
	if err := json.Unmarshal(r.Highlights, &a.Record.Highlights); err != nil {
		return StoredAnalysis{}, fmt.Errorf("decode highlights: %w", err)
	}
	if a.Record.Evaluation == nil {
		a.Record.Evaluation = model.EvaluationRecord{}
	}
	if a.Record.Highlights == nil {
		a.Record.Highlights = []model.Highlight{}
	}
	return a, nil
}
