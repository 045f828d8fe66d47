// Package publisher announces completed analyses to downstream consumers.
package publisher

import (
	"context"

	"github.com/okian/clipscout/internal/domain/model"
)

// Publisher announces a completed analysis. Failures are reported to the
// caller, who decides whether they matter; the analysis is already stored.
type Publisher interface {
	PublishCompleted(ctx context.Context, owner string, record *model.AnalysisRecord) error
}

// Nop discards every notification.
type Nop struct{}

// PublishCompleted implements Publisher.
func (Nop) PublishCompleted(context.Context, string, *model.AnalysisRecord) error { return nil }
