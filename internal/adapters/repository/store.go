// Package repository persists composed analysis records per owner.
package repository

import (
	"context"

	"github.com/okian/clipscout/internal/domain/model"
)

// StoredAnalysis is one persisted analysis with the clip it was made from.
type StoredAnalysis struct {
	Owner  string               `json:"owner"`
	Clip   model.ClipReference  `json:"clip"`
	Record model.AnalysisRecord `json:"record"`
}

// Store provides create/read/list/delete access to analyses. Every read is
// scoped to an owner; another owner's record is reported as ErrNotFound.
type Store interface {
	// Save persists a new analysis.
	Save(ctx context.Context, a StoredAnalysis) error

	// Get returns one analysis of owner.
	Get(ctx context.Context, owner, id string) (StoredAnalysis, error)

	// List returns up to limit analyses of owner, newest first.
	List(ctx context.Context, owner string, limit int) ([]StoredAnalysis, error)

	// Delete removes one analysis of owner.
	Delete(ctx context.Context, owner, id string) error

	// Count returns the number of stored analyses across owners.
	Count(ctx context.Context) (int, error)
}
