package storage

import (
	"context"

	"neurodrive/internal/model"
)

// Store persists run history: run metadata, per-generation summaries,
// best-fitness history and lineage. Trained networks are not stored.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationSummary) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
	SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error
	GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error)
}
