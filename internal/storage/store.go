package storage

import (
	"context"

	"axoscope/internal/model"
)

// Store persists extraction runs and the feature records they produced.
// Models themselves are never persisted.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.ExtractionRun) error
	GetRun(ctx context.Context, id string) (model.ExtractionRun, bool, error)
	ListRuns(ctx context.Context) ([]model.ExtractionRun, error)
	SaveFeatures(ctx context.Context, runID string, records []model.FeatureRecord) error
	GetFeatures(ctx context.Context, runID string) ([]model.FeatureRecord, bool, error)
}
