package storage

import (
	"context"
	"sort"
	"sync"

	"axoscope/internal/model"
)

type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]model.ExtractionRun
	features map[string][]model.FeatureRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.ExtractionRun)
	s.features = make(map[string][]model.FeatureRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.ExtractionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.ExtractionRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.ExtractionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ExtractionRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	return out, nil
}

func (s *MemoryStore) SaveFeatures(_ context.Context, runID string, records []model.FeatureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.FeatureRecord, len(records))
	copy(copied, records)
	s.features[runID] = copied
	return nil
}

func (s *MemoryStore) GetFeatures(_ context.Context, runID string) ([]model.FeatureRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.features[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.FeatureRecord, len(records))
	copy(copied, records)
	return copied, true, nil
}
