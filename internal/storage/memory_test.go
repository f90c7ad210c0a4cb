package storage

import (
	"context"
	"testing"

	"axoscope/internal/model"
)

func testRun(id, createdAt string) model.ExtractionRun {
	return model.ExtractionRun{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		ModelName:       "mlp",
		CreatedAtUTC:    createdAt,
		Rows:            2,
		Taps:            []string{"0", "2"},
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := testRun("run-1", "2026-01-02T03:04:05Z")
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}

	output, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if output.ID != "run-1" || output.ModelName != "mlp" || len(output.Taps) != 2 {
		t.Fatalf("unexpected run: %+v", output)
	}
}

func TestMemoryStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_, ok, err := store.GetRun(ctx, "missing")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatal("expected run to be absent")
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, testRun("run-old", "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("run-new", "2026-01-03T00:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("run-mid", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-new" || runs[1].ID != "run-mid" || runs[2].ID != "run-old" {
		t.Fatalf("unexpected order: %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestMemoryStoreFeaturesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.FeatureRecord{
		{
			VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
			RunID:           "run-1",
			RowIndex:        0,
			TapIndex:        0,
			Tap:             "0",
			Values:          []float64{1, 2},
		},
		{
			VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
			RunID:           "run-1",
			RowIndex:        0,
			TapIndex:        1,
			Tap:             "2",
		},
	}
	if err := store.SaveFeatures(ctx, "run-1", input); err != nil {
		t.Fatalf("save features: %v", err)
	}

	output, ok, err := store.GetFeatures(ctx, "run-1")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted features")
	}
	if len(output) != 2 || output[0].Values[1] != 2 {
		t.Fatalf("unexpected features: %+v", output)
	}
	if output[1].Values != nil {
		t.Fatalf("expected nil values for skipped tap, got %v", output[1].Values)
	}
}

func TestMemoryStoreFeatureCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.FeatureRecord{{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-1",
		Tap:             "0",
		Values:          []float64{1},
	}}
	if err := store.SaveFeatures(ctx, "run-1", input); err != nil {
		t.Fatalf("save features: %v", err)
	}
	input[0].Tap = "mutated"

	output, _, err := store.GetFeatures(ctx, "run-1")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if output[0].Tap != "0" {
		t.Fatalf("store shared caller slice: %+v", output[0])
	}
}
