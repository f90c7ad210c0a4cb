package axoscope

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"axoscope/internal/dataextract"
	"axoscope/internal/model"
	"axoscope/internal/probe"
	"axoscope/internal/stats"
	"axoscope/internal/storage"

	"github.com/google/uuid"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultDBPath       = "axoscope.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
}

type Client struct {
	store storage.Store

	storeKind    string
	artifactsDir string

	initialized bool
}

type ProbeRequest struct {
	ModelPath string
	Indices   []int
	Paths     []string
	Input     []float64
	Seed      int64
}

type ProbeSummary struct {
	ModelName string
	Taps      []string
	Output    []float64
	Captures  [][]float64
	Summaries []stats.TapSummary
}

type ExtractRequest struct {
	ModelPath string
	InputPath string
	Indices   []int
	Paths     []string
	Seed      int64
}

type ExtractSummary struct {
	RunID        string
	ModelName    string
	ArtifactsDir string
	Rows         int
	Taps         []string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	ModelName    string
	CreatedAtUTC string
	Rows         int
	Taps         int
}

type RunInfoRequest struct {
	RunID  string
	Latest bool
}

type RunInfo struct {
	RunID        string
	ModelName    string
	CreatedAtUTC string
	Rows         int
	Taps         []string
}

type FeaturesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type FeatureItem struct {
	RowIndex int
	TapIndex int
	Tap      string
	Values   []float64
}

type TapsRequest struct {
	ModelPath string
	Indices   []int
	Paths     []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		storeKind:    storeKind,
		artifactsDir: artifactsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Probe runs one input through an instrumented model and reports the output,
// the captures, and a per-tap summary. Nothing is persisted.
func (c *Client) Probe(_ context.Context, req ProbeRequest) (ProbeSummary, error) {
	if len(req.Input) == 0 {
		return ProbeSummary{}, errors.New("probe requires an input vector")
	}

	spec, instrumented, err := c.loadInstrumented(req.ModelPath, req.Indices, req.Paths)
	if err != nil {
		return ProbeSummary{}, err
	}

	out, captures, err := instrumented.Forward(req.Input, keyFromSeed(req.Seed))
	if err != nil {
		return ProbeSummary{}, err
	}

	taps := instrumented.TapNames()
	return ProbeSummary{
		ModelName: spec.Name,
		Taps:      taps,
		Output:    out,
		Captures:  captures,
		Summaries: stats.SummarizeAll(taps, captures),
	}, nil
}

// Extract runs a CSV dataset through an instrumented model, persists the run
// and its captured features, and writes the feature table plus per-tap
// summaries under the artifacts directory.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (ExtractSummary, error) {
	if req.InputPath == "" {
		return ExtractSummary{}, errors.New("extract requires an input csv path")
	}
	if err := c.Init(ctx); err != nil {
		return ExtractSummary{}, err
	}

	spec, instrumented, err := c.loadInstrumented(req.ModelPath, req.Indices, req.Paths)
	if err != nil {
		return ExtractSummary{}, err
	}

	inputFile, err := os.Open(req.InputPath)
	if err != nil {
		return ExtractSummary{}, err
	}
	inputs, err := dataextract.ReadInputCSV(inputFile)
	closeErr := inputFile.Close()
	if err != nil {
		return ExtractSummary{}, err
	}
	if closeErr != nil {
		return ExtractSummary{}, closeErr
	}

	table, err := dataextract.Extract(instrumented, inputs, keyFromSeed(req.Seed), spec.Name)
	if err != nil {
		return ExtractSummary{}, err
	}

	runID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	taps := instrumented.TapNames()

	run := model.ExtractionRun{
		VersionedRecord: currentVersions(),
		ID:              runID,
		ModelName:       spec.Name,
		CreatedAtUTC:    now,
		Rows:            len(table.Rows),
		Taps:            taps,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return ExtractSummary{}, err
	}
	if err := c.store.SaveFeatures(ctx, runID, featureRecords(runID, table)); err != nil {
		return ExtractSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        runID,
			ModelName:    spec.Name,
			ModelPath:    req.ModelPath,
			InputPath:    req.InputPath,
			Store:        c.storeKind,
			Taps:         taps,
			Rows:         len(table.Rows),
			Seed:         req.Seed,
			CreatedAtUTC: now,
		},
		Summaries: lastRowSummaries(taps, table),
	})
	if err != nil {
		return ExtractSummary{}, err
	}
	if err := writeFeatureTable(runDir, table); err != nil {
		return ExtractSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        runID,
		ModelName:    spec.Name,
		Rows:         len(table.Rows),
		Taps:         len(taps),
		CreatedAtUTC: now,
	}); err != nil {
		return ExtractSummary{}, err
	}

	return ExtractSummary{
		RunID:        runID,
		ModelName:    spec.Name,
		ArtifactsDir: filepath.Clean(runDir),
		Rows:         len(table.Rows),
		Taps:         taps,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			ModelName:    e.ModelName,
			CreatedAtUTC: e.CreatedAtUTC,
			Rows:         e.Rows,
			Taps:         e.Taps,
		})
	}
	return out, nil
}

func (c *Client) Run(ctx context.Context, req RunInfoRequest) (RunInfo, error) {
	if req.RunID != "" && req.Latest {
		return RunInfo{}, errors.New("use either run id or latest")
	}
	if err := c.Init(ctx); err != nil {
		return RunInfo{}, err
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return RunInfo{}, err
		}
		if len(entries) == 0 {
			return RunInfo{}, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return RunInfo{}, errors.New("run requires run id or latest")
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunInfo{}, err
	}
	if !ok {
		return RunInfo{}, fmt.Errorf("run not found: %s", runID)
	}
	return RunInfo{
		RunID:        run.ID,
		ModelName:    run.ModelName,
		CreatedAtUTC: run.CreatedAtUTC,
		Rows:         run.Rows,
		Taps:         run.Taps,
	}, nil
}

func (c *Client) Features(ctx context.Context, req FeaturesRequest) ([]FeatureItem, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("features requires run id or latest")
	}

	records, ok, err := c.store.GetFeatures(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("features not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}

	out := make([]FeatureItem, 0, len(records))
	for _, rec := range records {
		out = append(out, FeatureItem{
			RowIndex: rec.RowIndex,
			TapIndex: rec.TapIndex,
			Tap:      rec.Tap,
			Values:   rec.Values,
		})
	}
	return out, nil
}

// Taps resolves a selector against a model without running it, reporting the
// locations that would be instrumented.
func (c *Client) Taps(_ context.Context, req TapsRequest) ([]string, error) {
	_, instrumented, err := c.loadInstrumented(req.ModelPath, req.Indices, req.Paths)
	if err != nil {
		return nil, err
	}
	return instrumented.TapNames(), nil
}

func (c *Client) loadInstrumented(modelPath string, indices []int, paths []string) (model.Spec, *probe.Instrumented, error) {
	if modelPath == "" {
		return model.Spec{}, nil, errors.New("model spec path is required")
	}
	spec, err := model.LoadSpec(modelPath)
	if err != nil {
		return model.Spec{}, nil, err
	}
	m, err := model.Build(spec)
	if err != nil {
		return model.Spec{}, nil, fmt.Errorf("build model %s: %w", modelPath, err)
	}

	selector, err := selectorFrom(indices, paths)
	if err != nil {
		return model.Spec{}, nil, err
	}
	instrumented, err := probe.Intermediates(m, selector)
	if err != nil {
		return model.Spec{}, nil, err
	}
	return spec, instrumented, nil
}

func selectorFrom(indices []int, pathNames []string) (probe.Selector, error) {
	if len(indices) > 0 && len(pathNames) > 0 {
		return nil, errors.New("use either layer indices or paths")
	}
	if len(indices) > 0 {
		return probe.ByIndex(indices...), nil
	}

	paths := make([]model.Path, 0, len(pathNames))
	for _, name := range pathNames {
		p, err := model.ParsePath(name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return probe.ByPath(paths...), nil
}

func keyFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}

func currentVersions() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}

func featureRecords(runID string, table dataextract.FeatureTable) []model.FeatureRecord {
	records := make([]model.FeatureRecord, 0, len(table.Rows)*len(table.Info.Taps))
	for _, row := range table.Rows {
		for tapIdx, tap := range table.Info.Taps {
			var values []float64
			if tapIdx < len(row.Features) {
				values = row.Features[tapIdx]
			}
			records = append(records, model.FeatureRecord{
				VersionedRecord: currentVersions(),
				RunID:           runID,
				RowIndex:        row.Index,
				TapIndex:        tapIdx,
				Tap:             tap,
				Values:          values,
			})
		}
	}
	return records
}

func lastRowSummaries(taps []string, table dataextract.FeatureTable) []stats.TapSummary {
	if len(table.Rows) == 0 {
		return stats.SummarizeAll(taps, nil)
	}
	return stats.SummarizeAll(taps, table.Rows[len(table.Rows)-1].Features)
}

func writeFeatureTable(runDir string, table dataextract.FeatureTable) error {
	csvFile, err := os.Create(filepath.Join(runDir, "features.csv"))
	if err != nil {
		return err
	}
	if err := table.WriteCSV(csvFile); err != nil {
		_ = csvFile.Close()
		return err
	}
	if err := csvFile.Close(); err != nil {
		return err
	}

	jsonFile, err := os.Create(filepath.Join(runDir, "features.json"))
	if err != nil {
		return err
	}
	if err := table.WriteJSON(jsonFile); err != nil {
		_ = jsonFile.Close()
		return err
	}
	return jsonFile.Close()
}
