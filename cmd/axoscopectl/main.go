package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"axoscope/internal/storage"
	scopeapi "axoscope/pkg/axoscope"
)

const artifactsDir = "artifacts"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "probe":
		return runProbe(ctx, args[1:])
	case "extract":
		return runExtract(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "features":
		return runFeatures(ctx, args[1:])
	case "taps":
		return runTaps(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "axoscope.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := scopeapi.New(scopeapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runProbe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model spec path (json or yaml)")
	layersFlag := fs.String("layers", "", "comma-separated pipeline layer indices to tap")
	pathsFlag := fs.String("paths", "", "comma-separated tree paths to tap, e.g. 0,1/0")
	inputFlag := fs.String("input", "", "comma-separated input vector")
	seed := fs.Int64("seed", 0, "rng seed for stochastic layers (0 disables)")
	jsonOut := fs.Bool("json", false, "emit probe result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input, err := parseFloatList(*inputFlag)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	indices, err := parseIndexList(*layersFlag)
	if err != nil {
		return fmt.Errorf("layers: %w", err)
	}

	client, err := scopeapi.New(scopeapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Probe(ctx, scopeapi.ProbeRequest{
		ModelPath: *modelPath,
		Indices:   indices,
		Paths:     splitList(*pathsFlag),
		Input:     input,
		Seed:      *seed,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("model=%s output=%v\n", summary.ModelName, summary.Output)
	for i, tap := range summary.Taps {
		s := summary.Summaries[i]
		if !s.Captured {
			fmt.Printf("tap=%s captured=false\n", tap)
			continue
		}
		fmt.Printf("tap=%s count=%d min=%.6f max=%.6f mean=%.6f active=%d\n",
			tap, s.Count, s.Min, s.Max, s.Mean, s.Active)
	}
	return nil
}

func runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model spec path (json or yaml)")
	inputPath := fs.String("input", "", "input csv path")
	layersFlag := fs.String("layers", "", "comma-separated pipeline layer indices to tap")
	pathsFlag := fs.String("paths", "", "comma-separated tree paths to tap, e.g. 0,1/0")
	seed := fs.Int64("seed", 0, "rng seed for stochastic layers (0 disables)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "axoscope.db", "sqlite database path")
	artifacts := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	indices, err := parseIndexList(*layersFlag)
	if err != nil {
		return fmt.Errorf("layers: %w", err)
	}

	client, err := scopeapi.New(scopeapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *artifacts,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Extract(ctx, scopeapi.ExtractRequest{
		ModelPath: *modelPath,
		InputPath: *inputPath,
		Indices:   indices,
		Paths:     splitList(*pathsFlag),
		Seed:      *seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run_id=%s model=%s rows=%d taps=%v artifacts=%s\n",
		summary.RunID, summary.ModelName, summary.Rows, summary.Taps, summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	artifacts := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := scopeapi.New(scopeapi.Options{StoreKind: "memory", ArtifactsDir: *artifacts})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, scopeapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s model=%s rows=%d taps=%d\n",
			r.RunID, r.CreatedAtUTC, r.ModelName, r.Rows, r.Taps)
	}
	return nil
}

func runFeatures(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "max feature records to print (0 prints all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "axoscope.db", "sqlite database path")
	artifacts := fs.String("artifacts-dir", artifactsDir, "artifacts base directory")
	jsonOut := fs.Bool("json", false, "emit feature records as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := scopeapi.New(scopeapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *artifacts,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	features, err := client.Features(ctx, scopeapi.FeaturesRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(features)
	}

	for _, f := range features {
		if f.Values == nil {
			fmt.Printf("row=%d tap=%s captured=false\n", f.RowIndex, f.Tap)
			continue
		}
		fmt.Printf("row=%d tap=%s values=%v\n", f.RowIndex, f.Tap, f.Values)
	}
	return nil
}

func runTaps(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taps", flag.ContinueOnError)
	modelPath := fs.String("model", "", "model spec path (json or yaml)")
	layersFlag := fs.String("layers", "", "comma-separated pipeline layer indices to tap")
	pathsFlag := fs.String("paths", "", "comma-separated tree paths to tap, e.g. 0,1/0")
	if err := fs.Parse(args); err != nil {
		return err
	}

	indices, err := parseIndexList(*layersFlag)
	if err != nil {
		return fmt.Errorf("layers: %w", err)
	}

	client, err := scopeapi.New(scopeapi.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	taps, err := client.Taps(ctx, scopeapi.TapsRequest{
		ModelPath: *modelPath,
		Indices:   indices,
		Paths:     splitList(*pathsFlag),
	})
	if err != nil {
		return err
	}
	if len(taps) == 0 {
		fmt.Println("no taps selected")
		return nil
	}
	for _, tap := range taps {
		fmt.Println(tap)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: axoscopectl <init|probe|extract|runs|features|taps> [flags]", msg)
}
