package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"axoscope/internal/stats"
)

const testModelSpec = `{
  "name": "pipeline",
  "model": {
    "type": "sequential",
    "layers": [
      {"type": "scale", "factor": 2},
      {"type": "activation", "activation": "relu"},
      {"type": "scale", "factor": 3}
    ]
  }
}
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunMissingCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestInitCommandMemory(t *testing.T) {
	if err := run(context.Background(), []string{"init", "--store", "memory"}); err != nil {
		t.Fatalf("init command: %v", err)
	}
}

func TestProbeCommand(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeTestFile(t, dir, "model.json", testModelSpec)

	args := []string{
		"probe",
		"--model", modelPath,
		"--layers", "0,1",
		"--input", "1,-2",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("probe command: %v", err)
	}
}

func TestProbeCommandRequiresInput(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeTestFile(t, dir, "model.json", testModelSpec)

	if err := run(context.Background(), []string{"probe", "--model", modelPath}); err == nil {
		t.Fatal("expected missing input error")
	}
}

func TestExtractCommandCreatesArtifacts(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeTestFile(t, dir, "model.json", testModelSpec)
	inputPath := writeTestFile(t, dir, "input.csv", "1,2\n-3,4\n")
	artifacts := filepath.Join(dir, "artifacts")

	args := []string{
		"extract",
		"--store", "memory",
		"--model", modelPath,
		"--input", inputPath,
		"--layers", "1",
		"--artifacts-dir", artifacts,
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("extract command: %v", err)
	}

	entries, err := stats.ListRunIndex(artifacts)
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one indexed run, got %d", len(entries))
	}

	runDir := filepath.Join(artifacts, entries[0].RunID)
	for _, file := range []string{"config.json", "summaries.json", "features.csv", "features.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}

	if err := run(context.Background(), []string{"runs", "--artifacts-dir", artifacts}); err != nil {
		t.Fatalf("runs command: %v", err)
	}
}

func TestTapsCommand(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeTestFile(t, dir, "model.json", testModelSpec)

	args := []string{
		"taps",
		"--model", modelPath,
		"--paths", "0,2",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("taps command: %v", err)
	}
}

func TestTapsCommandRejectsMixedSelectors(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeTestFile(t, dir, "model.json", testModelSpec)

	args := []string{
		"taps",
		"--model", modelPath,
		"--layers", "0",
		"--paths", "2",
	}
	if err := run(context.Background(), args); err == nil {
		t.Fatal("expected mixed selector error")
	}
}
