package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const runIndexFile = "run_index.json"

// RunConfig records how an extraction run was set up.
type RunConfig struct {
	RunID        string   `json:"run_id"`
	ModelName    string   `json:"model_name,omitempty"`
	ModelPath    string   `json:"model_path,omitempty"`
	InputPath    string   `json:"input_path,omitempty"`
	Store        string   `json:"store,omitempty"`
	Taps         []string `json:"taps"`
	Rows         int      `json:"rows"`
	Seed         int64    `json:"seed,omitempty"`
	CreatedAtUTC string   `json:"created_at_utc"`
}

// RunArtifacts is everything written into one run directory.
type RunArtifacts struct {
	Config    RunConfig    `json:"config"`
	Summaries []TapSummary `json:"summaries"`
}

// WriteRunArtifacts writes the run's config and per-tap summaries under
// baseDir/<run id> and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summaries.json"), artifacts.Summaries); err != nil {
		return "", err
	}
	return runDir, nil
}

// RunIndexEntry is one line of the append-only run index kept at the base
// directory root.
type RunIndexEntry struct {
	RunID        string `json:"run_id"`
	ModelName    string `json:"model_name,omitempty"`
	Rows         int    `json:"rows"`
	Taps         int    `json:"taps"`
	CreatedAtUTC string `json:"created_at_utc"`
}

// AppendRunIndex adds or replaces the entry for a run.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the run index, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
