// Package dataextract turns instrumented forward passes over a dataset into
// feature tables, for transfer-learning pipelines that train on captured
// activations instead of raw inputs.
package dataextract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"axoscope/internal/probe"
)

type TableInfo struct {
	Model      string   `json:"model,omitempty"`
	Taps       []string `json:"taps"`
	InputWidth int      `json:"input_width"`
}

// FeatureRow is one dataset row: the input, the model's final output, and
// one captured feature vector per tap. A nil feature vector means the tap
// never ran for this row.
type FeatureRow struct {
	Index    int         `json:"index"`
	Inputs   []float64   `json:"inputs"`
	Outputs  []float64   `json:"outputs"`
	Features [][]float64 `json:"features"`
}

type FeatureTable struct {
	Info TableInfo    `json:"info"`
	Rows []FeatureRow `json:"rows"`
}

// Extract runs every input row through the instrumented model and collects
// the captures. Rows run in order against the same instance, so a tap
// skipped on one row reports the previous row's value — the same staleness
// the instrumented model itself exhibits.
func Extract(m *probe.Instrumented, inputs [][]float64, key *rand.Rand, modelName string) (FeatureTable, error) {
	if m == nil {
		return FeatureTable{}, fmt.Errorf("instrumented model is required")
	}

	table := FeatureTable{
		Info: TableInfo{Model: modelName, Taps: m.TapNames()},
		Rows: make([]FeatureRow, 0, len(inputs)),
	}
	if len(inputs) > 0 {
		table.Info.InputWidth = len(inputs[0])
	}

	for i, input := range inputs {
		out, captures, err := m.Forward(input, key)
		if err != nil {
			return FeatureTable{}, fmt.Errorf("row %d: %w", i, err)
		}
		table.Rows = append(table.Rows, FeatureRow{
			Index:    i,
			Inputs:   append([]float64(nil), input...),
			Outputs:  out,
			Features: captures,
		})
	}
	return table, nil
}

// ReadInputCSV parses rows of float columns. A leading header row is
// detected by its non-numeric cells and skipped; blank records are ignored.
// Every data row must have the same width.
func ReadInputCSV(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows [][]float64
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input csv line %d: %w", line+1, err)
		}
		line++
		if blankRecord(record) {
			continue
		}

		row, parseErr := parseFloatRecord(record)
		if parseErr != nil {
			if len(rows) == 0 && line == 1 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("input csv line %d: %w", line, parseErr)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("input csv line %d has %d columns, want %d", line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes the table with one column per output element and per
// feature element. Column widths come from the first row that produced each
// vector; taps that never ran on a row leave their cells empty.
func (t FeatureTable) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	outputWidth := 0
	featureWidths := make([]int, len(t.Info.Taps))
	for _, row := range t.Rows {
		if outputWidth == 0 {
			outputWidth = len(row.Outputs)
		}
		for i := range featureWidths {
			if featureWidths[i] == 0 && i < len(row.Features) {
				featureWidths[i] = len(row.Features[i])
			}
		}
	}

	header := []string{"index"}
	for i := 0; i < outputWidth; i++ {
		header = append(header, fmt.Sprintf("out_%d", i))
	}
	for tapIdx, tap := range t.Info.Taps {
		for i := 0; i < featureWidths[tapIdx]; i++ {
			header = append(header, fmt.Sprintf("tap_%s_%d", sanitizeTap(tap), i))
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range t.Rows {
		record := []string{strconv.Itoa(row.Index)}
		record = appendFloatCells(record, row.Outputs, outputWidth)
		for tapIdx := range t.Info.Taps {
			var values []float64
			if tapIdx < len(row.Features) {
				values = row.Features[tapIdx]
			}
			record = appendFloatCells(record, values, featureWidths[tapIdx])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the table as one indented JSON document.
func (t FeatureTable) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t)
}

func appendFloatCells(record []string, values []float64, width int) []string {
	for i := 0; i < width; i++ {
		if i < len(values) {
			record = append(record, strconv.FormatFloat(values[i], 'g', -1, 64))
			continue
		}
		record = append(record, "")
	}
	return record
}

func sanitizeTap(tap string) string {
	if tap == "." {
		return "root"
	}
	return strings.ReplaceAll(tap, "/", "_")
}

func parseFloatRecord(record []string) ([]float64, error) {
	row := make([]float64, 0, len(record))
	for i, cell := range record {
		value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		row = append(row, value)
	}
	return row, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
