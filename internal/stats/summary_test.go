package stats

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   TapSummary
	}{
		{
			name:   "never-captured",
			values: nil,
			want:   TapSummary{Tap: "0"},
		},
		{
			name:   "empty-capture",
			values: []float64{},
			want:   TapSummary{Tap: "0", Captured: true},
		},
		{
			name:   "mixed",
			values: []float64{-1, 0, 2, 3},
			want:   TapSummary{Tap: "0", Captured: true, Count: 4, Min: -1, Max: 3, Mean: 1, Active: 2},
		},
		{
			name:   "all-negative",
			values: []float64{-2, -4},
			want:   TapSummary{Tap: "0", Captured: true, Count: 2, Min: -4, Max: -2, Mean: -3, Active: 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize("0", tc.values)
			if got.Tap != tc.want.Tap || got.Captured != tc.want.Captured || got.Count != tc.want.Count {
				t.Fatalf("unexpected summary: %+v", got)
			}
			if got.Min != tc.want.Min || got.Max != tc.want.Max || got.Active != tc.want.Active {
				t.Fatalf("unexpected summary: %+v", got)
			}
			if math.Abs(got.Mean-tc.want.Mean) > 1e-9 {
				t.Fatalf("unexpected mean: %+v", got)
			}
		})
	}
}

func TestSummarizeAll(t *testing.T) {
	summaries := SummarizeAll([]string{"0", "2"}, [][]float64{{1, 2}, nil})
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if !summaries[0].Captured || summaries[0].Count != 2 {
		t.Fatalf("unexpected first summary: %+v", summaries[0])
	}
	if summaries[1].Captured {
		t.Fatalf("missing capture should not be marked captured: %+v", summaries[1])
	}
	if summaries[1].Tap != "2" {
		t.Fatalf("unexpected tap name: %+v", summaries[1])
	}
}
