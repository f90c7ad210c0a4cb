package stats

// TapSummary condenses one captured activation vector. Active counts the
// elements strictly above zero, which for the usual rectified layers is the
// number of firing units.
type TapSummary struct {
	Tap      string  `json:"tap"`
	Captured bool    `json:"captured"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Active   int     `json:"active"`
}

// Summarize builds the summary for one tap. A nil values slice means the tap
// never produced a capture; the summary then carries only the tap name.
func Summarize(tap string, values []float64) TapSummary {
	if values == nil {
		return TapSummary{Tap: tap}
	}
	summary := TapSummary{Tap: tap, Captured: true, Count: len(values)}
	if len(values) == 0 {
		return summary
	}

	summary.Min = values[0]
	summary.Max = values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < summary.Min {
			summary.Min = v
		}
		if v > summary.Max {
			summary.Max = v
		}
		if v > 0 {
			summary.Active++
		}
	}
	summary.Mean = sum / float64(len(values))
	return summary
}

// SummarizeAll pairs tap names with captures positionally.
func SummarizeAll(taps []string, captures [][]float64) []TapSummary {
	out := make([]TapSummary, 0, len(taps))
	for i, tap := range taps {
		var values []float64
		if i < len(captures) {
			values = captures[i]
		}
		out = append(out, Summarize(tap, values))
	}
	return out
}
