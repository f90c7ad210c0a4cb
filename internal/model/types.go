package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ExtractionRun records one dataset pass through an instrumented model.
type ExtractionRun struct {
	VersionedRecord
	ID           string   `json:"id"`
	ModelName    string   `json:"model_name"`
	CreatedAtUTC string   `json:"created_at_utc"`
	Rows         int      `json:"rows"`
	Taps         []string `json:"taps"`
}

// FeatureRecord holds the activation captured at one tap for one input row.
// A nil Values slice means the tapped sub-module never ran for that row.
type FeatureRecord struct {
	VersionedRecord
	RunID    string    `json:"run_id"`
	RowIndex int       `json:"row_index"`
	TapIndex int       `json:"tap_index"`
	Tap      string    `json:"tap"`
	Values   []float64 `json:"values,omitempty"`
}
