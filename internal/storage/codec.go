package storage

import (
	"encoding/json"
	"errors"

	"axoscope/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.ExtractionRun) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.ExtractionRun, error) {
	var run model.ExtractionRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.ExtractionRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.ExtractionRun{}, err
	}
	return run, nil
}

func EncodeFeatures(records []model.FeatureRecord) ([]byte, error) {
	return json.Marshal(records)
}

func DecodeFeatures(data []byte) ([]model.FeatureRecord, error) {
	var records []model.FeatureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := checkVersion(record.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
