package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"neuromlcap/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeAnalysis(rec model.AnalysisRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeAnalysis(data []byte) (model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.AnalysisRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.AnalysisRecord{}, err
	}
	return rec, nil
}

// manifestRecord wraps a manifest, whose own encoding is the ordered job map
// written to the analysis directory, with version and ownership fields.
type manifestRecord struct {
	model.VersionedRecord
	AnalysisID string           `json:"analysis_id"`
	Family     model.FamilyKind `json:"family"`
	Jobs       json.RawMessage  `json:"jobs"`
}

func EncodeManifest(analysisID string, m *model.Manifest) ([]byte, error) {
	jobs, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(manifestRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		AnalysisID:      analysisID,
		Family:          m.Family,
		Jobs:            jobs,
	})
}

func DecodeManifest(data []byte) (string, *model.Manifest, error) {
	var rec manifestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", nil, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return "", nil, err
	}
	m := model.NewManifest(rec.Family)
	if err := json.Unmarshal(rec.Jobs, m); err != nil {
		return "", nil, fmt.Errorf("decode %s jobs: %w", rec.Family, err)
	}
	return rec.AnalysisID, m, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
