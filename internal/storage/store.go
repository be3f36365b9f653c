package storage

import (
	"context"

	"neuromlcap/internal/model"
)

// Store indexes analyses and keeps a copy of their job manifests so they can
// be listed and inspected without walking the output directory.
type Store interface {
	Init(ctx context.Context) error
	SaveAnalysis(ctx context.Context, rec model.AnalysisRecord) error
	GetAnalysis(ctx context.Context, id string) (model.AnalysisRecord, bool, error)
	ListAnalyses(ctx context.Context) ([]model.AnalysisRecord, error)
	SaveManifest(ctx context.Context, analysisID string, m *model.Manifest) error
	GetManifest(ctx context.Context, analysisID string, family model.FamilyKind) (*model.Manifest, bool, error)
}
