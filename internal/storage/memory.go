package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"neuromlcap/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	analyses    map[string]model.AnalysisRecord
	manifests   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.analyses = make(map[string]model.AnalysisRecord)
	s.manifests = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, rec model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if rec.ID == "" {
		return errors.New("analysis id is required")
	}
	s.analyses[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id string) (model.AnalysisRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.analyses[id]
	return rec, ok, nil
}

// ListAnalyses returns every record, newest first.
func (s *MemoryStore) ListAnalyses(_ context.Context) ([]model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AnalysisRecord, 0, len(s.analyses))
	for _, rec := range s.analyses {
		out = append(out, rec)
	}
	sortNewestFirst(out)
	return out, nil
}

// SaveManifest stores an encoded copy so later mutation of m by the caller
// does not leak into the store.
func (s *MemoryStore) SaveManifest(_ context.Context, analysisID string, m *model.Manifest) error {
	payload, err := EncodeManifest(analysisID, m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.manifests[manifestKey(analysisID, m.Family)] = payload
	return nil
}

func (s *MemoryStore) GetManifest(_ context.Context, analysisID string, family model.FamilyKind) (*model.Manifest, bool, error) {
	s.mu.RLock()
	payload, ok := s.manifests[manifestKey(analysisID, family)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	_, m, err := DecodeManifest(payload)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func manifestKey(analysisID string, family model.FamilyKind) string {
	return analysisID + "/" + string(family)
}

func sortNewestFirst(recs []model.AnalysisRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAtUTC == recs[j].CreatedAtUTC {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAtUTC > recs[j].CreatedAtUTC
	})
}
