//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"neuromlcap/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec model.AnalysisRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("analysis id is required")
	}

	payload, err := EncodeAnalysis(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO analyses (id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, rec.ID, rec.CreatedAtUTC, rec.SchemaVersion, rec.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (model.AnalysisRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.AnalysisRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AnalysisRecord{}, false, nil
		}
		return model.AnalysisRecord{}, false, err
	}

	rec, err := DecodeAnalysis(payload)
	if err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context) ([]model.AnalysisRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM analyses ORDER BY created_at_utc DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AnalysisRecord{}
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		rec, err := DecodeAnalysis(payload)
		if err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveManifest(ctx context.Context, analysisID string, m *model.Manifest) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeManifest(analysisID, m)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO manifests (analysis_id, family, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(analysis_id, family) DO UPDATE SET
			payload = excluded.payload
	`, analysisID, string(m.Family), payload)
	return err
}

func (s *SQLiteStore) GetManifest(ctx context.Context, analysisID string, family model.FamilyKind) (*model.Manifest, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM manifests WHERE analysis_id = ? AND family = ?`, analysisID, string(family)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	_, m, err := DecodeManifest(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s manifest of %s: %w", family, analysisID, err)
	}
	return m, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS manifests (
			analysis_id TEXT NOT NULL,
			family TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (analysis_id, family)
		);
	`)
	return err
}
