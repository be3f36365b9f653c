//go:build sqlite

package storage

import "neuromlcap/internal/model"

func DefaultStoreKind() string { return "sqlite" }

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, model.NewConfigError("db-path", "sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}
