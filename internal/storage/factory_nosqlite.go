//go:build !sqlite

package storage

import "neuromlcap/internal/model"

func DefaultStoreKind() string { return "memory" }

func newSQLiteStore(_ string) (Store, error) {
	return nil, model.NewConfigError("store", "sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
