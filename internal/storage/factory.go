package storage

import "neuromlcap/internal/model"

// NewStore opens the analysis index backend named by kind. An unknown kind,
// or one not compiled in, is a configuration error on the --store flag.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, model.NewConfigError("store", "unsupported backend %q (want memory or sqlite)", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
