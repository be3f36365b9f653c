package storage

import (
	"errors"
	"testing"

	"neuromlcap/internal/model"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestNewStoreUnsupportedIsConfigError(t *testing.T) {
	_, err := NewStore("postgres", "")
	if err == nil {
		t.Fatal("expected unsupported store error")
	}
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "store" {
		t.Fatalf("expected error keyed on store flag, got %v", err)
	}
}

func TestCloseIfSupportedMemory(t *testing.T) {
	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("close memory store: %v", err)
	}
}
