//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"neuromlcap/internal/model"
)

func TestSQLiteStoreAnalysisAndManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "neuromlcap.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	for _, rec := range []model.AnalysisRecord{
		testRecord("a1", "2026-01-01T00:00:00Z"),
		testRecord("a2", "2026-01-02T00:00:00Z"),
	} {
		if err := store.SaveAnalysis(ctx, rec); err != nil {
			t.Fatalf("save analysis: %v", err)
		}
	}
	updated := testRecord("a1", "2026-01-01T00:00:00Z")
	updated.Executed = true
	if err := store.SaveAnalysis(ctx, updated); err != nil {
		t.Fatalf("upsert analysis: %v", err)
	}

	got, ok, err := store.GetAnalysis(ctx, "a1")
	if err != nil || !ok || !got.Executed {
		t.Fatalf("get analysis: rec=%+v ok=%v err=%v", got, ok, err)
	}
	list, err := store.ListAnalyses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a2" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := store.SaveManifest(ctx, "a1", testManifest(11)); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	m, ok, err := store.GetManifest(ctx, "a1", model.FamilySweep)
	if err != nil || !ok {
		t.Fatalf("get manifest: ok=%v err=%v", ok, err)
	}
	if m.Len() != 11 || m.Jobs()[10].ID != "step_current_sim_10" {
		t.Fatalf("unexpected manifest: %+v", m.Jobs())
	}
	if _, ok, err := store.GetManifest(ctx, "a2", model.FamilySweep); ok || err != nil {
		t.Fatalf("expected missing manifest: ok=%v err=%v", ok, err)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
	if DefaultStoreKind() != "sqlite" {
		t.Fatalf("unexpected default kind: %s", DefaultStoreKind())
	}
}
