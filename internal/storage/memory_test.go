package storage

import (
	"context"
	"fmt"
	"testing"

	"neuromlcap/internal/model"
)

func testRecord(id, created string) model.AnalysisRecord {
	return model.AnalysisRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Dir:             "/tmp/" + id,
		CellFile:        "pyr.cell.nml",
		Seed:            42,
		Families:        []model.FamilyKind{model.FamilySweep},
		CreatedAtUTC:    created,
	}
}

func testManifest(n int) *model.Manifest {
	m := model.NewManifest(model.FamilySweep)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("step_current_sim_%d", i)
		_ = m.Add(model.Job{ID: id, Index: i, SimFile: "LEMS_" + id + ".xml", Stimulus: model.Stimulus{Current: model.Float64(float64(i) / 10)}})
	}
	return m
}

func TestMemoryStoreAnalysisRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, rec := range []model.AnalysisRecord{
		testRecord("a1", "2026-01-01T00:00:00Z"),
		testRecord("a2", "2026-01-03T00:00:00Z"),
		testRecord("a3", "2026-01-02T00:00:00Z"),
	} {
		if err := store.SaveAnalysis(ctx, rec); err != nil {
			t.Fatalf("save analysis %s: %v", rec.ID, err)
		}
	}

	got, ok, err := store.GetAnalysis(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("get analysis: ok=%v err=%v", ok, err)
	}
	if got.Dir != "/tmp/a1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, ok, _ := store.GetAnalysis(ctx, "missing"); ok {
		t.Fatal("expected missing analysis")
	}

	list, err := store.ListAnalyses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "a2" || list[1].ID != "a3" || list[2].ID != "a1" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if err := store.SaveAnalysis(ctx, model.AnalysisRecord{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestMemoryStoreManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := testManifest(12)
	if err := store.SaveManifest(ctx, "a1", input); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	_ = input.Add(model.Job{ID: "late"})

	output, ok, err := store.GetManifest(ctx, "a1", model.FamilySweep)
	if err != nil || !ok {
		t.Fatalf("get manifest: ok=%v err=%v", ok, err)
	}
	if output.Len() != 12 {
		t.Fatalf("expected stored copy of 12 jobs, got %d", output.Len())
	}
	jobs := output.Jobs()
	if jobs[10].ID != "step_current_sim_10" || *jobs[3].Current != 0.3 {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if _, ok, _ := store.GetManifest(ctx, "a1", model.FamilyTrial); ok {
		t.Fatal("expected missing trial manifest")
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveAnalysis(context.Background(), testRecord("a", "")); err == nil {
		t.Fatal("expected error before init")
	}
}
