package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"neuromlcap/internal/model"
)

func testSelection() *model.Selection {
	sel := model.NewSelection()
	sel.Add("0", model.Marker{Size: 10, Color: model.Color{1, 0, 1, 1}})
	sel.Add("12", model.Marker{Size: 10, Color: model.Color{0, 1, 0.7, 1}})
	sel.Add("3", model.Marker{Size: 10, Color: model.Color{1, 0, 0, 1}})
	return sel
}

func TestSelectionRoundTripKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	if err := WriteSelection(dir, testSelection()); err != nil {
		t.Fatalf("write selection: %v", err)
	}
	sel, ok, err := ReadSelection(dir)
	if err != nil || !ok {
		t.Fatalf("read selection: ok=%v err=%v", ok, err)
	}
	ids := sel.IDs()
	want := []string{"0", "12", "3"}
	if len(ids) != len(want) {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids=%v want=%v", ids, want)
		}
	}
	marker, _ := sel.Marker("12")
	if marker.Color != (model.Color{0, 1, 0.7, 1}) {
		t.Fatalf("unexpected marker: %+v", marker)
	}
}

func TestReadMissingArtifactsReportsAbsent(t *testing.T) {
	dir := t.TempDir()
	if _, ok, err := ReadSelection(dir); ok || err != nil {
		t.Fatalf("selection: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadManifest(dir, model.FamilySweep); ok || err != nil {
		t.Fatalf("manifest: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadPointer(dir); ok || err != nil {
		t.Fatalf("pointer: ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadFICurve(dir); ok || err != nil {
		t.Fatalf("fi curve: ok=%v err=%v", ok, err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := model.NewManifest(model.FamilyTrial)
	for i, seed := range []int64{11, 7} {
		id := model.FamilyTrial.JobPrefix() + "_" + string(rune('0'+i))
		if err := m.Add(model.Job{ID: id, Index: i, SimFile: "LEMS_" + id + ".xml", Stimulus: model.Stimulus{Seed: model.Int64(seed)}}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, TrialManifestFile)); err != nil {
		t.Fatalf("expected %s: %v", TrialManifestFile, err)
	}

	back, ok, err := ReadManifest(dir, model.FamilyTrial)
	if err != nil || !ok {
		t.Fatalf("read manifest: ok=%v err=%v", ok, err)
	}
	jobs := back.Jobs()
	if len(jobs) != 2 || jobs[0].ID != "poisson_stim_sim_0" || *jobs[1].Seed != 7 {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if jobs[0].Family != model.FamilyTrial {
		t.Fatalf("family not restored: %+v", jobs[0])
	}
}

func TestWriteJSONReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SelectionFile)
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if err := WriteSelection(dir, testSelection()); err != nil {
		t.Fatalf("write selection: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only %s, got %d entries", SelectionFile, len(entries))
	}
	if _, ok, err := ReadSelection(dir); !ok || err != nil {
		t.Fatalf("read selection: ok=%v err=%v", ok, err)
	}
}

func TestIndexUpsertAndOrder(t *testing.T) {
	out := t.TempDir()
	for _, rec := range []model.AnalysisRecord{
		{ID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"},
		{ID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", Executed: true},
	} {
		if err := AppendIndex(out, rec); err != nil {
			t.Fatalf("append %s: %v", rec.ID, err)
		}
	}
	records, err := ListIndex(out)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].ID != "b" || !records[1].Executed {
		t.Fatalf("unexpected index: %+v", records)
	}
	if err := AppendIndex(out, model.AnalysisRecord{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestFICurveAndExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "20260101000000_cell.nml")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	points := []FIPoint{{Current: 0, RateHz: 0}, {Current: 0.2, RateHz: 12.5}}
	if err := WriteFICurve(dir, points); err != nil {
		t.Fatalf("write fi: %v", err)
	}
	got, ok, err := ReadFICurve(dir)
	if err != nil || !ok || len(got) != 2 || got[1] != points[1] {
		t.Fatalf("read fi: got=%+v ok=%v err=%v", got, ok, err)
	}

	if _, err := Export(dir, t.TempDir()); err == nil {
		t.Fatal("expected export to require the selection file")
	}
	if err := WriteSelection(dir, testSelection()); err != nil {
		t.Fatalf("write selection: %v", err)
	}
	exported, err := Export(dir, t.TempDir())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, file := range []string{SelectionFile, FICurveFile} {
		if _, err := os.Stat(filepath.Join(exported, file)); err != nil {
			t.Fatalf("expected exported %s: %v", file, err)
		}
	}
	if _, err := os.Stat(filepath.Join(exported, SweepManifestFile)); !os.IsNotExist(err) {
		t.Fatalf("absent manifest should not be exported: %v", err)
	}
}

func TestPointer(t *testing.T) {
	out := t.TempDir()
	if err := WritePointer(out, "/tmp/x"); err != nil {
		t.Fatalf("write pointer: %v", err)
	}
	got, ok, err := ReadPointer(out)
	if err != nil || !ok || got != "/tmp/x" {
		t.Fatalf("pointer=%q ok=%v err=%v", got, ok, err)
	}
}
