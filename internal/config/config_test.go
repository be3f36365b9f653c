package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromlcap/internal/model"
)

const validDoc = `
[default]
seed = 42
cell_dir = "cells"
cell_file = "HL23PYR.cell.nml"
extra_lems_definition_files = []
plot_morphology = true
fi_curves = true
poisson_inputs = true
num_segs_record = 2
extra_segments_record = [17]
segment_marker_size = 12

[fi_curves]
currents = []
currents_min = "0 nA"
currents_max = "0.4 nA"
currents_steps = 3
sim_duration = "1500 ms"
dt = 0.025
temperature = "34 degC"
stim_start = "500ms"
stim_duration = "1000ms"

[poisson_inputs]
num_inputs = 10
num_iterations = 5
hz_inputs = 10
sim_duration = "1000 ms"
dt = 0.025
temperature = "34 degC"
`

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadValidDocument(t *testing.T) {
	cfg, err := Load(writeDoc(t, validDoc))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Default.Seed)
	assert.Equal(t, "HL23PYR.cell.nml", cfg.Default.CellFile)
	assert.Equal(t, []int{17}, cfg.Default.ExtraSegmentsRecord)
	assert.Equal(t, 12.0, cfg.Default.SegmentMarkerSize)
	assert.Equal(t, DefaultEngine, cfg.Default.Engine)
	assert.Equal(t, DefaultMaxWorkers, cfg.Default.MaxWorkers)
	assert.Equal(t, DefaultPlanes, cfg.Default.Planes)
	assert.Equal(t, 3, cfg.FICurves.CurrentsSteps)
	assert.Equal(t, "0 mV", cfg.FICurves.SpikeThreshold)
	assert.Equal(t, "6nS", cfg.PoissonInputs.SynGbase)
	assert.Equal(t, []model.FamilyKind{model.FamilySweep, model.FamilyTrial}, cfg.EnabledFamilies())
}

func TestLoadFailuresAreConfigErrors(t *testing.T) {
	cases := map[string]string{
		"missing seed":       strings.Replace(validDoc, "seed = 42\n", "", 1),
		"missing cell file":  strings.Replace(validDoc, "cell_file = \"HL23PYR.cell.nml\"\n", "", 1),
		"malformed":          validDoc + "\n[default\n",
		"zero steps":         strings.Replace(validDoc, "currents_steps = 3", "currents_steps = 0", 1),
		"bad current unit":   strings.Replace(validDoc, `currents_max = "0.4 nA"`, `currents_max = "0.4 ms"`, 1),
		"max below min":      strings.Replace(validDoc, `currents_max = "0.4 nA"`, `currents_max = "-400 pA"`, 1),
		"zero iterations":    strings.Replace(validDoc, "num_iterations = 5", "num_iterations = 0", 1),
		"unknown engine":     strings.Replace(validDoc, "segment_marker_size = 12", "segment_marker_size = 12\nengine = \"brian\"", 1),
		"negative num segs":  strings.Replace(validDoc, "num_segs_record = 2", "num_segs_record = -1", 1),
		"missing fi section": validDoc[:strings.Index(validDoc, "[fi_curves]")],
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDoc(t, doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfig), "got %T: %v", err, err)
			var cerr *model.ConfigError
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func TestLoadRequiresAFeatureToggle(t *testing.T) {
	doc := `
[default]
seed = 1
cell_dir = "cells"
cell_file = "c.cell.nml"
`
	_, err := Load(writeDoc(t, doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)
	assert.Contains(t, err.Error(), "at least one of")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidationErrorNamesDocumentKey(t *testing.T) {
	doc := strings.Replace(validDoc, "segment_marker_size = 12", "segment_marker_size = 12\nmax_workers = 0", 1)
	_, err := Load(writeDoc(t, doc))
	require.Error(t, err)
	var cerr *model.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "default.max_workers", cerr.Key)
}

func TestSnapshotReloadsToSameConfig(t *testing.T) {
	cfg, err := Load(writeDoc(t, validDoc))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), SnapshotFile)
	require.NoError(t, WriteSnapshot(path, cfg))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Default, again.Default)
	assert.Equal(t, cfg.FICurves, again.FICurves)
	assert.Equal(t, cfg.PoissonInputs, again.PoissonInputs)
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "default.num_segs_record", fieldKey("Config.Default.NumSegsRecord"))
	assert.Equal(t, "fi_curves.dt", fieldKey("Config.FICurves.Dt"))
	assert.Equal(t, "default.extra_lems_definition_files", fieldKey("Config.Default.ExtraLEMSDefinitionFiles"))
}
