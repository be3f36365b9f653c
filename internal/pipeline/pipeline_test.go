package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml/neuromltest"
	"neuromlcap/internal/storage"
)

const docTemplate = `
[default]
seed = 42
cell_dir = %q
cell_file = %q
plot_morphology = true
fi_curves = true
poisson_inputs = true
num_segs_record = 2
extra_segments_record = [17]
segment_marker_size = 10
max_workers = 2
planes = ["xy"]

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
num_inputs = 4
num_iterations = 2
hz_inputs = 20
sim_duration = "1500 ms"
dt = 0.025
temperature = "34 degC"
`

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cellDir := t.TempDir()
	name := neuromltest.WriteCell(t, cellDir, "five", []int{3, 5, 7, 9, 11})
	path := filepath.Join(t.TempDir(), "analysis.toml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(docTemplate, cellDir, name)), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

// traceExecutor stands in for the engine: it writes a 1.5 s trace whose
// anchor channel fires job.Index times for sweep jobs.
type traceExecutor struct {
	fail string
}

func (e traceExecutor) Execute(_ context.Context, dir string, job model.Job) ([]byte, error) {
	if job.ID == e.fail {
		return []byte("NEURON: unstable"), errors.New("exit status 1")
	}
	spikes := map[int]bool{}
	if job.Family == model.FamilySweep {
		for s := 0; s < job.Index; s++ {
			spikes[600+100*s] = true
		}
	}
	var b strings.Builder
	for ms := 0; ms <= 1500; ms++ {
		b.WriteString(strconv.FormatFloat(float64(ms)/1000, 'f', -1, 64))
		for i := range job.Channels {
			v := -0.065
			if i == 0 && spikes[ms] {
				v = 0.02
			}
			b.WriteString(" " + strconv.FormatFloat(v, 'f', -1, 64))
		}
		b.WriteByte('\n')
	}
	return nil, os.WriteFile(filepath.Join(dir, job.DataFile), []byte(b.String()), 0o644)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, cfg *config.Config, out string, exec traceExecutor) (*Pipeline, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	p := New(cfg, Options{
		OutputDir: out,
		Logger:    quietLogger(),
		Executor:  exec,
		Store:     store,
		Now:       func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return p, store
}

func TestFullRun(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t)
	out := t.TempDir()
	p, store := newPipeline(t, cfg, out, traceExecutor{})

	require.NoError(t, p.Prepare(ctx, ""))
	assert.Equal(t, filepath.Join(out, "20260501120000_five.cell.nml"), p.Dir())
	require.NoError(t, p.Analyse(ctx, true))
	require.NoError(t, p.Plot(ctx))

	sel := p.Selection()
	ids := sel.IDs()
	require.Len(t, ids, 4)
	assert.Equal(t, "0", ids[0])
	assert.Equal(t, "17", ids[3])

	require.Len(t, p.Manifests(), 2)
	sweep := p.Manifests()[0]
	require.Equal(t, 3, sweep.Len())
	for i, job := range sweep.Jobs() {
		assert.Equal(t, fmt.Sprintf("step_current_sim_%d", i), job.ID)
		assert.InDelta(t, 0.2*float64(i), *job.Current, 1e-12)
	}

	fi, ok, err := artifacts.ReadFICurve(p.Dir())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, fi, 3)
	for i, pt := range fi {
		assert.InDelta(t, float64(i), pt.RateHz, 1e-9)
	}

	for _, f := range []string{
		"five-xy-morphology.png", "five-xy-inputs.png", "fi_curve.png",
		"step_current_sim_2.png", "poisson_stim_sim_1.png",
		artifacts.SelectionFile, artifacts.InputSelectionFile,
		artifacts.SweepManifestFile, artifacts.TrialManifestFile, config.SnapshotFile,
	} {
		_, err := os.Stat(filepath.Join(p.Dir(), f))
		assert.NoError(t, err, f)
	}

	index, err := artifacts.ListIndex(out)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.True(t, index[0].Executed)
	assert.Equal(t, 5, index[0].Jobs)
	assert.Equal(t, 4, index[0].Segments)

	rec, ok, err := store.GetAnalysis(ctx, p.AnalysisID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.Executed)
	stored, ok, err := store.GetManifest(ctx, p.AnalysisID(), model.FamilyTrial)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, stored.Len())
}

func TestFreshRunsAreReproducible(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t)

	run := func() (string, []int64) {
		p, _ := newPipeline(t, cfg, t.TempDir(), traceExecutor{})
		require.NoError(t, p.Prepare(ctx, ""))
		require.NoError(t, p.Analyse(ctx, false))
		data, err := os.ReadFile(filepath.Join(p.Dir(), artifacts.SelectionFile))
		require.NoError(t, err)
		var seeds []int64
		for _, job := range p.Manifests()[1].Jobs() {
			seeds = append(seeds, *job.Seed)
		}
		return string(data), seeds
	}
	selA, seedsA := run()
	selB, seedsB := run()
	assert.Equal(t, selA, selB)
	assert.Equal(t, seedsA, seedsB)
}

func TestPlotExistingDirectory(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t)
	out := t.TempDir()
	first, _ := newPipeline(t, cfg, out, traceExecutor{})
	require.NoError(t, first.Prepare(ctx, ""))
	require.NoError(t, first.Analyse(ctx, true))

	second, _ := newPipeline(t, cfg, out, traceExecutor{})
	require.NoError(t, second.Prepare(ctx, first.Dir()))
	assert.Equal(t, first.Selection().IDs(), second.Selection().IDs())
	require.NoError(t, second.Plot(ctx))

	require.NoError(t, os.Remove(filepath.Join(first.Dir(), artifacts.SweepManifestFile)))
	err := second.Plot(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Contains(t, err.Error(), artifacts.SweepManifestFile)
}

func TestPlotWithoutOutputsIsNotFound(t *testing.T) {
	ctx := context.Background()
	p, _ := newPipeline(t, loadConfig(t), t.TempDir(), traceExecutor{})
	require.NoError(t, p.Prepare(ctx, ""))
	require.NoError(t, p.Analyse(ctx, false))

	err := p.Plot(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	assert.Contains(t, err.Error(), ".v.dat")
}

func TestEngineFailureNamesLEMSFile(t *testing.T) {
	ctx := context.Background()
	p, _ := newPipeline(t, loadConfig(t), t.TempDir(), traceExecutor{fail: "step_current_sim_1"})
	require.NoError(t, p.Prepare(ctx, ""))
	err := p.Analyse(ctx, true)
	require.Error(t, err)
	var toolErr *model.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, filepath.Join(p.Dir(), "LEMS_step_current_sim_1.xml"), toolErr.File)

	// Generated files stay in place for inspection.
	_, statErr := os.Stat(filepath.Join(p.Dir(), artifacts.SweepManifestFile))
	assert.NoError(t, statErr)
}

func TestConfigErrorsFailBeforeAnyFileIsWritten(t *testing.T) {
	cases := map[string]struct {
		mutate func(*config.Config)
		key    string
	}{
		"oversampled groups": {
			mutate: func(c *config.Config) { c.Default.NumSegsRecord = 9 },
			key:    "default.num_segs_record",
		},
		"unknown extra segment": {
			mutate: func(c *config.Config) { c.Default.ExtraSegmentsRecord = []int{999} },
			key:    "default.extra_segments_record",
		},
		"more inputs than segments": {
			mutate: func(c *config.Config) { c.PoissonInputs.NumInputs = 1000 },
			key:    "poisson_inputs.num_inputs",
		},
		"current range reversed": {
			mutate: func(c *config.Config) { c.FICurves.CurrentsMax = "-0.4 nA" },
			key:    "fi_curves.currents_max",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := loadConfig(t)
			tc.mutate(cfg)
			out := t.TempDir()
			p, _ := newPipeline(t, cfg, out, traceExecutor{})

			err := p.Prepare(context.Background(), "")
			var cfgErr *model.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.key, cfgErr.Key)
			assert.Empty(t, p.Dir())

			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestStagesRequirePrepare(t *testing.T) {
	p := New(loadConfig(t), Options{Logger: quietLogger()})
	assert.Error(t, p.Generate(context.Background()))
	assert.Error(t, p.Execute(context.Background()))
	assert.Error(t, p.Plot(context.Background()))
	assert.Empty(t, p.Dir())
}
