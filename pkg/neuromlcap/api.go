package neuromlcap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/model"
	"neuromlcap/internal/pipeline"
	"neuromlcap/internal/provenance"
	"neuromlcap/internal/runner"
	"neuromlcap/internal/storage"
)

const defaultDBPath = "neuromlcap.db"

type (
	Job            = model.Job
	Executor       = runner.Executor
	AnalysisRecord = model.AnalysisRecord
)

type Options struct {
	StoreKind string
	DBPath    string
	// OutputDir overrides default.output_dir of every loaded configuration.
	OutputDir string
	Logger    *slog.Logger
	// Executor replaces the configured engine binary, mostly for tests.
	Executor Executor
	Now      func() time.Time
}

type Client struct {
	store storage.Store
	opts  Options
}

type RunRequest struct {
	ConfigPath string
	// Execute runs the generated jobs; Plot then renders their outputs.
	Execute bool
	Plot    bool
}

type RunSummary struct {
	AnalysisID string
	Dir        string
	Segments   int
	Jobs       int
	Executed   bool
	Plotted    bool
}

type PlotRequest struct {
	ConfigPath string
	Dir        string
}

type RunsRequest struct {
	Limit int
}

type SegmentView struct {
	ID          string     `json:"id" yaml:"id"`
	MarkerSize  float64    `json:"marker_size" yaml:"marker_size"`
	MarkerColor [4]float64 `json:"marker_color" yaml:"marker_color"`
}

type JobView struct {
	ID       string   `json:"id" yaml:"id"`
	Family   string   `json:"family" yaml:"family"`
	Index    int      `json:"index" yaml:"index"`
	SimFile  string   `json:"simfile" yaml:"simfile"`
	DataFile string   `json:"datafile" yaml:"datafile"`
	Label    string   `json:"label" yaml:"label"`
	Current  *float64 `json:"current,omitempty" yaml:"current,omitempty"`
	Seed     *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// ProvenanceView is the persisted state of one analysis directory.
type ProvenanceView struct {
	Dir      string        `json:"dir" yaml:"dir"`
	CellFile string        `json:"cell_file" yaml:"cell_file"`
	Seed     int64         `json:"seed" yaml:"seed"`
	Segments []SegmentView `json:"segments" yaml:"segments"`
	Inputs   []SegmentView `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Jobs     []JobView     `json:"jobs" yaml:"jobs"`
}

func New(opts Options) (*Client, error) {
	if opts.StoreKind == "" {
		opts.StoreKind = storage.DefaultStoreKind()
	}
	if opts.DBPath == "" {
		opts.DBPath = defaultDBPath
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", opts.StoreKind, err)
	}
	return &Client{store: store, opts: opts}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Generate creates a fresh analysis directory with its selection and job
// files, without running anything.
func (c *Client) Generate(ctx context.Context, configPath string) (RunSummary, error) {
	return c.Run(ctx, RunRequest{ConfigPath: configPath})
}

// Run creates a fresh analysis, optionally executes its jobs and optionally
// plots the results.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Plot && !req.Execute {
		return RunSummary{}, errors.New("plotting a fresh analysis requires executing it")
	}
	p, err := c.pipeline(req.ConfigPath)
	if err != nil {
		return RunSummary{}, err
	}
	if err := p.Prepare(ctx, ""); err != nil {
		return summarize(p, false), err
	}
	if err := p.Analyse(ctx, req.Execute); err != nil {
		return summarize(p, false), err
	}
	if req.Plot {
		if err := p.Plot(ctx); err != nil {
			return summarize(p, false), err
		}
	}
	s := summarize(p, req.Plot)
	s.Executed = req.Execute
	return s, nil
}

// Plot renders an existing analysis directory from its persisted files.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (RunSummary, error) {
	if req.Dir == "" {
		return RunSummary{}, errors.New("analysis directory is required")
	}
	p, err := c.pipeline(req.ConfigPath)
	if err != nil {
		return RunSummary{}, err
	}
	if err := p.Prepare(ctx, req.Dir); err != nil {
		return RunSummary{}, err
	}
	if err := p.Plot(ctx); err != nil {
		return summarize(p, false), err
	}
	s := summarize(p, true)
	s.Executed = true
	return s, nil
}

// Provenance loads an analysis directory using the configuration snapshot
// stored inside it.
func (c *Client) Provenance(_ context.Context, dir string) (ProvenanceView, error) {
	snapshot := filepath.Join(dir, config.SnapshotFile)
	if _, err := os.Stat(snapshot); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProvenanceView{}, &model.NotFoundError{What: "configuration snapshot", Path: snapshot}
		}
		return ProvenanceView{}, err
	}
	cfg, err := config.Load(snapshot)
	if err != nil {
		return ProvenanceView{}, err
	}
	prov, err := provenance.Load(dir, cfg.EnabledFamilies())
	if err != nil {
		return ProvenanceView{}, err
	}

	view := ProvenanceView{
		Dir:      dir,
		CellFile: cfg.Default.CellFile,
		Seed:     cfg.Default.Seed,
		Segments: segmentViews(prov.Selection),
		Inputs:   segmentViews(prov.Inputs),
	}
	for _, m := range prov.Manifests {
		for _, job := range m.Jobs() {
			view.Jobs = append(view.Jobs, JobView{
				ID:       job.ID,
				Family:   string(job.Family),
				Index:    job.Index,
				SimFile:  job.SimFile,
				DataFile: job.DataFile,
				Label:    provenance.Label(job),
				Current:  job.Current,
				Seed:     job.Seed,
			})
		}
	}
	return view, nil
}

// Runs lists indexed analyses, newest first. Records come from the store
// and, when it has none, from the index file of the output directory.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]AnalysisRecord, error) {
	records, err := c.store.ListAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		records, err = artifacts.ListIndex(c.outputDir(""))
		if err != nil {
			return nil, err
		}
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	return records, nil
}

// Export copies the provenance files of dir into outDir/<base of dir>.
func (c *Client) Export(_ context.Context, dir, outDir string) (string, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return "", &model.NotFoundError{What: "analysis directory", Path: dir}
	}
	return artifacts.Export(dir, outDir)
}

func (c *Client) pipeline(configPath string) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, pipeline.Options{
		OutputDir: c.outputDir(cfg.Default.OutputDir),
		Logger:    c.opts.Logger,
		Executor:  c.opts.Executor,
		Store:     c.store,
		Now:       c.opts.Now,
	}), nil
}

func (c *Client) outputDir(configured string) string {
	if c.opts.OutputDir != "" {
		return c.opts.OutputDir
	}
	if configured != "" {
		return configured
	}
	return "."
}

func summarize(p *pipeline.Pipeline, plotted bool) RunSummary {
	s := RunSummary{AnalysisID: p.AnalysisID(), Dir: p.Dir(), Plotted: plotted}
	if sel := p.Selection(); sel != nil {
		s.Segments = sel.Len()
	}
	for _, m := range p.Manifests() {
		s.Jobs += m.Len()
	}
	return s
}

func segmentViews(sel *model.Selection) []SegmentView {
	if sel == nil {
		return nil
	}
	out := make([]SegmentView, 0, sel.Len())
	for _, id := range sel.IDs() {
		marker, _ := sel.Marker(id)
		out = append(out, SegmentView{ID: id, MarkerSize: marker.Size, MarkerColor: marker.Color})
	}
	return out
}
