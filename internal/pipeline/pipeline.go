// Package pipeline sequences the analysis stages: directory setup, segment
// selection, job generation, execution and plotting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"neuromlcap/internal/analysis"
	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/experiment"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml"
	"neuromlcap/internal/runner"
	"neuromlcap/internal/selection"
	"neuromlcap/internal/storage"
)

type Options struct {
	// OutputDir receives new analysis directories, simulation.txt and the
	// analysis index. Defaults to cfg.Default.OutputDir, then ".".
	OutputDir string
	Logger    *slog.Logger
	// Executor runs jobs; nil selects the configured engine binary.
	Executor runner.Executor
	// Store, when set, also indexes analyses and manifests.
	Store storage.Store
	Now   func() time.Time
}

type Pipeline struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger
	rng  *rand.Rand

	analysis  *analysis.Analysis
	cell      *neuroml.Cell
	selection *model.Selection
	manifests []*model.Manifest
	executed  bool
}

// New binds a pipeline to a loaded configuration. The random source is
// seeded here, once, and every later draw goes through it in stage order.
func New(cfg *config.Config, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Default.OutputDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Pipeline{
		cfg:  cfg,
		opts: opts,
		log:  opts.Logger,
		rng:  rand.New(rand.NewSource(cfg.Default.Seed)),
	}
}

// Prepare creates a fresh analysis directory and selects segments when dir
// is empty. Otherwise it reopens dir and reads its persisted selection.
func (p *Pipeline) Prepare(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mode := selection.ModeNew
	var err error
	if dir == "" {
		if err := p.preflight(); err != nil {
			return err
		}
		p.analysis, err = analysis.Setup(p.cfg, p.opts.OutputDir, p.opts.Now())
		if err != nil {
			return err
		}
		p.log.Info("created analysis directory", "analysis_dir", p.analysis.Dir, "analysis_id", p.analysis.ID)
	} else {
		mode = selection.ModeResume
		p.analysis, err = analysis.Open(p.cfg, dir)
		if err != nil {
			return err
		}
		p.log.Info("reusing analysis directory", "analysis_dir", dir)
	}

	p.cell, err = p.analysis.Cell()
	if err != nil {
		return err
	}
	p.selection, err = selection.Select(p.analysis.Dir, p.cell, p.cfg, mode, p.rng)
	if err != nil {
		return err
	}
	p.log.Debug("segments selected", "mode", string(mode), "segments", p.selection.IDs())
	return nil
}

// preflight rejects selection and family settings the source cell cannot
// satisfy before the analysis directory is created.
func (p *Pipeline) preflight() error {
	path := filepath.Join(p.cfg.Default.CellDir, p.cfg.Default.CellFile)
	cell, err := neuroml.ReadCell(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.NotFoundError{What: "cell model", Path: path}
		}
		return err
	}
	if err := selection.Check(cell, p.cfg); err != nil {
		return err
	}
	return experiment.Check(p.cfg, cell)
}

// Generate writes the morphology plots when enabled and the jobs of every
// enabled family, sweep first.
func (p *Pipeline) Generate(ctx context.Context) error {
	if p.analysis == nil {
		return errors.New("pipeline: Prepare must run first")
	}
	if p.cfg.Default.PlotMorphology {
		if err := p.plotMorphology(p.selection, "morphology"); err != nil {
			return err
		}
	}

	p.manifests = p.manifests[:0]
	ref := experiment.ModelRef{
		Dir:        p.analysis.Dir,
		Cell:       p.cell,
		ModelFiles: p.analysis.ModelFiles,
		LEMSFiles:  p.analysis.LEMSFiles,
	}
	for _, family := range p.cfg.EnabledFamilies() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := experiment.GenerateFamily(p.cfg, p.selection, family, ref, p.rng)
		if err != nil {
			return fmt.Errorf("generate %s: %w", family, err)
		}
		p.log.Info("generated jobs", "family", string(family), "jobs", m.Len())
		p.manifests = append(p.manifests, m)

		if family == model.FamilyTrial && p.cfg.Default.PlotMorphology {
			inputs, err := selection.LoadInputs(p.analysis.Dir)
			if err != nil {
				return err
			}
			if err := p.plotMorphology(inputs, "inputs"); err != nil {
				return err
			}
		}
	}
	return p.index(ctx)
}

// Execute runs every generated job with the configured engine.
func (p *Pipeline) Execute(ctx context.Context) error {
	if p.analysis == nil {
		return errors.New("pipeline: Prepare must run first")
	}
	exec := p.opts.Executor
	if exec == nil {
		ce, err := runner.NewCommandExecutor(p.cfg.Default.Engine)
		if err != nil {
			return err
		}
		exec = ce
	}
	var jobs []model.Job
	for _, m := range p.manifests {
		jobs = append(jobs, m.WithChannels(p.selection).Jobs()...)
	}
	pool := &runner.Pool{MaxWorkers: p.cfg.Default.MaxWorkers, Executor: exec, Logger: p.log}
	start := p.opts.Now()
	p.log.Info("running jobs", "jobs", len(jobs), "max_workers", pool.MaxWorkers, "engine", p.cfg.Default.Engine)
	if err := pool.Run(ctx, p.analysis.Dir, jobs); err != nil {
		return err
	}
	p.executed = true
	p.log.Info("jobs finished", "jobs", len(jobs), "duration", p.opts.Now().Sub(start).String())
	return p.index(ctx)
}

// Analyse generates every family and, when run is set, executes the jobs.
func (p *Pipeline) Analyse(ctx context.Context, run bool) error {
	if err := p.Generate(ctx); err != nil {
		return err
	}
	if !run {
		return nil
	}
	return p.Execute(ctx)
}

func (p *Pipeline) index(ctx context.Context) error {
	rec := p.analysis.Record(p.cfg)
	rec.Segments = p.selection.Len()
	for _, m := range p.manifests {
		rec.Jobs += m.Len()
	}
	rec.Executed = p.executed
	if err := artifacts.AppendIndex(p.opts.OutputDir, rec); err != nil {
		return fmt.Errorf("update analysis index: %w", err)
	}
	if p.opts.Store == nil {
		return nil
	}
	if err := p.opts.Store.SaveAnalysis(ctx, rec); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}
	for _, m := range p.manifests {
		if err := p.opts.Store.SaveManifest(ctx, rec.ID, m); err != nil {
			return fmt.Errorf("store %s manifest: %w", m.Family, err)
		}
	}
	return nil
}

// Dir is the analysis directory, empty before Prepare.
func (p *Pipeline) Dir() string {
	if p.analysis == nil {
		return ""
	}
	return p.analysis.Dir
}

func (p *Pipeline) AnalysisID() string {
	if p.analysis == nil {
		return ""
	}
	return p.analysis.ID
}

func (p *Pipeline) Selection() *model.Selection { return p.selection }

func (p *Pipeline) Manifests() []*model.Manifest { return p.manifests }
