package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/model"
	"neuromlcap/internal/provenance"
	"neuromlcap/internal/render"
	"neuromlcap/internal/units"
)

// Plot renders the analysis from its persisted provenance only: the
// selection and manifests on disk, never the in-memory ones.
func (p *Pipeline) Plot(ctx context.Context) error {
	if p.analysis == nil {
		return errors.New("pipeline: Prepare must run first")
	}
	prov, err := provenance.Load(p.analysis.Dir, p.cfg.EnabledFamilies())
	if err != nil {
		return err
	}

	if p.cfg.Default.PlotMorphology {
		if err := p.plotMorphology(prov.Selection, "morphology"); err != nil {
			return err
		}
		if prov.Inputs != nil {
			if err := p.plotMorphology(prov.Inputs, "inputs"); err != nil {
				return err
			}
		}
	}

	r := render.New(p.analysis.Dir)
	var fi []artifacts.FIPoint
	for _, req := range prov.Requests() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(p.analysis.Dir, req.DataFile)
		tr, err := render.ReadTrace(path, len(req.Channels))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &model.NotFoundError{What: "output of " + req.JobID, Path: path}
			}
			return err
		}
		file, err := r.TimeSeries(req.JobID, req.Label, req.Channels, tr)
		if err != nil {
			return err
		}
		p.log.Debug("plotted job", "job_id", req.JobID, "file", file)

		if req.Family == model.FamilySweep && req.Current != nil {
			rate, err := p.firingRate(tr)
			if err != nil {
				return err
			}
			fi = append(fi, artifacts.FIPoint{Current: *req.Current, RateHz: rate})
		}
	}

	if len(fi) > 0 {
		if err := artifacts.WriteFICurve(p.analysis.Dir, fi); err != nil {
			return err
		}
		if _, err := r.FICurve(fi); err != nil {
			return err
		}
	}
	p.log.Info("plots written", "analysis_dir", p.analysis.Dir, "jobs", len(prov.Requests()))
	return nil
}

// firingRate measures the anchor channel, which is always the first one.
func (p *Pipeline) firingRate(tr *render.Trace) (float64, error) {
	c := p.cfg.FICurves
	threshold := 0.0
	if c.SpikeThreshold != "" {
		v, err := units.Millivolts(c.SpikeThreshold)
		if err != nil {
			return 0, &model.ConfigError{Key: "fi_curves.spike_threshold", Err: err}
		}
		threshold = v
	}
	start, err := units.Millis(c.StimStart)
	if err != nil {
		return 0, &model.ConfigError{Key: "fi_curves.stim_start", Err: err}
	}
	duration, err := units.Millis(c.StimDuration)
	if err != nil {
		return 0, &model.ConfigError{Key: "fi_curves.stim_duration", Err: err}
	}
	return tr.FiringRate(0, threshold, start, duration), nil
}

func (p *Pipeline) plotMorphology(sel *model.Selection, suffix string) error {
	r := render.New(p.analysis.Dir)
	for _, plane := range p.planes() {
		file, err := r.Morphology(p.cell, sel, suffix, plane)
		if err != nil {
			return err
		}
		p.log.Debug("plotted morphology", "file", file)
	}
	return nil
}

func (p *Pipeline) planes() []string {
	if len(p.cfg.Default.Planes) > 0 {
		return p.cfg.Default.Planes
	}
	return config.DefaultPlanes
}
