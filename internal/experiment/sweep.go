package experiment

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"neuromlcap/internal/config"
	"neuromlcap/internal/lems"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml"
	"neuromlcap/internal/units"
)

// SweepCurrents returns the injected currents in nA, ascending. An explicit
// list wins over the min/max/steps range.
func SweepCurrents(c config.FICurvesConfig) ([]float64, error) {
	if len(c.Currents) > 0 {
		out := append([]float64(nil), c.Currents...)
		sort.Float64s(out)
		return out, nil
	}
	if strings.TrimSpace(c.CurrentsMin) == "" {
		return nil, model.NewConfigError("fi_curves.currents_min", "required when currents is empty")
	}
	if strings.TrimSpace(c.CurrentsMax) == "" {
		return nil, model.NewConfigError("fi_curves.currents_max", "required when currents is empty")
	}
	if c.CurrentsSteps <= 0 {
		return nil, model.NewConfigError("fi_curves.currents_steps", "must be positive, got %d", c.CurrentsSteps)
	}
	lo, err := units.NanoAmps(c.CurrentsMin)
	if err != nil {
		return nil, &model.ConfigError{Key: "fi_curves.currents_min", Err: err}
	}
	hi, err := units.NanoAmps(c.CurrentsMax)
	if err != nil {
		return nil, &model.ConfigError{Key: "fi_curves.currents_max", Err: err}
	}
	if hi < lo {
		return nil, model.NewConfigError("fi_curves.currents_max", "%g nA is below currents_min %g nA", hi, lo)
	}
	out := make([]float64, c.CurrentsSteps)
	if len(out) == 1 {
		out[0] = lo
		return out, nil
	}
	return floats.Span(out, lo, hi), nil
}

type sweepTiming struct {
	duration, dt float64
}

func sweepSettings(c config.FICurvesConfig) (sweepTiming, error) {
	duration, err := units.Millis(c.SimDuration)
	if err != nil {
		return sweepTiming{}, &model.ConfigError{Key: "fi_curves.sim_duration", Err: err}
	}
	if duration <= 0 {
		return sweepTiming{}, model.NewConfigError("fi_curves.sim_duration", "must be positive")
	}
	if c.Dt <= 0 {
		return sweepTiming{}, model.NewConfigError("fi_curves.dt", "must be positive")
	}
	return sweepTiming{duration: duration, dt: c.Dt}, nil
}

// generateSweep builds one step-current job per current, injected at the
// anchor segment.
func generateSweep(c config.FICurvesConfig, sel *model.Selection, ref ModelRef) (*model.Manifest, error) {
	currents, err := SweepCurrents(c)
	if err != nil {
		return nil, err
	}
	timing, err := sweepSettings(c)
	if err != nil {
		return nil, err
	}

	m := model.NewManifest(model.FamilySweep)
	for i, current := range currents {
		doc := baseNetwork(ref, c.Temperature)
		pg := neuroml.PulseGenerator{
			ID:        fmt.Sprintf("pg_%d", i),
			Delay:     c.StimStart,
			Duration:  c.StimDuration,
			Amplitude: units.Format(current, units.Current),
		}
		doc.PulseGenerators = append(doc.PulseGenerators, pg)
		net := &doc.Networks[0]
		net.InputLists = append(net.InputLists, neuroml.InputList{
			ID:         "input_0",
			Component:  pg.ID,
			Population: ref.populationID(),
			Inputs: []neuroml.Input{{
				ID:          0,
				Target:      "../" + ref.populationID() + "/0",
				Destination: "synapses",
				SegmentID:   0,
			}},
		})

		job, err := newJob(model.FamilySweep, i, ref, doc, lems.New("", timing.duration, timing.dt), sel)
		if err != nil {
			return nil, err
		}
		job.Segment = model.AnchorSegment
		job.Current = model.Float64(current)
		if err := m.Add(job); err != nil {
			return nil, err
		}
	}
	return m, nil
}
