package experiment

import (
	"fmt"
	"math/rand"
	"strconv"

	"neuromlcap/internal/config"
	"neuromlcap/internal/lems"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml"
	"neuromlcap/internal/selection"
	"neuromlcap/internal/units"
)

// maxSeed bounds the per-job engine seeds to [0, maxSeed).
const maxSeed = 100000

const (
	synapseID       = "syn"
	inputPopulation = "SpikeGeneratorPoissons"
	inputProjection = "PoissonProjections"
)

type trialSettings struct {
	duration, dt, rate float64
	synapse            neuroml.ExpTwoSynapse
}

func trialSettingsFrom(c config.PoissonInputsConfig) (trialSettings, error) {
	if c.NumIterations <= 0 {
		return trialSettings{}, model.NewConfigError("poisson_inputs.num_iterations", "must be positive, got %d", c.NumIterations)
	}
	if c.NumInputs <= 0 {
		return trialSettings{}, model.NewConfigError("poisson_inputs.num_inputs", "must be positive, got %d", c.NumInputs)
	}
	if c.HzInputs <= 0 {
		return trialSettings{}, model.NewConfigError("poisson_inputs.hz_inputs", "must be positive")
	}
	if c.Dt <= 0 {
		return trialSettings{}, model.NewConfigError("poisson_inputs.dt", "must be positive")
	}
	duration, err := units.Millis(c.SimDuration)
	if err != nil {
		return trialSettings{}, &model.ConfigError{Key: "poisson_inputs.sim_duration", Err: err}
	}
	if duration <= 0 {
		return trialSettings{}, model.NewConfigError("poisson_inputs.sim_duration", "must be positive")
	}
	return trialSettings{
		duration: duration,
		dt:       c.Dt,
		rate:     c.HzInputs,
		synapse: neuroml.ExpTwoSynapse{
			ID:       synapseID,
			Gbase:    c.SynGbase,
			Erev:     c.SynErev,
			TauRise:  c.SynTauRise,
			TauDecay: c.SynTauDecay,
		},
	}, nil
}

// generateTrials builds num_iterations jobs sharing one set of Poisson input
// segments and differing only in their engine seed.
func generateTrials(cfg *config.Config, sel *model.Selection, ref ModelRef, rng *rand.Rand) (*model.Manifest, error) {
	settings, err := trialSettingsFrom(cfg.PoissonInputs)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("trial family needs a random source")
	}

	targets, err := selection.SelectInputs(ref.Dir, ref.Cell, cfg.PoissonInputs.NumInputs, cfg.Default.SegmentMarkerSize, rng)
	if err != nil {
		return nil, err
	}

	m := model.NewManifest(model.FamilyTrial)
	for i := 0; i < cfg.PoissonInputs.NumIterations; i++ {
		seed := int64(rng.Intn(maxSeed))
		doc, err := trialNetwork(ref, cfg.PoissonInputs.Temperature, settings, targets, i)
		if err != nil {
			return nil, err
		}
		sim := lems.New("", settings.duration, settings.dt)
		sim.Seed = model.Int64(seed)
		job, err := newJob(model.FamilyTrial, i, ref, doc, sim, sel)
		if err != nil {
			return nil, err
		}
		job.RateHz = model.Float64(settings.rate)
		job.Seed = model.Int64(seed)
		if err := m.Add(job); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func trialNetwork(ref ModelRef, temperature string, s trialSettings, targets *model.Selection, index int) (*neuroml.Document, error) {
	doc := baseNetwork(ref, temperature)
	doc.ExpTwoSynapses = append(doc.ExpTwoSynapses, s.synapse)
	gen := neuroml.SpikeGeneratorPoisson{
		ID:          fmt.Sprintf("pi_%d_0", index),
		AverageRate: units.Format(s.rate, units.Rate),
	}
	doc.SpikeGeneratorPoissons = append(doc.SpikeGeneratorPoissons, gen)

	ids := targets.IDs()
	net := &doc.Networks[0]
	net.Populations = append(net.Populations, neuroml.Population{
		ID:        inputPopulation,
		Component: gen.ID,
		Size:      len(ids),
	})
	proj := neuroml.Projection{
		ID:                     inputProjection,
		PresynapticPopulation:  inputPopulation,
		PostsynapticPopulation: ref.populationID(),
		Synapse:                synapseID,
	}
	for n, id := range ids {
		seg, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("input segment %q: %w", id, err)
		}
		proj.Connections = append(proj.Connections, neuroml.Connection{
			ID:                n,
			PreCellID:         fmt.Sprintf("../%s[%d]", inputPopulation, n),
			PreSegmentID:      0,
			PreFractionAlong:  0.5,
			PostCellID:        fmt.Sprintf("../%s/0/%s/", ref.populationID(), ref.Cell.ID),
			PostSegmentID:     seg,
			PostFractionAlong: 0.5,
		})
	}
	net.Projections = append(net.Projections, proj)
	return doc, nil
}
