// Package config loads and validates the analysis configuration document.
package config

import (
	"neuromlcap/internal/model"
)

// Config is the typed analysis configuration. It is never mutated after Load.
type Config struct {
	Default       DefaultConfig       `mapstructure:"default" toml:"default"`
	FICurves      FICurvesConfig      `mapstructure:"fi_curves" toml:"fi_curves"`
	PoissonInputs PoissonInputsConfig `mapstructure:"poisson_inputs" toml:"poisson_inputs"`

	path string
}

type DefaultConfig struct {
	Seed                     int64    `mapstructure:"seed" toml:"seed"`
	CellDir                  string   `mapstructure:"cell_dir" toml:"cell_dir" validate:"required"`
	CellFile                 string   `mapstructure:"cell_file" toml:"cell_file" validate:"required"`
	ExtraLEMSDefinitionFiles []string `mapstructure:"extra_lems_definition_files" toml:"extra_lems_definition_files"`
	PlotMorphology           bool     `mapstructure:"plot_morphology" toml:"plot_morphology"`
	FICurves                 bool     `mapstructure:"fi_curves" toml:"fi_curves"`
	PoissonInputs            bool     `mapstructure:"poisson_inputs" toml:"poisson_inputs"`
	NumSegsRecord            int      `mapstructure:"num_segs_record" toml:"num_segs_record" validate:"min=0"`
	ExtraSegmentsRecord      []int    `mapstructure:"extra_segments_record" toml:"extra_segments_record" validate:"dive,min=0"`
	SegmentMarkerSize        float64  `mapstructure:"segment_marker_size" toml:"segment_marker_size" validate:"gt=0"`
	Engine                   string   `mapstructure:"engine" toml:"engine" validate:"oneof=jnml jnml_neuron pynml"`
	MaxWorkers               int      `mapstructure:"max_workers" toml:"max_workers" validate:"min=1"`
	OutputDir                string   `mapstructure:"output_dir" toml:"output_dir"`
	Planes                   []string `mapstructure:"planes" toml:"planes" validate:"min=1,dive,oneof=xy yz zx"`
}

// FICurvesConfig describes the step-current sweep. Currents are in nA; when
// empty the sweep spans CurrentsMin..CurrentsMax in CurrentsSteps points.
type FICurvesConfig struct {
	Currents       []float64 `mapstructure:"currents" toml:"currents"`
	CurrentsMin    string    `mapstructure:"currents_min" toml:"currents_min"`
	CurrentsMax    string    `mapstructure:"currents_max" toml:"currents_max"`
	CurrentsSteps  int       `mapstructure:"currents_steps" toml:"currents_steps"`
	SimDuration    string    `mapstructure:"sim_duration" toml:"sim_duration"`
	Dt             float64   `mapstructure:"dt" toml:"dt"`
	Temperature    string    `mapstructure:"temperature" toml:"temperature"`
	StimStart      string    `mapstructure:"stim_start" toml:"stim_start"`
	StimDuration   string    `mapstructure:"stim_duration" toml:"stim_duration"`
	SpikeThreshold string    `mapstructure:"spike_threshold" toml:"spike_threshold"`
}

type PoissonInputsConfig struct {
	NumInputs     int     `mapstructure:"num_inputs" toml:"num_inputs"`
	NumIterations int     `mapstructure:"num_iterations" toml:"num_iterations"`
	HzInputs      float64 `mapstructure:"hz_inputs" toml:"hz_inputs"`
	SimDuration   string  `mapstructure:"sim_duration" toml:"sim_duration"`
	Dt            float64 `mapstructure:"dt" toml:"dt"`
	Temperature   string  `mapstructure:"temperature" toml:"temperature"`
	SynGbase      string  `mapstructure:"syn_gbase" toml:"syn_gbase"`
	SynErev       string  `mapstructure:"syn_erev" toml:"syn_erev"`
	SynTauRise    string  `mapstructure:"syn_tau_rise" toml:"syn_tau_rise"`
	SynTauDecay   string  `mapstructure:"syn_tau_decay" toml:"syn_tau_decay"`
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// EnabledFamilies lists the job families switched on, sweep first.
func (c *Config) EnabledFamilies() []model.FamilyKind {
	var out []model.FamilyKind
	if c.Default.FICurves {
		out = append(out, model.FamilySweep)
	}
	if c.Default.PoissonInputs {
		out = append(out, model.FamilyTrial)
	}
	return out
}
