package config

import "github.com/spf13/viper"

const (
	DefaultEngine     = "jnml"
	DefaultMaxWorkers = 4
	DefaultMarkerSize = 10.0
)

// DefaultPlanes are the projections morphology plots are drawn in.
var DefaultPlanes = []string{"xy", "yz", "zx"}

// requiredKeys must be present in every configuration document.
var requiredKeys = []string{
	"default.seed",
	"default.cell_dir",
	"default.cell_file",
}

// toggleKeys are the feature switches; at least one must be set.
var toggleKeys = []string{
	"default.plot_morphology",
	"default.fi_curves",
	"default.poisson_inputs",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default.extra_lems_definition_files", []string{})
	v.SetDefault("default.extra_segments_record", []int{})
	v.SetDefault("default.num_segs_record", 0)
	v.SetDefault("default.segment_marker_size", DefaultMarkerSize)
	v.SetDefault("default.engine", DefaultEngine)
	v.SetDefault("default.max_workers", DefaultMaxWorkers)
	v.SetDefault("default.output_dir", ".")
	v.SetDefault("default.planes", DefaultPlanes)

	v.SetDefault("fi_curves.currents", []float64{})
	v.SetDefault("fi_curves.spike_threshold", "0 mV")

	v.SetDefault("poisson_inputs.syn_gbase", "6nS")
	v.SetDefault("poisson_inputs.syn_erev", "0mV")
	v.SetDefault("poisson_inputs.syn_tau_rise", "2ms")
	v.SetDefault("poisson_inputs.syn_tau_decay", "10ms")
}
