package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"

	"neuromlcap/internal/model"
)

// Load reads a TOML configuration document, applies defaults and validates
// it. Every failure is a *model.ConfigError.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, model.NewConfigError("", "config file path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &model.ConfigError{Reason: "read " + path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, &model.ConfigError{Reason: "parse " + path, Err: err}
	}
	if err := checkKeys(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &model.ConfigError{Reason: "decode " + path, Err: err}
	}
	cfg.path = path

	if err := NewValidator().Validate(&cfg); err != nil {
		var cerr *model.ConfigError
		if errors.As(err, &cerr) {
			return nil, cerr
		}
		return nil, &model.ConfigError{Reason: "validate " + path, Err: err}
	}
	return &cfg, nil
}

func checkKeys(v *viper.Viper) error {
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return model.NewConfigError(key, "required key is missing")
		}
	}
	anyToggle := false
	for _, key := range toggleKeys {
		if v.IsSet(key) {
			anyToggle = true
			break
		}
	}
	if !anyToggle {
		return model.NewConfigError("default", "at least one of %v must be set", toggleKeys)
	}

	if v.GetBool("default.fi_curves") {
		for _, key := range []string{"fi_curves.sim_duration", "fi_curves.dt", "fi_curves.temperature", "fi_curves.stim_start", "fi_curves.stim_duration"} {
			if !v.IsSet(key) {
				return model.NewConfigError(key, "required when default.fi_curves is enabled")
			}
		}
	}
	if v.GetBool("default.poisson_inputs") {
		for _, key := range []string{"poisson_inputs.num_inputs", "poisson_inputs.num_iterations", "poisson_inputs.hz_inputs", "poisson_inputs.sim_duration", "poisson_inputs.dt", "poisson_inputs.temperature"} {
			if !v.IsSet(key) {
				return model.NewConfigError(key, "required when default.poisson_inputs is enabled")
			}
		}
	}
	return nil
}
