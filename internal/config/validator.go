package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"neuromlcap/internal/model"
	"neuromlcap/internal/units"
)

// Validator checks a decoded configuration once, at load time, so that
// later stages never discover missing or inconsistent settings.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return model.NewConfigError("", "configuration is nil")
	}
	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &model.ConfigError{Reason: "validation error", Err: err}
		}
		msgs := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			msgs = append(msgs, formatValidationError(e))
		}
		return model.NewConfigError(fieldKey(validationErrs[0].Namespace()), "%s", strings.Join(msgs, "; "))
	}

	if cfg.Default.FICurves {
		if err := validateFICurves(cfg.FICurves); err != nil {
			return err
		}
	}
	if cfg.Default.PoissonInputs {
		if err := validatePoissonInputs(cfg.PoissonInputs); err != nil {
			return err
		}
	}
	return nil
}

func validateFICurves(c FICurvesConfig) error {
	if len(c.Currents) == 0 {
		if c.CurrentsMin == "" {
			return model.NewConfigError("fi_curves.currents_min", "required when fi_curves.currents is empty")
		}
		if c.CurrentsMax == "" {
			return model.NewConfigError("fi_curves.currents_max", "required when fi_curves.currents is empty")
		}
		if c.CurrentsSteps <= 0 {
			return model.NewConfigError("fi_curves.currents_steps", "must be positive (got: %d)", c.CurrentsSteps)
		}
		if err := checkUnit("fi_curves.currents_min", c.CurrentsMin, units.Current); err != nil {
			return err
		}
		if err := checkUnit("fi_curves.currents_max", c.CurrentsMax, units.Current); err != nil {
			return err
		}
		lo, _ := units.NanoAmps(c.CurrentsMin)
		hi, _ := units.NanoAmps(c.CurrentsMax)
		if hi < lo {
			return model.NewConfigError("fi_curves.currents_max", "%s is below currents_min %s", c.CurrentsMax, c.CurrentsMin)
		}
	}
	if c.Dt <= 0 {
		return model.NewConfigError("fi_curves.dt", "must be positive (got: %v)", c.Dt)
	}
	if err := checkUnits([]quantityKey{
		{"fi_curves.sim_duration", c.SimDuration, units.Time},
		{"fi_curves.stim_start", c.StimStart, units.Time},
		{"fi_curves.stim_duration", c.StimDuration, units.Time},
		{"fi_curves.temperature", c.Temperature, units.Temperature},
		{"fi_curves.spike_threshold", c.SpikeThreshold, units.Voltage},
	}); err != nil {
		return err
	}
	if d, _ := units.Millis(c.SimDuration); d <= 0 {
		return model.NewConfigError("fi_curves.sim_duration", "must be positive (got: %s)", c.SimDuration)
	}
	if d, _ := units.Millis(c.StimDuration); d <= 0 {
		return model.NewConfigError("fi_curves.stim_duration", "must be positive (got: %s)", c.StimDuration)
	}
	return nil
}

func validatePoissonInputs(c PoissonInputsConfig) error {
	if c.NumInputs <= 0 {
		return model.NewConfigError("poisson_inputs.num_inputs", "must be positive (got: %d)", c.NumInputs)
	}
	if c.NumIterations <= 0 {
		return model.NewConfigError("poisson_inputs.num_iterations", "must be positive (got: %d)", c.NumIterations)
	}
	if c.HzInputs <= 0 {
		return model.NewConfigError("poisson_inputs.hz_inputs", "must be positive (got: %v)", c.HzInputs)
	}
	if c.Dt <= 0 {
		return model.NewConfigError("poisson_inputs.dt", "must be positive (got: %v)", c.Dt)
	}
	return checkUnits([]quantityKey{
		{"poisson_inputs.sim_duration", c.SimDuration, units.Time},
		{"poisson_inputs.temperature", c.Temperature, units.Temperature},
		{"poisson_inputs.syn_gbase", c.SynGbase, units.Conductance},
		{"poisson_inputs.syn_erev", c.SynErev, units.Voltage},
		{"poisson_inputs.syn_tau_rise", c.SynTauRise, units.Time},
		{"poisson_inputs.syn_tau_decay", c.SynTauDecay, units.Time},
	})
}

type quantityKey struct {
	key   string
	value string
	dim   units.Dimension
}

func checkUnits(qs []quantityKey) error {
	for _, q := range qs {
		if err := checkUnit(q.key, q.value, q.dim); err != nil {
			return err
		}
	}
	return nil
}

func checkUnit(key, value string, dim units.Dimension) error {
	if _, err := units.Convert(value, dim); err != nil {
		return &model.ConfigError{Key: key, Err: err}
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	key := fieldKey(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", key, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got: %v)", key, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", key, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got: %v)", key, e.Tag(), e.Value())
	}
}

// fieldKey maps a validator namespace like "Config.Default.NumSegsRecord" to
// the document key "default.num_segs_record".
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower && runes[i-1] >= 'A' && runes[i-1] <= 'Z' {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
