// Package units parses NeuroML style quantity strings such as "0.4 nA" or
// "1500ms" and converts them to the scale the pipeline computes in.
package units

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var quantityRE = regexp.MustCompile(`^\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*([A-Za-z_]*)\s*$`)

// Dimension groups units that convert into each other.
type Dimension string

const (
	Current     Dimension = "current"
	Time        Dimension = "time"
	Voltage     Dimension = "voltage"
	Conductance Dimension = "conductance"
	Rate        Dimension = "rate"
	Temperature Dimension = "temperature"
)

// factors to the base unit of each dimension: nA, ms, mV, nS, Hz, degC.
var table = map[Dimension]map[string]float64{
	Current:     {"A": 1e9, "mA": 1e6, "uA": 1e3, "nA": 1, "pA": 1e-3},
	Time:        {"s": 1e3, "ms": 1, "us": 1e-3},
	Voltage:     {"V": 1e3, "mV": 1, "uV": 1e-3},
	Conductance: {"S": 1e9, "mS": 1e6, "uS": 1e3, "nS": 1, "pS": 1e-3},
	Rate:        {"Hz": 1, "per_s": 1, "per_ms": 1e3, "kHz": 1e3},
	Temperature: {"degC": 1},
}

var baseUnit = map[Dimension]string{
	Current:     "nA",
	Time:        "ms",
	Voltage:     "mV",
	Conductance: "nS",
	Rate:        "Hz",
	Temperature: "degC",
}

// Quantity is a parsed magnitude and unit symbol.
type Quantity struct {
	Value float64
	Unit  string
}

func (q Quantity) String() string {
	if q.Unit == "" {
		return strconv.FormatFloat(q.Value, 'g', -1, 64)
	}
	return strconv.FormatFloat(q.Value, 'g', -1, 64) + q.Unit
}

func Parse(s string) (Quantity, error) {
	m := quantityRE.FindStringSubmatch(s)
	if m == nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return Quantity{Value: v, Unit: m[2]}, nil
}

// Convert parses s and returns its magnitude in the base unit of dim.
// A bare number is taken to already be in the base unit.
func Convert(s string, dim Dimension) (float64, error) {
	q, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if q.Unit == "" {
		return q.Value, nil
	}
	factor, ok := table[dim][q.Unit]
	if !ok {
		return 0, fmt.Errorf("unit %q is not a %s unit (want one of %s)", q.Unit, dim, strings.Join(Symbols(dim), ", "))
	}
	return q.Value * factor, nil
}

// Format renders a base-unit magnitude, for example Format(0.2, Current) is "0.2nA".
func Format(v float64, dim Dimension) string {
	return Quantity{Value: v, Unit: baseUnit[dim]}.String()
}

func Symbols(dim Dimension) []string {
	out := make([]string, 0, len(table[dim]))
	for sym := range table[dim] {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func NanoAmps(s string) (float64, error) {
	return Convert(s, Current)
}

func Millis(s string) (float64, error) {
	return Convert(s, Time)
}

func Millivolts(s string) (float64, error) {
	return Convert(s, Voltage)
}

func Hertz(s string) (float64, error) {
	return Convert(s, Rate)
}

func NanoSiemens(s string) (float64, error) {
	return Convert(s, Conductance)
}

func DegreesC(s string) (float64, error) {
	return Convert(s, Temperature)
}
