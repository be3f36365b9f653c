package render

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Trace is a recorded output file: engine time in seconds and one membrane
// potential column per channel, in volts.
type Trace struct {
	Time    []float64
	Columns [][]float64
}

// ReadTrace parses a whitespace separated engine output file with a time
// column followed by want value columns.
func ReadTrace(path string, want int) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr := &Trace{Columns: make([][]float64, want)}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != want+1 {
			return nil, fmt.Errorf("%s:%d: %d columns, want %d", path, line, len(fields), want+1)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		tr.Time = append(tr.Time, t)
		for i, field := range fields[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			tr.Columns[i] = append(tr.Columns[i], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tr, nil
}

// Millis returns the time axis in ms.
func (t *Trace) Millis() []float64 {
	out := append([]float64(nil), t.Time...)
	floats.Scale(1000, out)
	return out
}

// Millivolts returns column i in mV.
func (t *Trace) Millivolts(i int) []float64 {
	out := append([]float64(nil), t.Columns[i]...)
	floats.Scale(1000, out)
	return out
}

// CountSpikes counts upward crossings of threshold in v.
func CountSpikes(v []float64, threshold float64) int {
	n := 0
	for i := 1; i < len(v); i++ {
		if v[i-1] < threshold && v[i] >= threshold {
			n++
		}
	}
	return n
}

// FiringRate is the spike rate in Hz of column i during the stimulus window,
// with times in ms and the threshold in mV.
func (t *Trace) FiringRate(i int, thresholdMV, startMS, durationMS float64) float64 {
	if durationMS <= 0 {
		return 0
	}
	ms := t.Millis()
	mv := t.Millivolts(i)
	var window []float64
	for k, tm := range ms {
		if tm >= startMS && tm <= startMS+durationMS {
			window = append(window, mv[k])
		}
	}
	return float64(CountSpikes(window, thresholdMV)) / (durationMS / 1000)
}
