package selection

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/model"
	"neuromlcap/internal/morphology"
)

// SelectInputs samples n segments of the whole cell as synaptic input
// targets and persists them next to the recorded selection.
func SelectInputs(dir string, m morphology.Morphology, n int, size float64, rng *rand.Rand) (*model.Selection, error) {
	if err := CheckInputs(m, n); err != nil {
		return nil, err
	}

	picked := sample(m.SegmentIDs(), n, rng)
	ids := make([]string, len(picked))
	for i, id := range picked {
		ids[i] = strconv.Itoa(id)
	}
	sel := colored(ids, size)
	if err := artifacts.WriteInputSelection(dir, sel); err != nil {
		return nil, fmt.Errorf("persist input selection: %w", err)
	}
	return sel, nil
}

// CheckInputs reports whether m has enough segments for n input targets.
func CheckInputs(m morphology.Morphology, n int) error {
	if n <= 0 {
		return model.NewConfigError("poisson_inputs.num_inputs", "must be positive")
	}
	if total := len(m.SegmentIDs()); n > total {
		return model.NewConfigError("poisson_inputs.num_inputs",
			"%d inputs requested but the cell has only %d segments", n, total)
	}
	return nil
}

func LoadInputs(dir string) (*model.Selection, error) {
	sel, ok, err := artifacts.ReadInputSelection(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.NotFoundError{What: "input selection", Path: filepath.Join(dir, artifacts.InputSelectionFile)}
	}
	return sel, nil
}
