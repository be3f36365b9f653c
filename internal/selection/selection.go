// Package selection picks the segments recorded in every simulation and
// gives each one a distinct marker.
package selection

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/model"
	"neuromlcap/internal/morphology"
)

type Mode string

const (
	ModeNew    Mode = "new"
	ModeResume Mode = "resume"
)

// Select returns the recorded-segment selection of the analysis in dir.
//
// In ModeNew it samples cfg.Default.NumSegsRecord unbranched groups with rng,
// takes the midpoint segment of each, adds the anchor and the configured
// extra segments, colors the result and persists it before returning. In
// ModeResume it reads the persisted selection and never touches rng.
func Select(dir string, m morphology.Morphology, cfg *config.Config, mode Mode, rng *rand.Rand) (*model.Selection, error) {
	switch mode {
	case ModeResume:
		return Load(dir)
	case ModeNew:
	default:
		return nil, fmt.Errorf("unknown selection mode: %s", mode)
	}

	ids, err := selectIDs(m, cfg.Default.NumSegsRecord, cfg.Default.ExtraSegmentsRecord, rng)
	if err != nil {
		return nil, err
	}
	sel := colored(ids, cfg.Default.SegmentMarkerSize)
	if err := artifacts.WriteSelection(dir, sel); err != nil {
		return nil, fmt.Errorf("persist selection: %w", err)
	}
	return sel, nil
}

// Load reads the persisted recorded-segment selection of dir.
func Load(dir string) (*model.Selection, error) {
	sel, ok, err := artifacts.ReadSelection(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.NotFoundError{What: "segment selection", Path: filepath.Join(dir, artifacts.SelectionFile)}
	}
	return sel, nil
}

// Check reports the configuration errors a ModeNew Select would fail with on
// m, without drawing from any random source.
func Check(m morphology.Morphology, cfg *config.Config) error {
	return checkCounts(m, cfg.Default.NumSegsRecord, cfg.Default.ExtraSegmentsRecord)
}

func checkCounts(m morphology.Morphology, n int, extra []int) error {
	if n < 0 {
		return model.NewConfigError("default.num_segs_record", "must not be negative")
	}
	if groups := m.UnbranchedGroups(); n > len(groups) {
		return model.NewConfigError("default.num_segs_record",
			"%d segments requested but the cell has only %d unbranched groups", n, len(groups))
	}
	for _, id := range extra {
		if !m.HasSegment(id) {
			return model.NewConfigError("default.extra_segments_record", "segment %d not in morphology", id)
		}
	}
	return nil
}

func selectIDs(m morphology.Morphology, n int, extra []int, rng *rand.Rand) ([]string, error) {
	if err := checkCounts(m, n, extra); err != nil {
		return nil, err
	}

	ids := []string{model.AnchorSegment}
	for _, group := range sample(m.UnbranchedGroups(), n, rng) {
		segs, err := m.SegmentsInGroup(group)
		if err != nil {
			return nil, err
		}
		if len(segs) == 0 {
			return nil, fmt.Errorf("segment group %s is empty", group)
		}
		ids = append(ids, strconv.Itoa(segs[len(segs)/2]))
	}
	for _, id := range extra {
		ids = append(ids, strconv.Itoa(id))
	}
	return ids, nil
}

// colored builds a selection from ids, dropping repeats before the color ramp
// is sized so every entry gets its own color.
func colored(ids []string, size float64) *model.Selection {
	seen := make(map[string]bool, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	colors := Ramp(len(unique))
	sel := model.NewSelection()
	for i, id := range unique {
		sel.Add(id, model.Marker{Size: size, Color: colors[i]})
	}
	return sel
}

// sample draws k distinct elements of population without replacement. The
// result depends only on population order and the state of rng.
func sample[T any](population []T, k int, rng *rand.Rand) []T {
	pool := append([]T(nil), population...)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
