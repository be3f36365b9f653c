// Package experiment expands the configured protocols into families of
// simulation jobs and persists one manifest per family.
package experiment

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/lems"
	"neuromlcap/internal/model"
	"neuromlcap/internal/morphology"
	"neuromlcap/internal/neuroml"
	"neuromlcap/internal/selection"
)

const (
	networkID  = "network"
	outputFile = "output_file"
)

// ModelRef locates the model the jobs simulate. File names are relative to
// Dir, which is also where the job files are written.
type ModelRef struct {
	Dir        string
	Cell       *neuroml.Cell
	ModelFiles []string
	LEMSFiles  []string
}

func (r ModelRef) populationID() string { return "population_of_" + r.Cell.ID }

// GenerateFamily builds every job of family, writes its network and LEMS
// files into ref.Dir and persists the family manifest. Each job records one
// channel per entry of sel. Trial families draw from rng, first to pick the
// input segments and then one seed per job in job order.
func GenerateFamily(cfg *config.Config, sel *model.Selection, family model.FamilyKind, ref ModelRef, rng *rand.Rand) (*model.Manifest, error) {
	if ref.Cell == nil {
		return nil, fmt.Errorf("model reference has no cell")
	}
	var (
		m   *model.Manifest
		err error
	)
	switch family {
	case model.FamilySweep:
		m, err = generateSweep(cfg.FICurves, sel, ref)
	case model.FamilyTrial:
		m, err = generateTrials(cfg, sel, ref, rng)
	default:
		return nil, fmt.Errorf("unknown job family: %s", family)
	}
	if err != nil {
		return nil, err
	}
	if err := artifacts.WriteManifest(ref.Dir, m); err != nil {
		return nil, fmt.Errorf("persist %s manifest: %w", family, err)
	}
	return m, nil
}

// newJob names the job files and writes the network document and the LEMS
// simulation that records every selected segment.
func newJob(family model.FamilyKind, index int, ref ModelRef, doc *neuroml.Document, sim *lems.Simulation, sel *model.Selection) (model.Job, error) {
	id := fmt.Sprintf("%s_%d", family.JobPrefix(), index)
	job := model.Job{
		ID:       id,
		Family:   family,
		Index:    index,
		NetFile:  id + ".net.nml",
		DataFile: id + ".v.dat",
		Channels: model.Channels(sel),
	}
	doc.ID = id
	sim.ID = id
	if err := neuroml.WriteFile(filepath.Join(ref.Dir, job.NetFile), doc); err != nil {
		return model.Job{}, fmt.Errorf("write %s: %w", job.NetFile, err)
	}

	for _, f := range ref.ModelFiles {
		sim.IncludeNeuroML(f)
	}
	sim.IncludeNeuroML(job.NetFile)
	for _, f := range ref.LEMSFiles {
		sim.IncludeLEMS(f)
	}
	sim.AssignTarget(networkID)
	sim.CreateOutputFile(outputFile, job.DataFile)
	for _, ch := range job.Channels {
		if err := sim.AddColumn(outputFile, ch.Column, quantity(ref, ch.Segment)); err != nil {
			return model.Job{}, err
		}
	}
	name, err := sim.SaveToFile(ref.Dir)
	if err != nil {
		return model.Job{}, fmt.Errorf("write lems for %s: %w", id, err)
	}
	job.SimFile = name
	return job, nil
}

// baseNetwork is a network holding a single instance of the cell.
func baseNetwork(ref ModelRef, temperature string) *neuroml.Document {
	return &neuroml.Document{
		Includes: []neuroml.Include{{Href: ref.ModelFiles[0]}},
		Networks: []neuroml.Network{{
			ID:          networkID,
			Type:        "networkWithTemperature",
			Temperature: temperature,
			Populations: []neuroml.Population{{
				ID:        ref.populationID(),
				Component: ref.Cell.ID,
				Type:      "populationList",
				Size:      1,
				Instances: []neuroml.Instance{{ID: 0}},
			}},
		}},
	}
}

func quantity(ref ModelRef, segment string) string {
	return fmt.Sprintf("%s/0/%s/%s/v", ref.populationID(), ref.Cell.ID, segment)
}

// Check runs the settings of every enabled family against m without writing
// anything, so configuration errors surface before an analysis directory
// exists.
func Check(cfg *config.Config, m morphology.Morphology) error {
	for _, family := range cfg.EnabledFamilies() {
		switch family {
		case model.FamilySweep:
			if _, err := SweepCurrents(cfg.FICurves); err != nil {
				return err
			}
			if _, err := sweepSettings(cfg.FICurves); err != nil {
				return err
			}
		case model.FamilyTrial:
			if _, err := trialSettingsFrom(cfg.PoissonInputs); err != nil {
				return err
			}
			if err := selection.CheckInputs(m, cfg.PoissonInputs.NumInputs); err != nil {
				return err
			}
		}
	}
	return nil
}
