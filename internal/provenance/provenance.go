// Package provenance reloads what an earlier generation pass persisted and
// turns it into rendering requests. Nothing here recomputes a selection or a
// manifest.
package provenance

import (
	"fmt"
	"path/filepath"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/model"
	"neuromlcap/internal/selection"
)

type Provenance struct {
	Dir       string
	Selection *model.Selection
	// Inputs is the Poisson input target selection, nil unless the trial
	// family was loaded.
	Inputs    *model.Selection
	Manifests []*model.Manifest
}

// RenderRequest asks for one time-series plot of a job's recorded channels.
type RenderRequest struct {
	JobID    string
	Family   model.FamilyKind
	SimFile  string
	DataFile string
	Channels []model.Channel
	Label    string
	Current  *float64
}

// Load reads the selection and the manifest of every family in families from
// dir. A missing file is a NotFoundError: an enabled family without a
// manifest means its generation failed.
func Load(dir string, families []model.FamilyKind) (*Provenance, error) {
	sel, err := selection.Load(dir)
	if err != nil {
		return nil, err
	}
	p := &Provenance{Dir: dir, Selection: sel}
	for _, family := range families {
		m, ok, err := artifacts.ReadManifest(dir, family)
		if err != nil {
			return nil, err
		}
		if !ok {
			name, _ := artifacts.ManifestFile(family)
			return nil, &model.NotFoundError{What: string(family) + " manifest", Path: filepath.Join(dir, name)}
		}
		if family == model.FamilyTrial {
			inputs, err := selection.LoadInputs(dir)
			if err != nil {
				return nil, err
			}
			p.Inputs = inputs
		}
		p.Manifests = append(p.Manifests, m)
	}
	return p, nil
}

// Manifest returns the loaded manifest of family, if any.
func (p *Provenance) Manifest(family model.FamilyKind) (*model.Manifest, bool) {
	for _, m := range p.Manifests {
		if m.Family == family {
			return m, true
		}
	}
	return nil, false
}

// Requests lists one rendering request per job, families in load order and
// jobs in generation order. Channel order follows the selection's color
// assignment.
func (p *Provenance) Requests() []RenderRequest {
	channels := model.Channels(p.Selection)
	var out []RenderRequest
	for _, m := range p.Manifests {
		for _, job := range m.Jobs() {
			out = append(out, RenderRequest{
				JobID:    job.ID,
				Family:   job.Family,
				SimFile:  job.SimFile,
				DataFile: job.DataFile,
				Channels: append([]model.Channel(nil), channels...),
				Label:    Label(job),
				Current:  job.Current,
			})
		}
	}
	return out
}

// Label is the human readable title of a job's plot.
func Label(job model.Job) string {
	switch job.Family {
	case model.FamilySweep:
		if job.Current != nil {
			return fmt.Sprintf("%g nA at soma", *job.Current)
		}
	case model.FamilyTrial:
		if job.Seed != nil {
			return fmt.Sprintf("poisson spike train inputs (seed %d)", *job.Seed)
		}
		return "poisson spike train inputs"
	}
	return job.ID
}
