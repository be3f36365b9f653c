package model

import "fmt"

// Manifest maps job ids to job metadata for one family, in generation order.
type Manifest struct {
	Family FamilyKind
	ids    []string
	jobs   map[string]Job
}

func NewManifest(family FamilyKind) *Manifest {
	return &Manifest{Family: family, jobs: make(map[string]Job)}
}

func (m *Manifest) Add(job Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if m.jobs == nil {
		m.jobs = make(map[string]Job)
	}
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("duplicate job id: %s", job.ID)
	}
	if job.Family == "" {
		job.Family = m.Family
	}
	m.ids = append(m.ids, job.ID)
	m.jobs[job.ID] = job
	return nil
}

func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

func (m *Manifest) Job(id string) (Job, bool) {
	if m == nil {
		return Job{}, false
	}
	job, ok := m.jobs[id]
	return job, ok
}

// Jobs returns the jobs in generation order.
func (m *Manifest) Jobs() []Job {
	if m == nil {
		return nil
	}
	out := make([]Job, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.jobs[id])
	}
	return out
}

// WithChannels returns a copy of the manifest whose jobs record every
// channel of the selection.
func (m *Manifest) WithChannels(s *Selection) *Manifest {
	out := NewManifest(m.Family)
	channels := Channels(s)
	for _, job := range m.Jobs() {
		job.Channels = append([]Channel(nil), channels...)
		// ids are unique and non-empty in m, so Add cannot fail.
		_ = out.Add(job)
	}
	return out
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.ids, m.jobs)
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	ids, jobs, err := unmarshalOrdered[Job](data)
	if err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}
	for _, id := range ids {
		job := jobs[id]
		job.ID = id
		jobs[id] = job
		if m.Family == "" {
			m.Family = job.Family
		}
	}
	m.ids = ids
	m.jobs = jobs
	return nil
}
