package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Color is an RGBA tuple with components in [0, 1].
type Color [4]float64

// Marker is the visual identity of one recorded segment.
type Marker struct {
	Size  float64 `json:"marker_size"`
	Color Color   `json:"marker_color"`
}

// FamilyKind names a job family. The value doubles as the config toggle name.
type FamilyKind string

const (
	FamilySweep FamilyKind = "fi_curves"
	FamilyTrial FamilyKind = "poisson_inputs"
)

// JobPrefix returns the job id prefix used for a family.
func (k FamilyKind) JobPrefix() string {
	switch k {
	case FamilySweep:
		return "step_current_sim"
	case FamilyTrial:
		return "poisson_stim_sim"
	default:
		return string(k)
	}
}

// Stimulus holds the parameters that distinguish jobs inside one family.
// Sweep jobs carry Segment and Current (nA); trial jobs carry RateHz and Seed.
type Stimulus struct {
	Segment string   `json:"segment,omitempty" yaml:"segment,omitempty"`
	Current *float64 `json:"current,omitempty" yaml:"current,omitempty"`
	RateHz  *float64 `json:"rate_hz,omitempty" yaml:"rate_hz,omitempty"`
	Seed    *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Job is one simulation unit. ID and Channels are not persisted with the job:
// the id is the manifest key and channels are derived from the selection.
type Job struct {
	ID       string     `json:"-" yaml:"id"`
	Family   FamilyKind `json:"family" yaml:"family"`
	Index    int        `json:"index" yaml:"index"`
	SimFile  string     `json:"simfile" yaml:"simfile"`
	NetFile  string     `json:"netfile" yaml:"netfile"`
	DataFile string     `json:"datafile" yaml:"datafile"`
	Stimulus `yaml:",inline"`
	Channels []Channel `json:"-" yaml:"-"`
}

// Channel is one recorded output column, tied to a selected segment.
type Channel struct {
	Segment string `json:"segment" yaml:"segment"`
	Column  string `json:"column" yaml:"column"`
	Marker  Marker `json:"marker" yaml:"marker"`
}

// AnalysisRecord indexes one analysis directory.
type AnalysisRecord struct {
	VersionedRecord
	ID           string       `json:"id"`
	Dir          string       `json:"dir"`
	CellFile     string       `json:"cell_file"`
	Seed         int64        `json:"seed"`
	Families     []FamilyKind `json:"families"`
	Segments     int          `json:"segments"`
	Jobs         int          `json:"jobs"`
	Executed     bool         `json:"executed"`
	CreatedAtUTC string       `json:"created_at_utc"`
}

func Float64(v float64) *float64 { return &v }

func Int64(v int64) *int64 { return &v }
