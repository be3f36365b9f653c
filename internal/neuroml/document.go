// Package neuroml reads cell morphologies from NeuroML v2 documents and
// writes the small network documents the simulation jobs need. Only the
// elements the pipeline touches are modelled; everything else is ignored on
// read.
package neuroml

import (
	"encoding/xml"
)

const Namespace = "http://www.neuroml.org/schema/neuroml2"

// UnbranchedNeuroLexID marks a segment group forming a single unbranched
// path (a "section").
const UnbranchedNeuroLexID = "sao864921383"

type Document struct {
	XMLName                xml.Name                `xml:"neuroml"`
	Xmlns                  string                  `xml:"xmlns,attr,omitempty"`
	ID                     string                  `xml:"id,attr,omitempty"`
	Includes               []Include               `xml:"include"`
	ExpTwoSynapses         []ExpTwoSynapse         `xml:"expTwoSynapse"`
	Cells                  []Cell                  `xml:"cell"`
	PulseGenerators        []PulseGenerator        `xml:"pulseGenerator"`
	SpikeGeneratorPoissons []SpikeGeneratorPoisson `xml:"spikeGeneratorPoisson"`
	Networks               []Network               `xml:"network"`
}

type Include struct {
	Href string `xml:"href,attr"`
}

type Cell struct {
	ID         string     `xml:"id,attr"`
	Morphology Morphology `xml:"morphology"`
}

type Morphology struct {
	ID            string         `xml:"id,attr,omitempty"`
	Segments      []Segment      `xml:"segment"`
	SegmentGroups []SegmentGroup `xml:"segmentGroup"`
}

type Segment struct {
	ID       int            `xml:"id,attr"`
	Name     string         `xml:"name,attr,omitempty"`
	Parent   *SegmentParent `xml:"parent"`
	Proximal *Point3D       `xml:"proximal"`
	Distal   Point3D        `xml:"distal"`
}

type SegmentParent struct {
	Segment       int     `xml:"segment,attr"`
	FractionAlong float64 `xml:"fractionAlong,attr,omitempty"`
}

type Point3D struct {
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Z        float64 `xml:"z,attr"`
	Diameter float64 `xml:"diameter,attr"`
}

type SegmentGroup struct {
	ID         string         `xml:"id,attr"`
	NeuroLexID string         `xml:"neuroLexId,attr,omitempty"`
	Members    []Member       `xml:"member"`
	Includes   []GroupInclude `xml:"include"`
}

type Member struct {
	Segment int `xml:"segment,attr"`
}

type GroupInclude struct {
	SegmentGroup string `xml:"segmentGroup,attr"`
}

type PulseGenerator struct {
	ID        string `xml:"id,attr"`
	Delay     string `xml:"delay,attr"`
	Duration  string `xml:"duration,attr"`
	Amplitude string `xml:"amplitude,attr"`
}

type ExpTwoSynapse struct {
	ID       string `xml:"id,attr"`
	Gbase    string `xml:"gbase,attr"`
	Erev     string `xml:"erev,attr"`
	TauDecay string `xml:"tauDecay,attr"`
	TauRise  string `xml:"tauRise,attr"`
}

type SpikeGeneratorPoisson struct {
	ID          string `xml:"id,attr"`
	AverageRate string `xml:"averageRate,attr"`
}

type Network struct {
	ID          string       `xml:"id,attr"`
	Type        string       `xml:"type,attr,omitempty"`
	Temperature string       `xml:"temperature,attr,omitempty"`
	Populations []Population `xml:"population"`
	Projections []Projection `xml:"projection"`
	InputLists  []InputList  `xml:"inputList"`
}

type Population struct {
	ID        string     `xml:"id,attr"`
	Component string     `xml:"component,attr"`
	Type      string     `xml:"type,attr,omitempty"`
	Size      int        `xml:"size,attr"`
	Instances []Instance `xml:"instance"`
}

type Instance struct {
	ID       int      `xml:"id,attr"`
	Location Location `xml:"location"`
}

type Location struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

type Projection struct {
	ID                     string       `xml:"id,attr"`
	PresynapticPopulation  string       `xml:"presynapticPopulation,attr"`
	PostsynapticPopulation string       `xml:"postsynapticPopulation,attr"`
	Synapse                string       `xml:"synapse,attr"`
	Connections            []Connection `xml:"connection"`
}

type Connection struct {
	ID                int     `xml:"id,attr"`
	PreCellID         string  `xml:"preCellId,attr"`
	PreSegmentID      int     `xml:"preSegmentId,attr"`
	PreFractionAlong  float64 `xml:"preFractionAlong,attr"`
	PostCellID        string  `xml:"postCellId,attr"`
	PostSegmentID     int     `xml:"postSegmentId,attr"`
	PostFractionAlong float64 `xml:"postFractionAlong,attr"`
}

type InputList struct {
	ID         string  `xml:"id,attr"`
	Component  string  `xml:"component,attr"`
	Population string  `xml:"populations,attr"`
	Inputs     []Input `xml:"input"`
}

type Input struct {
	ID          int    `xml:"id,attr"`
	Target      string `xml:"target,attr"`
	Destination string `xml:"destination,attr"`
	SegmentID   int    `xml:"segmentId,attr"`
}
