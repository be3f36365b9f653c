// Package lems builds the LEMS simulation documents that drive the engine.
// Only the elements the job families need are emitted.
package lems

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Standard component definitions shipped with every NeuroML-aware engine.
var coreIncludes = []string{"Cells.xml", "Networks.xml", "Simulation.xml"}

type Simulation struct {
	ID       string
	Duration float64 // ms
	Dt       float64 // ms
	Seed     *int64
	Target   string

	includes    []string
	outputFiles []*OutputFile
}

type OutputFile struct {
	ID       string
	FileName string
	Columns  []OutputColumn
}

type OutputColumn struct {
	ID       string
	Quantity string
}

func New(id string, duration, dt float64) *Simulation {
	return &Simulation{ID: id, Duration: duration, Dt: dt, includes: append([]string(nil), coreIncludes...)}
}

// IncludeNeuroML references a NeuroML document, relative to the LEMS file.
func (s *Simulation) IncludeNeuroML(file string) { s.include(file) }

// IncludeLEMS references an extra LEMS definition file.
func (s *Simulation) IncludeLEMS(file string) { s.include(file) }

func (s *Simulation) include(file string) {
	for _, f := range s.includes {
		if f == file {
			return
		}
	}
	s.includes = append(s.includes, file)
}

func (s *Simulation) AssignTarget(network string) { s.Target = network }

func (s *Simulation) CreateOutputFile(id, fileName string) *OutputFile {
	of := &OutputFile{ID: id, FileName: fileName}
	s.outputFiles = append(s.outputFiles, of)
	return of
}

func (s *Simulation) AddColumn(fileID, columnID, quantity string) error {
	for _, of := range s.outputFiles {
		if of.ID == fileID {
			of.Columns = append(of.Columns, OutputColumn{ID: columnID, Quantity: quantity})
			return nil
		}
	}
	return fmt.Errorf("output file %s not defined in simulation %s", fileID, s.ID)
}

// FileName is the name SaveToFile writes.
func (s *Simulation) FileName() string { return "LEMS_" + s.ID + ".xml" }

type xmlLems struct {
	XMLName    xml.Name      `xml:"Lems"`
	Target     xmlTarget     `xml:"Target"`
	Includes   []xmlInclude  `xml:"Include"`
	Simulation xmlSimulation `xml:"Simulation"`
}

type xmlTarget struct {
	Component string `xml:"component,attr"`
}

type xmlInclude struct {
	File string `xml:"file,attr"`
}

type xmlSimulation struct {
	ID          string          `xml:"id,attr"`
	Length      string          `xml:"length,attr"`
	Step        string          `xml:"step,attr"`
	Target      string          `xml:"target,attr"`
	Seed        string          `xml:"seed,attr,omitempty"`
	OutputFiles []xmlOutputFile `xml:"OutputFile"`
}

type xmlOutputFile struct {
	ID       string          `xml:"id,attr"`
	FileName string          `xml:"fileName,attr"`
	Columns  []xmlOutputCols `xml:"OutputColumn"`
}

type xmlOutputCols struct {
	ID       string `xml:"id,attr"`
	Quantity string `xml:"quantity,attr"`
}

func (s *Simulation) Marshal() ([]byte, error) {
	if s.Target == "" {
		return nil, fmt.Errorf("simulation %s has no target", s.ID)
	}
	doc := xmlLems{
		Target: xmlTarget{Component: s.ID},
		Simulation: xmlSimulation{
			ID:     s.ID,
			Length: ms(s.Duration),
			Step:   ms(s.Dt),
			Target: s.Target,
		},
	}
	if s.Seed != nil {
		doc.Simulation.Seed = strconv.FormatInt(*s.Seed, 10)
	}
	for _, f := range s.includes {
		doc.Includes = append(doc.Includes, xmlInclude{File: f})
	}
	for _, of := range s.outputFiles {
		out := xmlOutputFile{ID: of.ID, FileName: of.FileName}
		for _, c := range of.Columns {
			out.Columns = append(out.Columns, xmlOutputCols{ID: c.ID, Quantity: c.Quantity})
		}
		doc.Simulation.OutputFiles = append(doc.Simulation.OutputFiles, out)
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode lems: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// SaveToFile writes LEMS_<id>.xml into dir and returns its name.
func (s *Simulation) SaveToFile(dir string) (string, error) {
	data, err := s.Marshal()
	if err != nil {
		return "", err
	}
	name := s.FileName()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "ms"
}
