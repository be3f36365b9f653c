// Package neuromltest builds small synthetic NeuroML cells for tests.
package neuromltest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"neuromlcap/internal/neuroml"
)

// Cell builds a cell with a soma segment 0 and one unbranched dendrite group
// per entry of groupSizes. Segment ids are assigned sequentially from 1, so
// group i holds a contiguous run of ids. A non-section group "all" includes
// every dendrite group.
func Cell(id string, groupSizes []int) neuroml.Cell {
	cell := neuroml.Cell{ID: id}
	m := &cell.Morphology
	m.ID = "morphology"
	m.Segments = append(m.Segments, neuroml.Segment{
		ID:       0,
		Name:     "soma",
		Proximal: &neuroml.Point3D{X: 0, Y: 0, Z: 0, Diameter: 10},
		Distal:   neuroml.Point3D{X: 0, Y: 10, Z: 0, Diameter: 10},
	})
	m.SegmentGroups = append(m.SegmentGroups, neuroml.SegmentGroup{
		ID:      "soma_group",
		Members: []neuroml.Member{{Segment: 0}},
	})

	all := neuroml.SegmentGroup{ID: "all", Includes: []neuroml.GroupInclude{{SegmentGroup: "soma_group"}}}
	next := 1
	for g, size := range groupSizes {
		group := neuroml.SegmentGroup{
			ID:         fmt.Sprintf("dend_%d", g),
			NeuroLexID: neuroml.UnbranchedNeuroLexID,
		}
		parent := 0
		for i := 0; i < size; i++ {
			m.Segments = append(m.Segments, neuroml.Segment{
				ID:     next,
				Name:   fmt.Sprintf("dend_%d_%d", g, i),
				Parent: &neuroml.SegmentParent{Segment: parent},
				Distal: neuroml.Point3D{
					X:        float64((g + 1) * (i + 1) * 5),
					Y:        10 + float64(i*5),
					Z:        float64(g),
					Diameter: 1,
				},
			})
			group.Members = append(group.Members, neuroml.Member{Segment: next})
			parent = next
			next++
		}
		m.SegmentGroups = append(m.SegmentGroups, group)
		all.Includes = append(all.Includes, neuroml.GroupInclude{SegmentGroup: group.ID})
	}
	m.SegmentGroups = append(m.SegmentGroups, all)
	return cell
}

// WriteCell writes Cell(id, groupSizes) to dir/<id>.cell.nml and returns the
// file name relative to dir.
func WriteCell(t testing.TB, dir, id string, groupSizes []int) string {
	t.Helper()
	name := id + ".cell.nml"
	doc := &neuroml.Document{ID: id, Cells: []neuroml.Cell{Cell(id, groupSizes)}}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := neuroml.WriteFile(filepath.Join(dir, name), doc); err != nil {
		t.Fatalf("write cell: %v", err)
	}
	return name
}
