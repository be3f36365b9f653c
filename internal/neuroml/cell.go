package neuroml

import (
	"fmt"
	"strings"
)

// SegmentGroupsBySubstring returns the ids of the groups whose id contains
// sub, in document order. With unbranched set only groups tagged as
// unbranched sections are returned.
func (c *Cell) SegmentGroupsBySubstring(sub string, unbranched bool) []string {
	var out []string
	for _, sg := range c.Morphology.SegmentGroups {
		if !strings.Contains(sg.ID, sub) {
			continue
		}
		if unbranched && sg.NeuroLexID != UnbranchedNeuroLexID {
			continue
		}
		out = append(out, sg.ID)
	}
	return out
}

// UnbranchedGroups implements morphology.Morphology.
func (c *Cell) UnbranchedGroups() []string {
	return c.SegmentGroupsBySubstring("", true)
}

// SegmentsInGroup returns the segments of a group: its members in order,
// followed by the segments of included groups, each segment once.
func (c *Cell) SegmentsInGroup(id string) ([]int, error) {
	groups := make(map[string]*SegmentGroup, len(c.Morphology.SegmentGroups))
	for i := range c.Morphology.SegmentGroups {
		groups[c.Morphology.SegmentGroups[i].ID] = &c.Morphology.SegmentGroups[i]
	}

	seen := make(map[int]bool)
	visiting := make(map[string]bool)
	var out []int
	var collect func(id string) error
	collect = func(id string) error {
		sg, ok := groups[id]
		if !ok {
			return fmt.Errorf("segment group %q not found in cell %s", id, c.ID)
		}
		if visiting[id] {
			return fmt.Errorf("segment group %q includes itself", id)
		}
		visiting[id] = true
		defer delete(visiting, id)
		for _, m := range sg.Members {
			if !seen[m.Segment] {
				seen[m.Segment] = true
				out = append(out, m.Segment)
			}
		}
		for _, inc := range sg.Includes {
			if err := collect(inc.SegmentGroup); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(id); err != nil {
		return nil, err
	}
	return out, nil
}

// SegmentIDs returns every segment id in document order.
func (c *Cell) SegmentIDs() []int {
	out := make([]int, 0, len(c.Morphology.Segments))
	for _, s := range c.Morphology.Segments {
		out = append(out, s.ID)
	}
	return out
}

func (c *Cell) HasSegment(id int) bool {
	_, ok := c.SegmentByID(id)
	return ok
}

func (c *Cell) SegmentByID(id int) (Segment, bool) {
	for _, s := range c.Morphology.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}

// Endpoints returns the proximal and distal points of a segment. A segment
// without its own proximal point starts at its parent's distal point.
func (c *Cell) Endpoints(id int) (Point3D, Point3D, error) {
	seg, ok := c.SegmentByID(id)
	if !ok {
		return Point3D{}, Point3D{}, fmt.Errorf("segment %d not found in cell %s", id, c.ID)
	}
	if seg.Proximal != nil {
		return *seg.Proximal, seg.Distal, nil
	}
	if seg.Parent == nil {
		return seg.Distal, seg.Distal, nil
	}
	parent, ok := c.SegmentByID(seg.Parent.Segment)
	if !ok {
		return Point3D{}, Point3D{}, fmt.Errorf("parent %d of segment %d not found", seg.Parent.Segment, id)
	}
	return parent.Distal, seg.Distal, nil
}
