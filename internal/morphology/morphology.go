// Package morphology is the read-only view of a cell's morphology the
// selection stage works against.
package morphology

// Morphology exposes segments and named segment groups of one cell.
type Morphology interface {
	// UnbranchedGroups lists the ids of unbranched segment groups in a
	// stable order.
	UnbranchedGroups() []string
	// SegmentsInGroup returns the ordered segment ids of a group.
	SegmentsInGroup(group string) ([]int, error)
	// SegmentIDs lists every segment id in a stable order.
	SegmentIDs() []int
	HasSegment(id int) bool
}

// Group is an in-memory segment group.
type Group struct {
	ID         string
	Segments   []int
	Unbranched bool
}

// Static is a Morphology backed by plain slices. Segment ids are the union of
// Extra and every group's segments, in first-seen order.
type Static struct {
	Groups []Group
	Extra  []int
}

func (s Static) UnbranchedGroups() []string {
	var out []string
	for _, g := range s.Groups {
		if g.Unbranched {
			out = append(out, g.ID)
		}
	}
	return out
}

func (s Static) SegmentsInGroup(group string) ([]int, error) {
	for _, g := range s.Groups {
		if g.ID == group {
			return append([]int(nil), g.Segments...), nil
		}
	}
	return nil, &UnknownGroupError{Group: group}
}

func (s Static) SegmentIDs() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range s.Extra {
		add(id)
	}
	for _, g := range s.Groups {
		for _, id := range g.Segments {
			add(id)
		}
	}
	return out
}

func (s Static) HasSegment(id int) bool {
	for _, sid := range s.SegmentIDs() {
		if sid == id {
			return true
		}
	}
	return false
}

type UnknownGroupError struct {
	Group string
}

func (e *UnknownGroupError) Error() string {
	return "unknown segment group: " + e.Group
}
