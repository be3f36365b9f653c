package model

import "fmt"

// AnchorSegment is the root (soma) segment, always recorded.
const AnchorSegment = "0"

// Selection maps segment ids to markers and remembers insertion order, which
// is also the order colors were assigned in. It is built once by the selector
// and read-only afterwards.
type Selection struct {
	ids     []string
	markers map[string]Marker
}

func NewSelection() *Selection {
	return &Selection{markers: make(map[string]Marker)}
}

// Add appends a segment. It reports false and leaves the selection untouched
// when the segment is already present.
func (s *Selection) Add(id string, marker Marker) bool {
	if s.markers == nil {
		s.markers = make(map[string]Marker)
	}
	if _, ok := s.markers[id]; ok {
		return false
	}
	s.ids = append(s.ids, id)
	s.markers[id] = marker
	return true
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

func (s *Selection) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.markers[id]
	return ok
}

func (s *Selection) Marker(id string) (Marker, bool) {
	if s == nil {
		return Marker{}, false
	}
	m, ok := s.markers[id]
	return m, ok
}

// IDs returns the segment ids in color-assignment order.
func (s *Selection) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

func (s *Selection) MarshalJSON() ([]byte, error) {
	return marshalOrdered(s.ids, s.markers)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	ids, markers, err := unmarshalOrdered[Marker](data)
	if err != nil {
		return fmt.Errorf("decode selection: %w", err)
	}
	s.ids = ids
	s.markers = markers
	return nil
}

// ColumnID names the output column recording the membrane potential of a
// segment of the single instrumented cell.
func ColumnID(segment string) string {
	return "v_cell_0_" + segment
}

// Channels derives the recorded output channels from a selection. Generation
// and plotting both go through here so the channel-to-color mapping of a job
// cannot drift between the two.
func Channels(s *Selection) []Channel {
	if s == nil {
		return nil
	}
	out := make([]Channel, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, Channel{
			Segment: id,
			Column:  ColumnID(id),
			Marker:  s.markers[id],
		})
	}
	return out
}
