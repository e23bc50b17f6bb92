package timeline

// WordInterval is a single transcript token with its timing in seconds
// relative to the start of the source video. An empty Word marks a
// non-speech interval that is still rendered as plain video.
type WordInterval struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one renderable slice of the source timeline. Segments with
// empty Text are silent gaps and get no overlay.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// HasText reports whether the segment carries a caption overlay.
func (s Segment) HasText() bool {
	return s.Text != ""
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}
