package timeline

// FillGaps turns validated word intervals into a contiguous segment
// timeline covering [0, duration]. Uncovered ranges between consecutive
// intervals, before the first interval, and after the last interval are
// emitted as silent gap segments, so the concatenated output keeps the
// source's full length.
//
// Precondition: intervals are ordered by Start and lie within
// [0, duration]. Out-of-order input is not repaired.
func FillGaps(intervals []WordInterval, duration float64) []Segment {
	segments := make([]Segment, 0, 2*len(intervals)+1)

	previousEnd := 0.0
	for _, interval := range intervals {
		if interval.Start > previousEnd {
			segments = append(segments, Segment{Start: previousEnd, End: interval.Start})
		}
		segments = append(segments, Segment{
			Start: interval.Start,
			End:   interval.End,
			Text:  interval.Word,
		})
		previousEnd = interval.End
	}

	// Trailing silence past the last word still belongs to the output.
	if duration > previousEnd {
		segments = append(segments, Segment{Start: previousEnd, End: duration})
	}

	return segments
}
