package timeline

import "github.com/denysyudin/captionize/pkg/log"

// Validate filters the raw transcript against the source duration.
// Intervals with end <= start, a negative start, or an end past the video
// duration are dropped without failing the whole transcript; noisy ASR
// output routinely contains a few malformed entries and partial coverage
// beats total failure. Order is preserved.
func Validate(intervals []WordInterval, duration float64) []WordInterval {
	valid := make([]WordInterval, 0, len(intervals))
	for _, interval := range intervals {
		if interval.End <= interval.Start || interval.Start < 0 || interval.End > duration {
			log.Debug("Dropping malformed interval %q [%.3f, %.3f]", interval.Word, interval.Start, interval.End)
			continue
		}
		valid = append(valid, interval)
	}
	return valid
}
