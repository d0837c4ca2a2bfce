package hls

import (
	"errors"
	"fmt"
)

var ErrEmptyTimeline = errors.New("timeline has no segments")

// TimedSegment places a manifest segment on the stream's absolute clock,
// where time 0 is the start of the first segment currently in the window.
type TimedSegment struct {
	Segment
	Start float64
	End   float64
}

// RangeError reports a requested range with no overlap against the
// available window.
type RangeError struct {
	Start float64
	End   float64
	Total float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("requested range [%.1fs, %.1fs) has no overlap with available window of %.1fs", e.Start, e.End, e.Total)
}

// BuildTimeline assigns cumulative start/end times to segments in manifest
// order. Each segment's end is the next segment's start, so the timeline is
// contiguous by construction. The manifest fetcher already rejects empty
// playlists, but the builder guards on its own as well.
func BuildTimeline(segments []Segment) ([]TimedSegment, float64, error) {
	if len(segments) == 0 {
		return nil, 0, ErrEmptyTimeline
	}
	timeline := make([]TimedSegment, 0, len(segments))
	cursor := 0.0
	for _, seg := range segments {
		timeline = append(timeline, TimedSegment{
			Segment: seg,
			Start:   cursor,
			End:     cursor + seg.Duration,
		})
		cursor += seg.Duration
	}
	return timeline, cursor, nil
}

// SelectRange returns the contiguous run of segments overlapping the
// half-open interval [start, end). A segment is in if it covers any part of
// the interval; segments touching only at a boundary are out. An end past
// the window is clamped by construction since nothing overlaps beyond the
// last segment.
func SelectRange(timeline []TimedSegment, start, end float64) ([]TimedSegment, error) {
	if len(timeline) == 0 {
		return nil, ErrEmptyTimeline
	}
	var selected []TimedSegment
	for _, seg := range timeline {
		if seg.End > start && seg.Start < end {
			selected = append(selected, seg)
		}
	}
	if len(selected) == 0 {
		total := timeline[len(timeline)-1].End
		return nil, &RangeError{Start: start, End: end, Total: total}
	}
	return selected, nil
}

// ClipDuration is the length of output to keep after the trim offset. An
// end past the window is clamped to it, so a request running off the edge
// yields a shorter clip rather than an error.
func ClipDuration(start, end, total float64) float64 {
	if end > total {
		end = total
	}
	return end - start
}

// TrimOffset is how far into the first selected segment the requested range
// begins. ffmpeg seeks this far into the concatenated output.
func TrimOffset(selected []TimedSegment, start float64) float64 {
	offset := start - selected[0].Start
	if offset < 0 {
		return 0
	}
	return offset
}
