// Package segment defines data structures for HLS media segments.
package segment

import "time"

// Segment represents a single HLS media segment.
type Segment struct {
	// URI is the segment reference exactly as written in the playlist,
	// either relative to the playlist location or absolute
	URI string

	// Duration is the segment duration in seconds
	Duration float64

	// Sequence is the position in the source playlist
	Sequence int

	// ProgramDateTime is the declared #EXT-X-PROGRAM-DATE-TIME.
	// Zero when the playlist does not declare one for this segment.
	ProgramDateTime time.Time
}

// HasTimestamp reports whether the playlist declared a timestamp for the segment.
func (s Segment) HasTimestamp() bool {
	return !s.ProgramDateTime.IsZero()
}

// AtOrBefore reports whether the segment carries a timestamp that is not
// after cutoff. Segments without a timestamp are never at or before anything.
func (s Segment) AtOrBefore(cutoff time.Time) bool {
	return s.HasTimestamp() && !s.ProgramDateTime.After(cutoff)
}
