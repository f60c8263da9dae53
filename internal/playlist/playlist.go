package playlist

import (
	"time"

	"github.com/agleyzer/streamdl/internal/segment"
	"github.com/agleyzer/streamdl/internal/variant"
)

// Playlist is a decoded HLS manifest. Exactly one of Variants and Segments
// is populated for well-formed input.
type Playlist struct {
	// Variants holds the variant streams of a master playlist, in declared order
	Variants []variant.Variant

	// Segments holds the media segments of a media playlist, in declared order
	Segments []segment.Segment

	// TargetDuration is the declared #EXT-X-TARGETDURATION in seconds
	TargetDuration float64

	// Ended is set when the playlist carries #EXT-X-ENDLIST
	Ended bool
}

// IsMaster reports whether the playlist references variants instead of segments.
func (p *Playlist) IsMaster() bool {
	return len(p.Variants) > 0
}

// MediaSegments returns the segments to download. A master playlist has none.
func (p *Playlist) MediaSegments() []segment.Segment {
	if p.IsMaster() {
		return nil
	}
	return p.Segments
}

// LastTimestamp returns the declared timestamp of the final segment.
// ok is false when the playlist has no segments or the final one has no timestamp.
func (p *Playlist) LastTimestamp() (ts time.Time, ok bool) {
	segments := p.MediaSegments()
	if len(segments) == 0 {
		return time.Time{}, false
	}
	last := segments[len(segments)-1]
	return last.ProgramDateTime, last.HasTimestamp()
}
