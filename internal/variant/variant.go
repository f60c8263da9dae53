// Package variant defines data structures for HLS variant streams in master playlists.
package variant

import (
	"fmt"
	"strings"
)

// Variant represents a single variant stream in an HLS master playlist.
// Each variant typically represents a different quality level (bitrate/resolution).
type Variant struct {
	// URI is the variant playlist reference as written in the master playlist
	URI string

	// Bandwidth is the peak segment bitrate in bits per second
	Bandwidth int

	// Resolution is the video resolution (e.g., "1920x1080", "1280x720")
	// Empty string if not specified in master playlist
	Resolution string

	// Codecs is the codec string (e.g., "avc1.4d401f,mp4a.40.2")
	// Empty string if not specified in master playlist
	Codecs string

	// Name is the NAME attribute, if any
	Name string
}

// Descriptor renders the stream info attributes for display to the user.
func (v Variant) Descriptor() string {
	var parts []string
	if v.Name != "" {
		parts = append(parts, fmt.Sprintf("NAME=%q", v.Name))
	}
	if v.Bandwidth > 0 {
		parts = append(parts, fmt.Sprintf("BANDWIDTH=%d", v.Bandwidth))
	}
	if v.Resolution != "" {
		parts = append(parts, "RESOLUTION="+v.Resolution)
	}
	if v.Codecs != "" {
		parts = append(parts, fmt.Sprintf("CODECS=%q", v.Codecs))
	}
	if len(parts) == 0 {
		return v.URI
	}
	return strings.Join(parts, ",") + " " + v.URI
}
