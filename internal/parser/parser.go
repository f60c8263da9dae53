// Package parser decodes HLS playlists into the playlist model and resolves
// the references they contain.
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/agleyzer/streamdl/internal/playlist"
	"github.com/agleyzer/streamdl/internal/segment"
	"github.com/agleyzer/streamdl/internal/variant"
	"github.com/grafov/m3u8"
)

// ErrMalformedPlaylist is returned when the input is not a decodable M3U8 playlist.
var ErrMalformedPlaylist = errors.New("malformed playlist")

// Decode parses an HLS playlist, master or media, preserving declared order
// and per-segment program date times.
func Decode(r io.Reader) (*playlist.Playlist, error) {
	decoded, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPlaylist, err)
	}

	switch listType {
	case m3u8.MASTER:
		master, ok := decoded.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected playlist type", ErrMalformedPlaylist)
		}
		return decodeMaster(master), nil
	case m3u8.MEDIA:
		media, ok := decoded.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected playlist type", ErrMalformedPlaylist)
		}
		return decodeMedia(media), nil
	default:
		return nil, fmt.Errorf("%w: unknown playlist type", ErrMalformedPlaylist)
	}
}

// decodeMaster extracts variant information from a master playlist.
func decodeMaster(master *m3u8.MasterPlaylist) *playlist.Playlist {
	var variants []variant.Variant
	for _, v := range master.Variants {
		if v == nil {
			continue
		}

		variants = append(variants, variant.Variant{
			URI:        v.URI,
			Bandwidth:  int(v.Bandwidth),
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
			Name:       v.Name,
		})
	}

	return &playlist.Playlist{Variants: variants}
}

// decodeMedia extracts segments from a media playlist.
func decodeMedia(media *m3u8.MediaPlaylist) *playlist.Playlist {
	var segments []segment.Segment
	for i, seg := range media.Segments {
		// The decoder pre-allocates the segment buffer; the tail is nil
		if seg == nil {
			break
		}

		segments = append(segments, segment.Segment{
			URI:             seg.URI,
			Duration:        seg.Duration,
			Sequence:        i,
			ProgramDateTime: seg.ProgramDateTime,
		})
	}

	return &playlist.Playlist{
		Segments:       segments,
		TargetDuration: media.TargetDuration,
		Ended:          media.Closed,
	}
}
