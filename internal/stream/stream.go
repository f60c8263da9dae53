// Package stream binds a decoded playlist to the location it was loaded from.
package stream

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/agleyzer/streamdl/internal/parser"
	"github.com/agleyzer/streamdl/internal/playlist"
)

// Fetcher retrieves the body of a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// LocalReadError reports that a local playlist file could not be read.
type LocalReadError struct {
	Path string
	Err  error
}

func (e *LocalReadError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Path, e.Err)
}

func (e *LocalReadError) Unwrap() error {
	return e.Err
}

// Stream is a playlist together with its origin. Origin and Base are empty
// for playlists read from a local file.
//
// A Stream is a value: Repoint returns a new Stream and leaves the receiver
// untouched, so a failed reload never yields a half-updated handle.
type Stream struct {
	// Origin is the absolute URL the playlist was fetched from
	Origin string

	// Base is Origin without its last path element, ending in "/"
	Base string

	// Playlist is the decoded playlist
	Playlist *playlist.Playlist
}

// Open fetches and decodes the playlist at location.
func Open(ctx context.Context, f Fetcher, location string) (Stream, error) {
	base, err := parser.SplitBase(location)
	if err != nil {
		return Stream{}, fmt.Errorf("%s: %w", location, err)
	}

	body, err := f.Get(ctx, location)
	if err != nil {
		return Stream{}, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	pl, err := parser.Decode(bytes.NewReader(body))
	if err != nil {
		return Stream{}, fmt.Errorf("failed to parse playlist %s: %w", location, err)
	}

	return Stream{Origin: location, Base: base, Playlist: pl}, nil
}

// Load reads and decodes a playlist from a local file.
func Load(path string) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stream{}, &LocalReadError{Path: path, Err: err}
	}
	defer f.Close()

	pl, err := parser.Decode(f)
	if err != nil {
		return Stream{}, fmt.Errorf("failed to parse playlist %s: %w", path, err)
	}

	return Stream{Playlist: pl}, nil
}

// Repoint loads the playlist at location and returns it as a new Stream.
// On error the receiver remains valid and unchanged.
func (s Stream) Repoint(ctx context.Context, f Fetcher, location string) (Stream, error) {
	return Open(ctx, f, location)
}

// IsLocal reports whether the stream was read from a local file.
func (s Stream) IsLocal() bool {
	return s.Origin == ""
}
