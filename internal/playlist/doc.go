// Package playlist holds the in-memory model of a decoded HLS playlist:
// either the variants of a master playlist or the segments of a media playlist.
package playlist
