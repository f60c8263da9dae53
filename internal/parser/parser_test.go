package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecode_MediaPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.9,
segment001.ts
#EXTINF:10.0,
segment002.ts
#EXTINF:10.1,
segment003.ts
#EXT-X-ENDLIST
`

	pl, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if pl.IsMaster() {
		t.Fatal("Expected media playlist, got master")
	}

	if len(pl.Segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(pl.Segments))
	}

	if pl.TargetDuration != 10 {
		t.Errorf("Expected target duration 10, got %v", pl.TargetDuration)
	}

	if !pl.Ended {
		t.Error("Expected playlist to be marked as ended")
	}

	// Declared order and relative URIs are preserved
	for i, want := range []string{"segment001.ts", "segment002.ts", "segment003.ts"} {
		if pl.Segments[i].URI != want {
			t.Errorf("segment[%d] URI = %s, want %s", i, pl.Segments[i].URI, want)
		}
		if pl.Segments[i].Sequence != i {
			t.Errorf("segment[%d] Sequence = %d, want %d", i, pl.Segments[i].Sequence, i)
		}
		if pl.Segments[i].HasTimestamp() {
			t.Errorf("segment[%d] should not have a timestamp", i)
		}
	}

	if pl.Segments[0].Duration != 9.9 {
		t.Errorf("Expected first segment duration 9.9, got %f", pl.Segments[0].Duration)
	}
}

func TestDecode_ProgramDateTime(t *testing.T) {
	input := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:100
#EXT-X-PROGRAM-DATE-TIME:2024-05-01T12:00:10Z
#EXTINF:10.0,
live100.ts
#EXT-X-PROGRAM-DATE-TIME:2024-05-01T12:00:20Z
#EXTINF:10.0,
live101.ts
#EXT-X-PROGRAM-DATE-TIME:2024-05-01T12:00:30Z
#EXTINF:10.0,
live102.ts
`

	pl, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if pl.Ended {
		t.Error("live playlist should not be marked as ended")
	}

	if len(pl.Segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(pl.Segments))
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, seg := range pl.Segments {
		want := base.Add(time.Duration(10*(i+1)) * time.Second)
		if !seg.ProgramDateTime.Equal(want) {
			t.Errorf("segment[%d] ProgramDateTime = %v, want %v", i, seg.ProgramDateTime, want)
		}
	}

	last, ok := pl.LastTimestamp()
	if !ok || !last.Equal(base.Add(30*time.Second)) {
		t.Errorf("LastTimestamp() = %v, %v", last, ok)
	}
}

func TestDecode_AbsoluteURIs(t *testing.T) {
	input := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:5
#EXTINF:4.0,
https://example.com/segment001.ts
#EXTINF:4.0,
https://example.com/segment002.ts
#EXT-X-ENDLIST
`

	pl, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if pl.Segments[0].URI != "https://example.com/segment001.ts" {
		t.Errorf("Expected absolute URI unchanged, got %s", pl.Segments[0].URI)
	}
}

func TestDecode_EmptyPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
`

	pl, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if pl.IsMaster() {
		t.Error("Expected media playlist")
	}
	if len(pl.Segments) != 0 {
		t.Errorf("Expected no segments, got %d", len(pl.Segments))
	}
}

func TestDecode_MasterPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2560000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2"
https://cdn.example.com/high/index.m3u8
`

	pl, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !pl.IsMaster() {
		t.Fatal("Expected master playlist")
	}

	if len(pl.Variants) != 2 {
		t.Fatalf("Expected 2 variants, got %d", len(pl.Variants))
	}

	if pl.Variants[0].URI != "low/index.m3u8" || pl.Variants[0].Bandwidth != 1280000 {
		t.Errorf("unexpected first variant: %+v", pl.Variants[0])
	}

	if pl.Variants[1].Resolution != "1280x720" || pl.Variants[1].Codecs != "avc1.4d401f,mp4a.40.2" {
		t.Errorf("unexpected second variant: %+v", pl.Variants[1])
	}

	if len(pl.MediaSegments()) != 0 {
		t.Error("master playlist must not expose media segments")
	}
}

func TestDecode_InvalidM3U8(t *testing.T) {
	_, err := Decode(strings.NewReader("not a valid m3u8 file"))
	if err == nil {
		t.Fatal("Expected error for invalid m3u8, got nil")
	}
	if !errors.Is(err, ErrMalformedPlaylist) {
		t.Errorf("Expected ErrMalformedPlaylist, got %v", err)
	}
}
