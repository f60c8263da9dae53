package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input    string
		format   string
		expected string
	}{
		{"download123.ts", "mp3", "download123.mp3"},
		{"/tmp/capture.ts", "mp4", "/tmp/capture.mp4"},
		{"noext", "mp3", "noext.mp3"},
		{"video.mp4", "mp4", "video.converted.mp4"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.format); got != tt.expected {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.expected)
		}
	}
}

func TestArgs(t *testing.T) {
	mp3, err := Args("in.ts", "in.mp3", "mp3")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"-vn", "44100", "192k"} {
		if !slices.Contains(mp3, want) {
			t.Errorf("mp3 args %v missing %s", mp3, want)
		}
	}
	if mp3[len(mp3)-1] != "in.mp3" {
		t.Errorf("output must be the last argument, got %v", mp3)
	}

	mp4, err := Args("in.ts", "in.mp4", "mp4")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !slices.Contains(mp4, "libx264") || !slices.Contains(mp4, "aac") {
		t.Errorf("mp4 args %v missing codecs", mp4)
	}

	if _, err := Args("in.ts", "in.ogg", "ogg"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func writeFakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a unix shell")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return path
}

func TestConvert_Success(t *testing.T) {
	bin := writeFakeFFmpeg(t, `echo "encoding $*" >&2
for last; do :; done
echo converted > "$last"
`)

	dir := t.TempDir()
	input := filepath.Join(dir, "capture.ts")
	if err := os.WriteFile(input, []byte("ts-bytes"), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	var logs bytes.Buffer
	ff := New(bin, hclog.Debug, &logs)

	output, err := ff.Convert(context.Background(), input, "mp3")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if output != filepath.Join(dir, "capture.mp3") {
		t.Errorf("unexpected output path %s", output)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("converted file missing: %v", err)
	}

	data, err := os.ReadFile(input)
	if err != nil || string(data) != "ts-bytes" {
		t.Errorf("input file changed: %q, %v", data, err)
	}

	if !strings.Contains(logs.String(), "encoding") || !strings.Contains(logs.String(), "ffmpeg") {
		t.Errorf("ffmpeg output not logged: %q", logs.String())
	}
}

func TestConvert_Failure(t *testing.T) {
	bin := writeFakeFFmpeg(t, `echo "first line" >&2
echo "in.ts: Invalid data found when processing input" >&2
exit 1
`)

	input := filepath.Join(t.TempDir(), "in.ts")
	if err := os.WriteFile(input, []byte("garbage"), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	ff := New(bin, hclog.Off, &bytes.Buffer{})
	_, err := ff.Convert(context.Background(), input, "mp4")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("Expected ffmpeg's last line in error, got %v", err)
	}

	if _, statErr := os.Stat(input); statErr != nil {
		t.Errorf("input must survive a failed conversion: %v", statErr)
	}
}

func TestConvert_MissingBinary(t *testing.T) {
	ff := New(filepath.Join(t.TempDir(), "no-such-ffmpeg"), hclog.Off, &bytes.Buffer{})
	if _, err := ff.Convert(context.Background(), "in.ts", "mp3"); err == nil {
		t.Fatal("Expected error for missing binary, got nil")
	}
}
