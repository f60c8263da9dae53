// Package convert re-encodes a finished download with ffmpeg.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// FFmpeg converts files by running an ffmpeg binary.
type FFmpeg struct {
	// Path is the ffmpeg executable, looked up in PATH when not absolute
	Path string

	logger hclog.Logger
}

// New creates a converter. ffmpeg's console output is written to out as
// debug lines of a logger named "ffmpeg" at the given level.
func New(path string, level hclog.Level, out io.Writer) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}

	return &FFmpeg{
		Path: path,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "ffmpeg",
			Level:  level,
			Output: out,
		}),
	}
}

// OutputPath returns where a conversion of input to format is written: the
// input path with its extension replaced.
func OutputPath(input, format string) string {
	ext := "." + format
	output := strings.TrimSuffix(input, filepath.Ext(input)) + ext
	if output == input {
		output = strings.TrimSuffix(input, ext) + ".converted" + ext
	}
	return output
}

// Args returns the ffmpeg arguments for converting input to output.
func Args(input, output, format string) ([]string, error) {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", input}

	switch format {
	case "mp3":
		args = append(args, "-vn", "-ar", "44100", "-ac", "2", "-b:a", "192k")
	case "mp4":
		args = append(args, "-c:v", "libx264", "-c:a", "aac")
	default:
		return nil, fmt.Errorf("unsupported conversion format %q", format)
	}

	return append(args, output), nil
}

// Convert re-encodes input into format and returns the path of the new file.
// The input file is never modified or removed.
func (f *FFmpeg) Convert(ctx context.Context, input, format string) (string, error) {
	output := OutputPath(input, format)

	args, err := Args(input, output, format)
	if err != nil {
		return "", err
	}

	var stderr bytes.Buffer
	console := f.logger.StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Debug})

	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stdout = console
	cmd.Stderr = io.MultiWriter(console, &stderr)

	f.logger.Info("converting", "input", input, "output", output, "format", format)
	if err := cmd.Run(); err != nil {
		if last := lastLine(stderr.String()); last != "" {
			return "", fmt.Errorf("ffmpeg failed: %w: %s", err, last)
		}
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	return output, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
