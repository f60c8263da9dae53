// Package config resolves the run configuration from flags, environment and
// an optional config file, and validates it before any network activity.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agleyzer/streamdl/internal/downloader"
	"github.com/agleyzer/streamdl/internal/parser"
)

// ErrMalformedConfig is returned for any invalid setting.
var ErrMalformedConfig = errors.New("malformed config")

// Format is a target container for conversion after download.
type Format string

const (
	FormatNone Format = ""
	FormatMP3  Format = "mp3"
	FormatMP4  Format = "mp4"
)

// Formats lists the accepted conversion targets.
var Formats = []Format{FormatMP3, FormatMP4}

// DefaultPollInterval is the delay between playlist reloads in live mode.
const DefaultPollInterval = 10 * time.Second

// NoVariant means the variant is chosen interactively.
const NoVariant = -1

// RunConfig is the fully resolved configuration of one run.
type RunConfig struct {
	// Source is the playlist URL, or a file path when Local is set
	Source string
	Local  bool

	// Output is the file segments are concatenated into
	Output string

	// BaseURL overrides the base used to resolve segment references
	BaseURL string

	Pacing downloader.Pacing
	Format Format
	Live   bool

	// Variant selects a master playlist entry without prompting
	Variant int

	PollInterval time.Duration
	Timeout      time.Duration
	Progress     bool
	Verbosity    int
	Headers      map[string]string
}

// Validate checks the configuration. It never touches the network.
func (c *RunConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: stream source is required", ErrMalformedConfig)
	}

	if !c.Local {
		if _, err := parser.SplitBase(c.Source); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMalformedConfig, c.Source, err)
		}
	}

	if c.Output == "" {
		return fmt.Errorf("%w: output path is required", ErrMalformedConfig)
	}

	if c.Format != FormatNone && !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("%w: unknown conversion format %q", ErrMalformedConfig, c.Format)
	}

	if c.Pacing.Min < 0 || c.Pacing.Max < 0 {
		return fmt.Errorf("%w: invalid sleep interval (< 0)", ErrMalformedConfig)
	}
	if c.Pacing.Min > c.Pacing.Max {
		return fmt.Errorf("%w: invalid sleep interval (minsec > maxsec)", ErrMalformedConfig)
	}

	if c.Variant < NoVariant {
		return fmt.Errorf("%w: variant index must not be negative", ErrMalformedConfig)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrMalformedConfig)
	}

	return nil
}

// LogLevel maps the -v count to a log level.
func (c *RunConfig) LogLevel() slog.Level {
	switch {
	case c.Verbosity >= 2:
		return slog.LevelDebug
	case c.Verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// DefaultOutput returns the output name used when none is given.
func DefaultOutput(now time.Time) string {
	return "download" + strconv.FormatInt(now.Unix(), 10) + ".ts"
}

// ParsePacing parses "sec" or "minsec-maxsec". An empty spec disables pacing.
func ParsePacing(spec string) (downloader.Pacing, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return downloader.Pacing{}, nil
	}

	var p downloader.Pacing
	if secs, err := strconv.ParseFloat(spec, 64); err == nil {
		p = downloader.Pacing{Min: secs, Max: secs}
	} else {
		parts := strings.Split(spec, "-")
		if len(parts) != 2 {
			return downloader.Pacing{}, fmt.Errorf("%w: malformed sleep interval %q", ErrMalformedConfig, spec)
		}

		minSecs, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return downloader.Pacing{}, fmt.Errorf("%w: malformed sleep interval %q", ErrMalformedConfig, spec)
		}
		maxSecs, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return downloader.Pacing{}, fmt.Errorf("%w: malformed sleep interval %q", ErrMalformedConfig, spec)
		}
		p = downloader.Pacing{Min: minSecs, Max: maxSecs}
	}

	if math.IsNaN(p.Min) || math.IsNaN(p.Max) || math.IsInf(p.Min, 0) || math.IsInf(p.Max, 0) {
		return downloader.Pacing{}, fmt.Errorf("%w: malformed sleep interval %q", ErrMalformedConfig, spec)
	}
	if p.Min < 0 || p.Max < 0 {
		return downloader.Pacing{}, fmt.Errorf("%w: invalid sleep interval (< 0)", ErrMalformedConfig)
	}
	if p.Min > p.Max {
		return downloader.Pacing{}, fmt.Errorf("%w: invalid sleep interval (minsec > maxsec)", ErrMalformedConfig)
	}

	return p, nil
}

// ParseFormat validates a conversion target name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == FormatNone || slices.Contains(Formats, f) {
		return f, nil
	}
	return FormatNone, fmt.Errorf("%w: unknown conversion format %q", ErrMalformedConfig, s)
}

// DefaultHeaders returns the headers sent when no config overrides them.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.5",
	}
}

// ApplyHeaders copies base, then adds each "name:value" entry and removes
// each named header. Removing a header that is not present is an error.
func ApplyHeaders(base map[string]string, add, remove []string) (map[string]string, error) {
	headers := make(map[string]string, len(base)+len(add))
	for k, v := range base {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	for _, h := range add {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: malformed header %q", ErrMalformedConfig, h)
		}
		headers[http.CanonicalHeaderKey(name)] = strings.TrimSpace(value)
	}

	for _, h := range remove {
		name := http.CanonicalHeaderKey(strings.TrimSpace(h))
		if _, ok := headers[name]; !ok {
			return nil, fmt.Errorf("%w: could not remove non existing header %q", ErrMalformedConfig, h)
		}
		delete(headers, name)
	}

	return headers, nil
}
