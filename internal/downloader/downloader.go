// Package downloader fetches the segments of a media playlist in order and
// appends them to a single output file.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/agleyzer/streamdl/internal/parser"
	"github.com/agleyzer/streamdl/internal/progress"
	"github.com/agleyzer/streamdl/internal/stream"
	"golang.org/x/text/message"
)

// Options controls a single download pass.
type Options struct {
	// Output is the path of the file segments are written to
	Output string

	// Append continues an existing output file instead of truncating it
	Append bool

	// Cutoff, when set, skips every segment whose declared timestamp is at
	// or before it
	Cutoff *time.Time

	// Base overrides the stream's base URL for resolving segment references
	Base string
}

// Summary counts the outcome of a download pass.
type Summary struct {
	Total   int
	Fetched int
	Skipped int
	Bytes   int64
}

// String formats the summary for the console.
func (s Summary) String() string {
	p := message.NewPrinter(message.MatchLanguage("en"))
	return p.Sprintf("fetched %d of %d segments (%d skipped), %d bytes",
		s.Fetched, s.Total, s.Skipped, s.Bytes)
}

// Downloader runs sequential, paced download passes over a stream.
type Downloader struct {
	fetcher stream.Fetcher
	pacing  Pacing
	logger  *slog.Logger

	// Progress receives per-pass progress updates
	Progress progress.Reporter

	// Sleep waits between requests; replaced in tests
	Sleep func(ctx context.Context, d time.Duration) error

	// Rand returns values in [0, n) used to sample the pacing delay
	Rand func(n int64) int64
}

// New creates a downloader that fetches through fetcher and waits a delay
// sampled from pacing before every request.
func New(fetcher stream.Fetcher, pacing Pacing, logger *slog.Logger) *Downloader {
	return &Downloader{
		fetcher:  fetcher,
		pacing:   pacing,
		logger:   logger,
		Progress: progress.Nop{},
		Sleep:    Sleep,
		Rand:     rand.Int64N,
	}
}

// Fetch downloads the segments of s in declared order and writes them to
// opts.Output. The first failing request aborts the pass; everything written
// before it stays in the file.
func (d *Downloader) Fetch(ctx context.Context, s stream.Stream, opts Options) (summary Summary, err error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if opts.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(opts.Output, flags, 0644)
	if err != nil {
		return summary, fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	base := s.Base
	if opts.Base != "" {
		base = opts.Base
	}

	segments := s.Playlist.MediaSegments()
	summary.Total = len(segments)

	d.Progress.Begin(len(segments))
	defer d.Progress.End()

	for i, seg := range segments {
		if opts.Cutoff != nil && seg.AtOrBefore(*opts.Cutoff) {
			d.logger.Debug("skipping downloaded segment", "uri", seg.URI, "timestamp", seg.ProgramDateTime)
			summary.Skipped++
			d.Progress.Step(i + 1)
			continue
		}

		segmentURL, err := parser.Resolve(base, seg.URI)
		if err != nil {
			return summary, fmt.Errorf("segment %q: %w", seg.URI, err)
		}

		if delay := d.pacing.Sample(d.Rand); delay > 0 {
			d.logger.Debug("sleep", "duration", delay)
			if err := d.Sleep(ctx, delay); err != nil {
				return summary, err
			}
		}

		d.logger.Debug("GET", "url", segmentURL)
		body, err := d.fetcher.Get(ctx, segmentURL)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch segment %d: %w", seg.Sequence, err)
		}

		if _, err := file.Write(body); err != nil {
			return summary, fmt.Errorf("failed to write output: %w", err)
		}

		summary.Fetched++
		summary.Bytes += int64(len(body))
		d.Progress.Step(i + 1)
	}

	return summary, nil
}
