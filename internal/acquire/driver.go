// Package acquire drives a whole run: it opens the source, resolves master
// playlists to a single variant, downloads once or keeps polling a live
// stream, and hands the result to the converter.
package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agleyzer/streamdl/internal/config"
	"github.com/agleyzer/streamdl/internal/downloader"
	"github.com/agleyzer/streamdl/internal/parser"
	"github.com/agleyzer/streamdl/internal/stream"
)

// Converter re-encodes a finished download.
type Converter interface {
	Convert(ctx context.Context, input, format string) (string, error)
}

// Driver runs one acquisition from source to converted output.
type Driver struct {
	fetcher    stream.Fetcher
	downloader *downloader.Downloader
	chooser    Chooser
	converter  Converter
	logger     *slog.Logger

	// Out receives the closing summary
	Out io.Writer

	// Sleep waits between live playlist reloads; replaced in tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a driver. converter may be nil when no conversion is ever
// requested.
func New(fetcher stream.Fetcher, dl *downloader.Downloader, chooser Chooser, converter Converter, logger *slog.Logger) *Driver {
	return &Driver{
		fetcher:    fetcher,
		downloader: dl,
		chooser:    chooser,
		converter:  converter,
		logger:     logger,
		Out:        io.Discard,
		Sleep:      downloader.Sleep,
	}
}

// Run performs the acquisition described by cfg. An interrupted live capture
// is a normal end of the run; an interrupted single download returns the
// context error.
func (d *Driver) Run(ctx context.Context, cfg *config.RunConfig) error {
	s, err := d.open(ctx, cfg)
	if err != nil {
		return err
	}

	s, err = d.selectVariant(ctx, s, cfg)
	if err != nil {
		return err
	}

	opts := downloader.Options{Output: cfg.Output, Base: cfg.BaseURL}

	var total downloader.Summary
	switch {
	case cfg.Live && s.IsLocal():
		d.logger.Warn("live mode needs a playlist URL, downloading once")
		total, err = d.downloader.Fetch(ctx, s, opts)
	case cfg.Live:
		total, err = d.live(ctx, s, cfg, opts)
	default:
		total, err = d.downloader.Fetch(ctx, s, opts)
	}
	fmt.Fprintln(d.Out, total.String())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if cfg.Format != config.FormatNone {
		d.convert(context.WithoutCancel(ctx), cfg)
	}

	return nil
}

func (d *Driver) open(ctx context.Context, cfg *config.RunConfig) (stream.Stream, error) {
	if cfg.Local {
		d.logger.Info("reading playlist", "path", cfg.Source)
		return stream.Load(cfg.Source)
	}

	d.logger.Info("fetching playlist", "url", cfg.Source)
	return stream.Open(ctx, d.fetcher, cfg.Source)
}

// selectVariant repoints s until it refers to a media playlist.
func (d *Driver) selectVariant(ctx context.Context, s stream.Stream, cfg *config.RunConfig) (stream.Stream, error) {
	for s.Playlist.IsMaster() {
		variants := s.Playlist.Variants

		index, err := d.chooser.Choose(ctx, variants)
		if err != nil {
			return s, err
		}
		chosen := variants[index]

		base := s.Base
		if cfg.BaseURL != "" {
			base = cfg.BaseURL
		}

		location, err := parser.Resolve(base, chosen.URI)
		if err != nil {
			return s, fmt.Errorf("variant %q: %w", chosen.URI, err)
		}

		d.logger.Info("selected variant", "index", index, "bandwidth", chosen.Bandwidth, "url", location)
		s, err = s.Repoint(ctx, d.fetcher, location)
		if err != nil {
			return s, err
		}
	}

	return s, nil
}

// live downloads s repeatedly, skipping segments whose timestamp is at or
// before the newest one already written. The cutoff never moves backwards.
func (d *Driver) live(ctx context.Context, s stream.Stream, cfg *config.RunConfig, opts downloader.Options) (downloader.Summary, error) {
	var total downloader.Summary
	var cutoff *time.Time

	for pass := 1; ; pass++ {
		opts.Cutoff = cutoff
		opts.Append = cutoff != nil

		summary, err := d.downloader.Fetch(ctx, s, opts)
		total = add(total, summary)
		d.logger.Info("pass complete", "pass", pass, "summary", summary.String())
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("live capture interrupted")
				return total, nil
			}
			return total, err
		}

		last, ok := s.Playlist.LastTimestamp()
		switch {
		case ok:
			if cutoff == nil || last.After(*cutoff) {
				cutoff = &last
			}
		case len(s.Playlist.MediaSegments()) == 0 && cutoff != nil:
			d.logger.Warn("playlist has no segments, keeping previous position", "url", s.Origin)
		case len(s.Playlist.MediaSegments()) == 0:
			d.logger.Warn("playlist has no segments, leaving live mode", "url", s.Origin)
			return total, nil
		default:
			d.logger.Warn("last segment has no timestamp, leaving live mode", "url", s.Origin)
			return total, nil
		}

		if s.Playlist.Ended {
			d.logger.Info("stream ended", "url", s.Origin)
			return total, nil
		}

		if err := d.Sleep(ctx, cfg.PollInterval); err != nil {
			d.logger.Info("live capture interrupted")
			return total, nil
		}

		next, err := s.Repoint(ctx, d.fetcher, s.Origin)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("live capture interrupted")
				return total, nil
			}
			return total, err
		}
		if next.Playlist.IsMaster() {
			return total, fmt.Errorf("%s: %w: live reload returned a master playlist",
				s.Origin, parser.ErrMalformedPlaylist)
		}
		s = next
	}
}

// convert runs the converter and logs any failure. The output file is kept
// either way.
func (d *Driver) convert(ctx context.Context, cfg *config.RunConfig) {
	if d.converter == nil {
		d.logger.Error("conversion requested but no converter configured")
		return
	}

	converted, err := d.converter.Convert(ctx, cfg.Output, string(cfg.Format))
	if err != nil {
		d.logger.Error("conversion failed, keeping download", "output", cfg.Output, "error", err)
		return
	}

	d.logger.Info("conversion complete", "output", converted)
}

// add folds a live pass into the running summary. Later passes re-list
// segments already written, so the total counts distinct segments: every one
// of them was fetched exactly once.
func add(a, b downloader.Summary) downloader.Summary {
	fetched := a.Fetched + b.Fetched
	return downloader.Summary{
		Total:   fetched,
		Fetched: fetched,
		Bytes:   a.Bytes + b.Bytes,
	}
}
