// Package progress reports how far a segment download pass has advanced.
package progress

import (
	"log/slog"
	"time"

	"github.com/gosuri/uiprogress"
)

// DefaultInterval is how often the log reporter emits a progress line.
const DefaultInterval = 10 * time.Second

// Reporter receives progress updates for one download pass.
type Reporter interface {
	// Begin starts a pass over total segments.
	Begin(total int)

	// Step records that done segments have been handled, fetched or skipped.
	Step(done int)

	// End finishes the pass.
	End()
}

// Nop discards all progress updates.
type Nop struct{}

func (Nop) Begin(int) {}
func (Nop) Step(int)  {}
func (Nop) End()      {}

// Log writes a progress line at most once per Interval.
type Log struct {
	Logger   *slog.Logger
	Interval time.Duration

	// Now is the clock used for throttling. Defaults to time.Now.
	Now func() time.Time

	total int
	last  time.Time
}

// NewLog creates a log reporter with the default interval.
func NewLog(logger *slog.Logger) *Log {
	return &Log{Logger: logger, Interval: DefaultInterval}
}

func (l *Log) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Log) Begin(total int) {
	l.total = total
	l.last = l.now()
}

func (l *Log) Step(done int) {
	if l.total == 0 {
		return
	}

	now := l.now()
	if now.Sub(l.last) < l.Interval {
		return
	}
	l.last = now

	l.Logger.Info("progress",
		"percent", done*100/l.total,
		"done", done,
		"total", l.total,
	)
}

func (l *Log) End() {}

// Bar draws a terminal progress bar per pass.
type Bar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

func (b *Bar) Begin(total int) {
	if total == 0 {
		return
	}

	b.progress = uiprogress.New()
	b.bar = b.progress.AddBar(total).AppendCompleted().PrependElapsed()
	b.progress.Start()
}

func (b *Bar) Step(done int) {
	if b.bar == nil {
		return
	}
	b.bar.Set(done)
}

func (b *Bar) End() {
	if b.progress == nil {
		return
	}
	b.progress.Stop()
	b.progress = nil
	b.bar = nil
}
