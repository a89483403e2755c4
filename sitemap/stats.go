package sitemap

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is the wall-clock time and memory high-water mark of one render.
type Stats struct {
	Path       string
	Elapsed    time.Duration
	PeakMemory uint64
}

// String formats the stats for the debug comment.
func (s Stats) String() string {
	return fmt.Sprintf("generated in %.3f seconds, peak memory %s", s.Elapsed.Seconds(), humanize.Bytes(s.PeakMemory))
}

// StatsLogger brackets renders and logs their cost.
type StatsLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsLogger creates a StatsLogger writing debug records to logger.
func NewStatsLogger(logger *slog.Logger) *StatsLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsLogger{logger: logger, now: time.Now}
}

// Span is one in-flight measurement.
type Span struct {
	l     *StatsLogger
	path  string
	start time.Time
	heap  uint64
}

// Start begins measuring a render of path.
func (l *StatsLogger) Start(path string) *Span {
	return &Span{l: l, path: path, start: l.now(), heap: heapAlloc()}
}

// Stop ends the measurement and logs it.
func (s *Span) Stop() Stats {
	peak := heapAlloc()
	if s.heap > peak {
		peak = s.heap
	}
	st := Stats{Path: s.path, Elapsed: s.l.now().Sub(s.start), PeakMemory: peak}
	s.l.logger.Debug("sitemap rendered",
		"path", st.Path,
		"elapsed", st.Elapsed,
		"peak_memory", humanize.Bytes(st.PeakMemory),
	)
	return st
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
