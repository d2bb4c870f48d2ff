// Package progress counts completed pages across workers.
package progress

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultEvery is the report interval in completed pages.
const DefaultEvery = 10

// ReportFunc receives the counter value at each report point.
type ReportFunc func(done int)

// Tracker is a mutex-guarded page-completion counter. A report fires exactly
// once for every Every completions, from whichever goroutine crossed the mark.
type Tracker struct {
	mu      sync.Mutex
	count   int
	every   int
	reports []ReportFunc
}

// New creates a Tracker reporting every `every` completions (DefaultEvery if
// every <= 0). The reports run in order, outside the lock.
func New(every int, reports ...ReportFunc) *Tracker {
	if every <= 0 {
		every = DefaultEvery
	}
	return &Tracker{every: every, reports: reports}
}

// Record counts one completed page and returns the new total.
func (t *Tracker) Record() int {
	t.mu.Lock()
	t.count++
	n := t.count
	t.mu.Unlock()

	if n%t.every == 0 {
		for _, r := range t.reports {
			r(n)
		}
	}
	return n
}

// Count returns the number of recorded pages.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// LogReport is the default report: one status line per interval written to
// l, or to the global logger when l is nil.
func LogReport(l *zerolog.Logger, total int) ReportFunc {
	if l == nil {
		l = &log.Logger
	}
	return func(done int) {
		l.Info().Int("pages_done", done).Int("pages_total", total).Msgf("completed %d pages", done)
	}
}
