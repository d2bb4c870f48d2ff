package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/local/wordtiles/internal/config"
	"github.com/local/wordtiles/internal/document"
	"github.com/local/wordtiles/internal/logger"
	"github.com/local/wordtiles/internal/output"
	"github.com/local/wordtiles/internal/progress"
	"github.com/local/wordtiles/internal/regions"
	"github.com/local/wordtiles/internal/store"
)

// StatusPublisher receives run status updates. RedisStatus implements it.
type StatusPublisher interface {
	Set(ctx context.Context, runID string, st store.Status) error
	Progress(ctx context.Context, runID string, done, failed int) error
}

// Coordinator runs one page range of one document.
type Coordinator struct {
	RunID     string
	Path      string
	Opener    document.Opener
	Extractor regions.Extractor
	Sink      output.Sink
	Job       *config.JobConfig
	SavePages bool
	Status    StatusPublisher // optional
}

// Summary is the outcome of a run. Succeeded counts every page that
// recorded progress, skipped pages included.
type Summary struct {
	RunID     string
	Requested int
	Succeeded int
	Skipped   int
	Failed    int
	Tiles     int
	Failures  []*PageError
	Duration  time.Duration
}

// Run processes every page in the configured range and waits for all of
// them. Page failures are collected in the summary; only setup problems
// (open, page range) are returned as errors.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	sum := Summary{RunID: c.RunID}
	lg := logger.WithRun(c.RunID)

	raw, err := c.Opener.Open(c.Path)
	if err != nil {
		return sum, fmt.Errorf("open document: %w", err)
	}
	src := document.Serialize(raw)
	defer func() {
		if cerr := src.Close(); cerr != nil {
			lg.Warn().Err(cerr).Msg("close document")
		}
	}()

	first, end, err := c.Job.PageRange(src.NumPage())
	if err != nil {
		return sum, err
	}
	sum.Requested = end - first

	workers := c.Job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	lg.Info().
		Int("start_page", first).
		Int("end_page", end).
		Int("pages_total", sum.Requested).
		Int("workers", workers).
		Msgf("starting %d pages", sum.Requested)

	var (
		mu       sync.Mutex
		failures []*PageError
		skipped  int
		tiles    int
	)
	failedSoFar := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(failures)
	}

	reports := []progress.ReportFunc{progress.LogReport(&lg, sum.Requested)}
	if c.Status != nil {
		reports = append(reports, func(done int) {
			if err := c.Status.Progress(ctx, c.RunID, done, failedSoFar()); err != nil {
				lg.Warn().Err(err).Msg("publish progress")
			}
		})
	}
	tracker := progress.New(c.Job.ReportEvery, reports...)

	c.publish(ctx, &lg, store.Status{
		Status:     "running",
		PagesTotal: sum.Requested,
		Message:    "processing pages",
		Start:      &started,
	})

	proc := &Processor{
		Source:    src,
		Extractor: c.Extractor,
		Sink:      c.Sink,
		Job:       c.Job,
		SavePages: c.SavePages,
		Tracker:   tracker,
		Log:       &lg,
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for page := first; page < end; page++ {
		g.Go(func() error {
			res, err := proc.ProcessPage(ctx, page)
			mu.Lock()
			defer mu.Unlock()
			tiles += res.Tiles
			if err != nil {
				var pe *PageError
				if !errors.As(err, &pe) {
					pe = pageErr(page, StageRender, err)
				}
				failures = append(failures, pe)
				return nil
			}
			if res.Skipped() {
				skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Page < failures[j].Page })
	sum.Succeeded = tracker.Count()
	sum.Skipped = skipped
	sum.Failed = len(failures)
	sum.Failures = failures
	sum.Tiles = tiles
	sum.Duration = time.Since(started)

	finished := time.Now()
	status := "completed"
	if sum.Failed > 0 {
		status = "completed_with_errors"
	}
	c.publish(ctx, &lg, store.Status{
		Status:      status,
		PagesDone:   sum.Succeeded,
		PagesFailed: sum.Failed,
		PagesTotal:  sum.Requested,
		Message:     fmt.Sprintf("Successfully processed %d pages", sum.Succeeded),
		Start:       &started,
		End:         &finished,
		Metadata:    map[string]interface{}{"tiles": sum.Tiles, "skipped": sum.Skipped},
	})

	lg.Info().
		Int("pages_failed", sum.Failed).
		Int("pages_skipped", sum.Skipped).
		Int("tiles", sum.Tiles).
		Dur("duration", sum.Duration).
		Msgf("Successfully processed %d pages", sum.Succeeded)
	return sum, nil
}

func (c *Coordinator) publish(ctx context.Context, lg *zerolog.Logger, st store.Status) {
	if c.Status == nil {
		return
	}
	if err := c.Status.Set(ctx, c.RunID, st); err != nil {
		lg.Warn().Err(err).Msg("publish status")
	}
}
