// Package pipeline renders document pages, cuts their regions into tiles and
// runs whole page ranges through a bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/wordtiles/internal/config"
	"github.com/local/wordtiles/internal/document"
	"github.com/local/wordtiles/internal/metrics"
	"github.com/local/wordtiles/internal/output"
	"github.com/local/wordtiles/internal/progress"
	"github.com/local/wordtiles/internal/regions"
	"github.com/local/wordtiles/internal/tiler"
)

// PageResult describes what one page produced.
type PageResult struct {
	Page          int
	Regions       int
	Tiles         int
	DroppedPixels int
	Skip          error // ErrUnusableRender when the page was skipped
	Duration      time.Duration
}

// Skipped reports whether the page was skipped rather than processed.
func (r PageResult) Skipped() bool { return r.Skip != nil }

// Processor runs the per-page steps. All fields are shared read-only between
// workers; Source must be safe for concurrent Render calls (see
// document.Serialize).
type Processor struct {
	Source    document.Source
	Extractor regions.Extractor
	Sink      output.Sink
	Job       *config.JobConfig
	SavePages bool
	Tracker   *progress.Tracker
	Log       *zerolog.Logger // defaults to the global logger
}

func (p *Processor) logger() *zerolog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return &log.Logger
}

// ProcessPage renders page, writes the page image and its tiles, then
// records progress. A failure at any step is returned as *PageError and no
// progress is recorded for the page.
func (p *Processor) ProcessPage(ctx context.Context, page int) (res PageResult, err error) {
	started := time.Now()
	res.Page = page
	metrics.PageStarted()

	defer func() {
		if r := recover(); r != nil {
			err = pageErr(page, StagePanic, fmt.Errorf("%v", r))
		}
		metrics.PageFinished()
		res.Duration = time.Since(started)

		result := "success"
		switch {
		case err != nil:
			result = "failed"
			p.logger().Error().Err(err).Int("page", page).Str("stage", string(StageOf(err))).Msg("page failed")
		case res.Skipped():
			result = "skipped"
		}
		metrics.ObservePage(result, res.Duration)
	}()

	if err = p.process(ctx, page, &res); err != nil {
		return res, err
	}
	if p.Tracker != nil {
		p.Tracker.Record()
	}
	return res, nil
}

func (p *Processor) process(ctx context.Context, page int, res *PageResult) error {
	if err := p.Sink.EnsurePage(ctx, page); err != nil {
		return pageErr(page, StageMkdir, err)
	}

	img, err := p.Source.Render(page, p.Job.Zoom)
	if err != nil {
		return pageErr(page, StageRender, err)
	}
	if img == nil || img.Bounds().Empty() {
		res.Skip = ErrUnusableRender
		p.logger().Warn().Int("page", page).Err(ErrUnusableRender).Msg("skipping page")
		return nil
	}

	ext := p.Sink.Ext()
	if p.SavePages {
		if err := p.Sink.Put(ctx, page, output.PageImageName(page, ext), img); err != nil {
			return pageErr(page, StageSavePage, err)
		}
	}

	found, err := p.Extractor.Detect(img)
	if err != nil {
		return pageErr(page, StageDetect, err)
	}
	kept := regions.FilterAndOrder(found, p.Job.MinRegionWidth, p.Job.MinRegionHeight)
	res.Regions = len(kept)
	metrics.AddRegions(len(kept))

	seq := 0
	for i, r := range kept {
		regionImg := tiler.Crop(img, r.Bounds())
		rb := regionImg.Bounds()
		if rb.Empty() {
			return pageErr(page, StageCrop, fmt.Errorf("region %d %v outside page %v", i+1, r.Bounds(), img.Bounds()))
		}

		tiles := tiler.Split(regionImg, p.Job.TargetWidth)
		if cols := tiler.Dropped(rb.Dx(), p.Job.TargetWidth); cols > 0 {
			px := cols * rb.Dy()
			res.DroppedPixels += px
			metrics.AddDroppedPixels(px)
			p.logger().Debug().Int("page", page).Int("region", i+1).Int("columns", cols).Msg("tail columns dropped")
		}

		for _, tile := range tiles {
			seq++
			name := output.TileName(page, i+1, seq, ext)
			if err := p.Sink.Put(ctx, page, name, tile); err != nil {
				return pageErr(page, StageWriteTile, fmt.Errorf("%s: %w", name, err))
			}
			metrics.IncTile()
			res.Tiles++
		}
	}

	p.logger().Debug().Int("page", page).Int("regions", res.Regions).Int("tiles", res.Tiles).Msg("page done")
	return nil
}
