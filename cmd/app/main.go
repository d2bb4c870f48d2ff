package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/wordtiles/internal/config"
	"github.com/local/wordtiles/internal/converter"
	"github.com/local/wordtiles/internal/document"
	"github.com/local/wordtiles/internal/filetype"
	"github.com/local/wordtiles/internal/imagerender"
	logpkg "github.com/local/wordtiles/internal/logger"
	"github.com/local/wordtiles/internal/metrics"
	"github.com/local/wordtiles/internal/output"
	"github.com/local/wordtiles/internal/pipeline"
	"github.com/local/wordtiles/internal/regions"
	"github.com/local/wordtiles/internal/statuscheck"
	"github.com/local/wordtiles/internal/storage"
	"github.com/local/wordtiles/internal/store"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	m := parseFlags(&cfg)

	_ = logpkg.Init(logpkg.Options{
		Service:      "wordtiles",
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})

	var code int
	switch {
	case m.status != "":
		code = showStatus(cfg, m.status)
	case m.check:
		code = check(cfg)
	default:
		code = run(cfg, m.plan)
	}
	logpkg.Close()
	os.Exit(code)
}

type mode struct {
	plan   bool
	check  bool
	status string
}

func parseFlags(cfg *cfgpkg.Config) mode {
	j := &cfg.Job
	flag.StringVar(&j.Input, "in", j.Input, "document path or file://, http(s)://, s3:// reference")
	flag.StringVar(&cfg.Output.Root, "out", cfg.Output.Root, "output directory or s3://bucket/prefix")
	flag.IntVar(&j.StartPage, "start", j.StartPage, "first page, 0-based inclusive")
	flag.IntVar(&j.EndPage, "end", j.EndPage, "end page, 0-based exclusive (0 = document length)")
	flag.Float64Var(&j.TargetWidth, "width", j.TargetWidth, "tile width in pixels")
	flag.Float64Var(&j.Zoom, "zoom", j.Zoom, "render scale relative to 72 dpi")
	flag.IntVar(&j.MinRegionWidth, "min-width", j.MinRegionWidth, "regions must be wider than this")
	flag.IntVar(&j.MinRegionHeight, "min-height", j.MinRegionHeight, "regions must be taller than this")
	flag.IntVar(&j.Workers, "workers", j.Workers, "pages processed in parallel")
	flag.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "png, jpeg, tiff or bmp")
	flag.StringVar(&cfg.Output.Color, "color", cfg.Output.Color, "rgb or gray")
	flag.BoolVar(&cfg.Output.SavePages, "save-pages", cfg.Output.SavePages, "also write the rendered page image")
	plan := flag.Bool("plan", false, "print the page range that would be processed and exit")
	chk := flag.Bool("check", false, "check redis, s3 and libreoffice connectivity and exit")
	status := flag.String("status", "", "print the published status of a run id and exit")
	flag.Parse()
	return mode{plan: *plan, check: *chk, status: *status}
}

func run(cfg cfgpkg.Config, plan bool) int {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		metrics.Init()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	runID := uuid.NewString()
	s3opts := storage.Options{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PathStyle: cfg.S3.PathStyle,
	}

	fetcher := &document.Fetcher{S3Options: s3opts, Password: cfg.S3.InputPassword}
	local, cleanup, err := fetcher.Resolve(ctx, cfg.Job.Input)
	if err != nil {
		log.Error().Err(err).Str("input", cfg.Job.Input).Msg("fetch document")
		return 1
	}
	defer cleanup()

	workDir, err := os.MkdirTemp("", "wordtiles-work-*")
	if err != nil {
		log.Error().Err(err).Msg("create work dir")
		return 1
	}
	defer os.RemoveAll(workDir)

	prep := &document.Preparer{Detector: filetype.New(), WorkDir: workDir}
	if cfg.Convert.Enabled {
		lo := converter.NewLibreOffice(1)
		lo.Timeout = cfg.Convert.Timeout
		prep.Converter = lo
	}
	doc, err := prep.Prepare(ctx, local)
	if err != nil {
		log.Error().Err(err).Msg("prepare document")
		return 1
	}

	if plan {
		return printPlan(cfg.Job, doc)
	}

	sink, err := buildSink(ctx, cfg, s3opts, runID)
	if err != nil {
		log.Error().Err(err).Msg("output sink")
		return 1
	}

	coord := &pipeline.Coordinator{
		RunID:     runID,
		Path:      doc.Path,
		Opener:    document.FitzOpener{},
		Extractor: regions.NewEdgeExtractor(),
		Sink:      sink,
		Job:       &cfg.Job,
		SavePages: cfg.Output.SavePages,
	}
	if cfg.Status.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("status publishing disabled")
		} else {
			defer rs.Close()
			coord.Status = rs
		}
	}

	sum, err := coord.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}
	for _, f := range sum.Failures {
		log.Warn().Int("page", f.Page).Str("stage", string(f.Stage)).Err(f.Err).Msg("page not processed")
	}
	fmt.Printf("Successfully processed %d pages\n", sum.Succeeded)
	return 0
}

func printPlan(job cfgpkg.JobConfig, doc document.Prepared) int {
	count, err := document.PageCount(doc, document.FitzOpener{})
	if err != nil {
		log.Error().Err(err).Msg("count pages")
		return 1
	}
	start, end, err := job.PageRange(count)
	if err != nil {
		log.Error().Err(err).Msg("page range")
		return 2
	}
	fmt.Printf("%s: %d pages, would process [%d, %d) = %d pages\n", doc.Path, count, start, end, end-start)
	return 0
}

func buildSink(ctx context.Context, cfg cfgpkg.Config, s3opts storage.Options, runID string) (output.Sink, error) {
	format, err := imagerender.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	opts := imagerender.Options{
		Format:  format,
		Quality: cfg.Output.JPEGQuality,
		Color:   imagerender.ColorMode(strings.ToLower(cfg.Output.Color)),
	}

	root := cfg.Output.Root
	if !strings.HasPrefix(root, "s3://") {
		return output.NewLocalSink(root, opts), nil
	}
	bucket, prefix, ok := s3Target(root)
	if !ok {
		return nil, fmt.Errorf("invalid s3 output: %s", root)
	}
	s3opts.Bucket = bucket
	cli, err := storage.NewS3Client(ctx, s3opts)
	if err != nil {
		return nil, err
	}
	return &output.S3Sink{
		Client:   cli,
		Prefix:   prefix,
		Password: cfg.Output.Password,
		RunID:    runID,
		Options:  opts,
	}, nil
}

func showStatus(cfg cfgpkg.Config, runID string) int {
	if cfg.Status.RedisURL == "" {
		log.Error().Msg("REDIS_URL is not set")
		return 2
	}
	rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.TTL)
	if err != nil {
		log.Error().Err(err).Msg("redis")
		return 1
	}
	defer rs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, ok, err := rs.Get(ctx, runID)
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("read status")
		return 1
	}
	if !ok {
		log.Error().Str("run_id", runID).Msg("unknown run")
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(st)
	return 0
}

type failedPinger struct{ err error }

func (f failedPinger) Ping(context.Context) error { return f.err }

func check(cfg cfgpkg.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var c statuscheck.Checker
	if cfg.Status.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.TTL)
		if err != nil {
			c.Redis = failedPinger{err: err}
		} else {
			defer rs.Close()
			c.Redis = rs
		}
	}
	if bucket, _, ok := s3Target(cfg.Output.Root); ok {
		cli, err := storage.NewS3Client(ctx, storage.Options{
			Bucket:    bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			log.Error().Err(err).Msg("s3 client")
			return 1
		}
		c.S3 = cli
	}
	if cfg.Convert.Enabled {
		c.LibreOffice = converter.NewLibreOffice(1)
	}

	sum := c.Summary(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)
	if !sum.Ready() {
		return 1
	}
	return 0
}

// s3Target splits s3://bucket/prefix.
func s3Target(root string) (bucket, prefix string, ok bool) {
	if !strings.HasPrefix(root, "s3://") {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(root, "s3://"), "/")
	return bucket, prefix, bucket != ""
}
