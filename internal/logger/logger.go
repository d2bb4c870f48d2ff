// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const defaultService = "wordtiles"

// Options defines logger initialization parameters.
type Options struct {
	Service    string
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
}

func (o Options) service() string {
	if o.Service == "" {
		return defaultService
	}
	return o.Service
}

var forwarder *axiomForwarder

// Init replaces the global logger. Lines go to stdout (console format when
// Pretty), to a rotated file when File is set, and to Axiom when enabled.
// An unusable Axiom setup is reported on stderr and skipped.
func Init(opts Options) error {
	writers, err := sinks(opts)
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	log.Logger = zerolog.New(io.MultiWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return nil
}

func sinks(opts Options) ([]io.Writer, error) {
	var out []io.Writer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		out = append(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	if opts.Pretty {
		out = append(out, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		out = append(out, os.Stdout)
	}

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		dataset := opts.AxiomDataset
		if dataset == "" {
			dataset = "dev_" + opts.service()
		}
		f, err := newAxiomForwarder(opts.AxiomAPIKey, opts.AxiomOrgID, dataset, opts.service(), opts.AxiomFlush)
		if err != nil {
			fmt.Fprintf(os.Stderr, "axiom disabled: %v\n", err)
		} else {
			forwarder = f
			out = append(out, f)
		}
	}
	return out, nil
}

// Close flushes events still buffered for Axiom.
func Close() {
	if forwarder != nil {
		forwarder.Close()
		forwarder = nil
	}
}

// WithRun returns a child of the global logger whose lines all carry run_id.
func WithRun(runID string) zerolog.Logger {
	return log.Logger.With().Str("run_id", runID).Logger()
}
