package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single conversion.
const DefaultTimeout = 180 * time.Second

// LibreOffice converts office documents to PDF with a headless soffice.
type LibreOffice struct {
	Binary    string
	Timeout   time.Duration
	semaphore chan struct{}
}

// Result represents the result of a conversion operation
type Result struct {
	OutputPath string
	Duration   time.Duration
}

// NewLibreOffice creates a converter allowing maxWorkers parallel conversions.
func NewLibreOffice(maxWorkers int) *LibreOffice {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &LibreOffice{
		Binary:    "libreoffice",
		Timeout:   DefaultTimeout,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Available reports whether the LibreOffice binary is on PATH.
func (l *LibreOffice) Available() bool {
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

// ConvertToPDF converts inputPath into a PDF inside outputDir.
func (l *LibreOffice) ConvertToPDF(ctx context.Context, inputPath, outputDir string) (Result, error) {
	startTime := time.Now()

	l.semaphore <- struct{}{}
	defer func() { <-l.semaphore }()

	if err := validateInput(inputPath); err != nil {
		return Result{}, fmt.Errorf("input validation failed: %w", err)
	}

	// Separate profile per conversion so parallel runs do not lock each other
	profileDir := filepath.Join(os.TempDir(), fmt.Sprintf("libreoffice_profile_%s", uuid.New().String()))
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create profile directory: %w", err)
	}
	defer os.RemoveAll(profileDir)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, l.Binary,
		fmt.Sprintf("-env:UserInstallation=file://%s", profileDir),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outputDir,
		inputPath,
	)
	log.Debug().Str("cmd", strings.Join(cmd.Args, " ")).Msg("LibreOffice command")

	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("conversion timeout after %v", timeout)
		}
		return Result{}, fmt.Errorf("conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	outputPath := expectedOutputPath(inputPath, outputDir)
	if _, err := os.Stat(outputPath); err != nil {
		return Result{}, fmt.Errorf("output file not created: %w", err)
	}

	res := Result{OutputPath: outputPath, Duration: time.Since(startTime)}
	log.Info().Str("input", inputPath).Str("output", outputPath).Dur("duration", res.Duration).Msg("conversion successful")
	return res, nil
}

// validateInput checks if the input file is readable
func validateInput(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty")
	}
	return nil
}

// expectedOutputPath is where LibreOffice writes the converted file.
func expectedOutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
}
