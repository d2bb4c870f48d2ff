package pipeline

import (
	"errors"
	"fmt"
)

// ErrUnusableRender marks a page whose renderer returned no pixels. The page
// is skipped, not failed.
var ErrUnusableRender = errors.New("render produced no usable image")

// Stage names the step of a page that failed.
type Stage string

const (
	StageMkdir     Stage = "mkdir"
	StageRender    Stage = "render"
	StageSavePage  Stage = "save_page"
	StageDetect    Stage = "detect"
	StageCrop      Stage = "crop"
	StageWriteTile Stage = "write_tile"
	StagePanic     Stage = "panic"
)

// PageError is the failure of a single page. It never stops the batch.
type PageError struct {
	Page  int
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

func pageErr(page int, stage Stage, err error) *PageError {
	return &PageError{Page: page, Stage: stage, Err: err}
}

// StageOf reports the failed stage of err, or "" when err is not a page failure.
func StageOf(err error) Stage {
	var pe *PageError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
