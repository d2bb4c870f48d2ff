package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ValidationError reports an unusable configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the values that do not depend on the document.
func (c Config) Validate() error {
	j := c.Job
	switch {
	case strings.TrimSpace(j.Input) == "":
		return &ValidationError{Field: "input", Message: "document path is required"}
	case strings.TrimSpace(c.Output.Root) == "":
		return &ValidationError{Field: "output root", Message: "must not be empty"}
	case j.StartPage < 0:
		return &ValidationError{Field: "start page", Message: fmt.Sprintf("%d is negative", j.StartPage)}
	case j.EndPage < 0:
		return &ValidationError{Field: "end page", Message: fmt.Sprintf("%d is negative", j.EndPage)}
	case j.EndPage > 0 && j.EndPage <= j.StartPage:
		return &ValidationError{Field: "end page", Message: fmt.Sprintf("%d must be greater than start page %d", j.EndPage, j.StartPage)}
	case j.TargetWidth <= 0:
		return &ValidationError{Field: "target width", Message: "must be positive"}
	case j.Zoom <= 0:
		return &ValidationError{Field: "zoom", Message: "must be positive"}
	case j.MinRegionWidth < 0 || j.MinRegionHeight < 0:
		return &ValidationError{Field: "minimum region size", Message: "must not be negative"}
	case j.Workers <= 0:
		return &ValidationError{Field: "workers", Message: "must be at least 1"}
	}
	switch strings.ToLower(c.Output.Color) {
	case "", "rgb", "gray":
	default:
		return &ValidationError{Field: "color", Message: fmt.Sprintf("%q is not rgb or gray", c.Output.Color)}
	}
	return nil
}

// PageRange resolves the [start, end) page range against the document
// length. An end beyond the document is clamped; a range without pages is
// rejected.
func (j JobConfig) PageRange(pageCount int) (int, int, error) {
	end := pageCount
	if j.EndPage > 0 && j.EndPage < pageCount {
		end = j.EndPage
	}
	if j.EndPage > pageCount {
		log.Warn().Int("end_page", j.EndPage).Int("page_count", pageCount).Msg("end page beyond document; clamping")
	}
	if j.StartPage < 0 || j.StartPage >= end {
		return 0, 0, &ValidationError{
			Field:   "page range",
			Message: fmt.Sprintf("start page %d leaves no pages (document has %d, end %d)", j.StartPage, pageCount, end),
		}
	}
	return j.StartPage, end, nil
}
