package document

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/wordtiles/internal/converter"
	"github.com/local/wordtiles/internal/filetype"
)

// Preparer makes sure a local document is something the renderer can open.
type Preparer struct {
	Detector  *filetype.Detector
	Converter *converter.LibreOffice
	// WorkDir receives converted PDFs.
	WorkDir string
}

// Prepared describes the file handed to the renderer.
type Prepared struct {
	Path      string
	MIMEType  string
	Converted bool
}

// Prepare sniffs the file type and converts office documents to PDF.
func (p *Preparer) Prepare(ctx context.Context, path string) (Prepared, error) {
	det := p.Detector
	if det == nil {
		det = filetype.New()
	}
	info, err := det.Detect(path)
	if err != nil {
		return Prepared{}, err
	}

	switch info.Kind {
	case filetype.Renderable:
		return Prepared{Path: path, MIMEType: info.MIMEType}, nil
	case filetype.Convertible:
		if p.Converter == nil {
			return Prepared{}, fmt.Errorf("%s needs conversion but no converter is configured", info.Description)
		}
		log.Info().Str("path", path).Str("mime", info.MIMEType).Msg("converting document to PDF")
		res, err := p.Converter.ConvertToPDF(ctx, path, p.WorkDir)
		if err != nil {
			return Prepared{}, fmt.Errorf("convert %s: %w", path, err)
		}
		return Prepared{Path: res.OutputPath, MIMEType: "application/pdf", Converted: true}, nil
	default:
		return Prepared{}, fmt.Errorf("cannot render %s: %s", path, info.Description)
	}
}
