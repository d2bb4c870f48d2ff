package document

import (
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// BaseDPI is the resolution a zoom factor of 1 renders at.
const BaseDPI = 72.0

// FitzOpener opens documents with MuPDF through go-fitz. The returned Source
// is serialized: MuPDF contexts are not shared safely between goroutines.
type FitzOpener struct{}

// Open implements Opener.
func (FitzOpener) Open(path string) (Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	log.Debug().Str("path", path).Int("pages", doc.NumPage()).Msg("opened document with go-fitz")
	return Serialize(fitzDoc{doc}), nil
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) Render(page int, zoom float64) (image.Image, error) {
	if page < 0 || page >= d.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.NumPage())
	}
	img, err := d.ImageDPI(page, BaseDPI*zoom)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	if img == nil {
		return nil, nil
	}
	return img, nil
}
