package output

import (
	"bytes"
	"context"
	"image"

	"github.com/local/wordtiles/internal/imagerender"
)

// Sink stores the images produced for each page.
type Sink interface {
	// EnsurePage prepares the page location. It is idempotent.
	EnsurePage(ctx context.Context, page int) error
	// Put encodes img and stores it as name inside the page location.
	Put(ctx context.Context, page int, name string, img image.Image) error
	// Ext is the file extension, with dot, of everything Put writes.
	Ext() string
}

func encode(img image.Image, opts imagerender.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := imagerender.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
