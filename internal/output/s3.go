package output

import (
	"context"
	"image"
	"path"
	"strconv"
	"strings"

	"github.com/local/wordtiles/internal/imagerender"
	"github.com/local/wordtiles/internal/storage"
)

// Uploader is the part of storage.S3Client the sink needs.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, password string, metadata *storage.FileMetadata) error
}

// S3Sink uploads pages to <prefix>/Word_List_<page>/<name>.
type S3Sink struct {
	Client   Uploader
	Prefix   string
	Password string
	RunID    string
	Options  imagerender.Options
}

func (s *S3Sink) Ext() string { return s.Options.Format.Ext() }

// EnsurePage implements Sink. Object stores have no directories to create.
func (s *S3Sink) EnsurePage(context.Context, int) error { return nil }

// Key returns the object key for a page file.
func (s *S3Sink) Key(page int, name string) string {
	return path.Join(strings.Trim(s.Prefix, "/"), PageDir(page), name)
}

// Put implements Sink.
func (s *S3Sink) Put(ctx context.Context, page int, name string, img image.Image) error {
	data, err := encode(img, s.Options)
	if err != nil {
		return err
	}
	meta := &storage.FileMetadata{
		OriginalName: name,
		ContentType:  s.Options.Format.ContentType(),
		Metadata: map[string]string{
			"page":   strconv.Itoa(page),
			"run_id": s.RunID,
		},
	}
	return s.Client.Upload(ctx, s.Key(page, name), data, s.Password, meta)
}
