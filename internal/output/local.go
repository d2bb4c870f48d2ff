package output

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/local/wordtiles/internal/imagerender"
)

// LocalSink writes pages under a root directory on the local filesystem.
type LocalSink struct {
	Root    string
	Options imagerender.Options
}

// NewLocalSink creates a sink rooted at root.
func NewLocalSink(root string, opts imagerender.Options) *LocalSink {
	return &LocalSink{Root: root, Options: opts}
}

func (s *LocalSink) Ext() string { return s.Options.Format.Ext() }

// PagePath returns the directory of a page.
func (s *LocalSink) PagePath(page int) string { return filepath.Join(s.Root, PageDir(page)) }

// EnsurePage implements Sink.
func (s *LocalSink) EnsurePage(_ context.Context, page int) error {
	if err := os.MkdirAll(s.PagePath(page), 0o755); err != nil {
		return fmt.Errorf("create page dir: %w", err)
	}
	return nil
}

// Put implements Sink. The file is written to a temp name and renamed so a
// crashed run never leaves a truncated image behind.
func (s *LocalSink) Put(_ context.Context, page int, name string, img image.Image) error {
	data, err := encode(img, s.Options)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.PagePath(page), name)
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
