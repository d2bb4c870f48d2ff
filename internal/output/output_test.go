package output

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/local/wordtiles/internal/imagerender"
	"github.com/local/wordtiles/internal/storage"
)

func TestNames(t *testing.T) {
	if got := PageDir(3); got != "Word_List_3" {
		t.Errorf("PageDir = %s", got)
	}
	if got := PageImageName(3, ".png"); got != "page_3.png" {
		t.Errorf("PageImageName = %s", got)
	}
	if got := TileName(3, 2, 7, ".png"); got != "word_list_3_2_cut_7.png" {
		t.Errorf("TileName = %s", got)
	}
}

func TestLocalSinkWritesDecodableImages(t *testing.T) {
	root := t.TempDir()
	s := NewLocalSink(root, imagerender.Options{Format: imagerender.FormatPNG})
	ctx := context.Background()

	if err := s.EnsurePage(ctx, 4); err != nil {
		t.Fatalf("EnsurePage: %v", err)
	}
	if err := s.EnsurePage(ctx, 4); err != nil {
		t.Fatalf("EnsurePage is not idempotent: %v", err)
	}

	name := TileName(4, 1, 1, s.Ext())
	if err := s.Put(ctx, 4, name, image.NewGray(image.Rect(0, 0, 30, 12))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	f, err := os.Open(filepath.Join(root, "Word_List_4", "word_list_4_1_cut_1.png"))
	if err != nil {
		t.Fatalf("tile missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil || img.Bounds().Dx() != 30 {
		t.Fatalf("decode: %v %v", img, err)
	}
	if _, err := os.Stat(filepath.Join(root, "Word_List_4", name+".part")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestLocalSinkPutWithoutPageDirFails(t *testing.T) {
	s := NewLocalSink(t.TempDir(), imagerender.Options{})
	if err := s.Put(context.Background(), 1, "x.png", image.NewGray(image.Rect(0, 0, 2, 2))); err == nil {
		t.Fatal("expected error when the page directory is missing")
	}
}

type fakeUploader struct {
	mu   sync.Mutex
	keys map[string]*storage.FileMetadata
}

func (f *fakeUploader) Upload(_ context.Context, key string, data []byte, password string, meta *storage.FileMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = map[string]*storage.FileMetadata{}
	}
	f.keys[key] = meta
	return nil
}

func TestS3SinkKeys(t *testing.T) {
	up := &fakeUploader{}
	s := &S3Sink{Client: up, Prefix: "/datasets/run-1/", RunID: "run-1", Options: imagerender.Options{Format: imagerender.FormatJPEG}}
	name := TileName(0, 1, 1, s.Ext())
	if err := s.Put(context.Background(), 0, name, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	meta, ok := up.keys["datasets/run-1/Word_List_0/word_list_0_1_cut_1.jpg"]
	if !ok {
		t.Fatalf("unexpected keys: %v", up.keys)
	}
	if meta.ContentType != "image/jpeg" || meta.Metadata["page"] != "0" || meta.Metadata["run_id"] != "run-1" {
		t.Fatalf("metadata = %+v", meta)
	}
}
