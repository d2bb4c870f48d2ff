// Package document opens multi-page documents and renders their pages to
// pixel buffers.
package document

import (
	"image"
	"sync"
)

// Source is an opened document. Render returns the page (0-based) rasterized
// at zoom times its natural 72 dpi size.
type Source interface {
	NumPage() int
	Render(page int, zoom float64) (image.Image, error)
	Close() error
}

// Opener opens a local document path into a Source.
type Opener interface {
	Open(path string) (Source, error)
}

// OpenerFunc adapts a plain function to Opener.
type OpenerFunc func(path string) (Source, error)

func (f OpenerFunc) Open(path string) (Source, error) { return f(path) }

// Serialize guards a Source whose renderer is not safe for concurrent use.
// Only Render and Close take the lock; callers keep everything after the
// render parallel.
func Serialize(src Source) Source {
	if s, ok := src.(*serialized); ok {
		return s
	}
	return &serialized{src: src}
}

type serialized struct {
	mu  sync.Mutex
	src Source
}

func (s *serialized) NumPage() int { return s.src.NumPage() }

func (s *serialized) Render(page int, zoom float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Render(page, zoom)
}

func (s *serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Close()
}
