// Package tiler slices a region image into fixed-width horizontal tiles.
//
// Tail policy: every slice except the last is one target width wide, with
// column boundaries truncated to whole pixels. With a fractional target a
// slice can therefore be one column wider than the target (517 at 516.6). The final, narrower slice is kept
// only when it is at least half the target width; otherwise its pixels are
// dropped. They are not merged into the previous tile. A region no wider than
// the target always yields a single tile covering it.
package tiler

import (
	"image"
	"math"
)

// MinTailFraction is the fraction of the target width a trailing slice must
// reach to be emitted.
const MinTailFraction = 0.5

// Span is a half-open column range [Start, End) within a region.
type Span struct {
	Start int
	End   int
}

// Width returns the number of columns covered by the span.
func (s Span) Width() int { return s.End - s.Start }

// Spans computes the column ranges for a region of the given pixel width.
func Spans(width int, target float64) []Span {
	if width <= 0 || target <= 0 {
		return nil
	}
	w := float64(width)
	if w <= target {
		return []Span{{Start: 0, End: width}}
	}
	n := int(math.Ceil(w / target))

	spans := make([]Span, 0, n)
	for i := 0; i < n-1; i++ {
		spans = append(spans, Span{
			Start: int(float64(i) * target),
			End:   int(math.Min(float64(i+1)*target, w)),
		})
	}

	last := int(float64(n-1) * target)
	if w-float64(last) >= target*MinTailFraction {
		spans = append(spans, Span{Start: last, End: width})
	}
	return spans
}

// Dropped returns how many trailing columns the tail policy discards.
func Dropped(width int, target float64) int {
	spans := Spans(width, target)
	if len(spans) == 0 {
		if width > 0 {
			return width
		}
		return 0
	}
	return width - spans[len(spans)-1].End
}

// subImager is implemented by every concrete image type in the standard
// library (RGBA, Gray, NRGBA, YCbCr, ...).
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Split returns the tiles of img in left-to-right order. Tiles share pixel
// memory with img when it supports SubImage and are copied otherwise.
func Split(img image.Image, target float64) []image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	spans := Spans(b.Dx(), target)
	tiles := make([]image.Image, 0, len(spans))
	for _, s := range spans {
		r := image.Rect(b.Min.X+s.Start, b.Min.Y, b.Min.X+s.End, b.Max.Y)
		tiles = append(tiles, Crop(img, r))
	}
	return tiles
}

// Crop returns the part of img inside r, clamped to img's bounds. The result
// is empty when r does not overlap the image.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
	return out
}
