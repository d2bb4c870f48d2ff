// Package regions turns raw detected rectangles into the ordered list of
// content regions that get tiled.
package regions

import (
	"image"
	"sort"
)

// Rect is an axis-aligned box in page-render pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Extractor finds candidate content boxes on a rendered page. Results carry
// no ordering guarantee.
type Extractor interface {
	Detect(img image.Image) ([]Rect, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(img image.Image) ([]Rect, error)

func (f ExtractorFunc) Detect(img image.Image) ([]Rect, error) { return f(img) }

// FilterAndOrder keeps rectangles strictly larger than minW x minH and sorts
// them top to bottom. Rectangles sharing a Y keep the extractor's order.
func FilterAndOrder(rects []Rect, minW, minH int) []Rect {
	out := make([]Rect, 0, len(rects))
	for _, r := range rects {
		if r.W > minW && r.H > minH {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y < out[j].Y })
	return out
}
