package tiler

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestSpansExamples(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		target float64
		want   []Span
	}{
		{"exact two", 1000, 500, []Span{{0, 500}, {500, 1000}}},
		{"tail dropped", 1100, 500, []Span{{0, 500}, {500, 1000}}},
		{"tail kept at half", 1250, 500, []Span{{0, 500}, {500, 1000}, {1000, 1250}}},
		{"tail just under half", 1249, 500, []Span{{0, 500}, {500, 1000}}},
		{"narrower than target", 300, 500, []Span{{0, 300}}},
		{"very narrow", 10, 500, []Span{{0, 10}}},
		{"equal to target", 500, 500, []Span{{0, 500}}},
		{"fractional target", 1100, 516.6, []Span{{0, 516}, {516, 1033}}},
		{"zero width", 0, 500, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Spans(tc.width, tc.target)
			if len(got) != len(tc.want) {
				t.Fatalf("Spans(%d, %v) = %v, want %v", tc.width, tc.target, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("span %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestSpansProperties(t *testing.T) {
	for _, target := range []float64{37, 100, 250.5, 516.6} {
		for width := 1; width <= 3000; width += 7 {
			spans := Spans(width, target)
			if float64(width) <= target {
				if len(spans) != 1 || spans[0] != (Span{0, width}) {
					t.Fatalf("W=%d T=%v: want single full span, got %v", width, target, spans)
				}
				continue
			}

			n := int(math.Ceil(float64(width) / target))
			last := int(float64(n-1) * target)
			tail := float64(width-last) >= 0.5*target

			want := n - 1
			if tail {
				want++
			}
			if len(spans) != want {
				t.Fatalf("W=%d T=%v: got %d spans, want %d", width, target, len(spans), want)
			}

			covered := 0
			prevEnd := 0
			for _, s := range spans {
				if s.Start != prevEnd {
					t.Fatalf("W=%d T=%v: gap or overlap at %v", width, target, s)
				}
				if float64(s.Width()) > math.Ceil(target) {
					t.Fatalf("W=%d T=%v: span %v wider than target", width, target, s)
				}
				covered += s.Width()
				prevEnd = s.End
			}
			if covered > width {
				t.Fatalf("W=%d T=%v: covered %d > width", width, target, covered)
			}
			if got := Dropped(width, target); got != width-covered {
				t.Fatalf("W=%d T=%v: Dropped=%d, want %d", width, target, got, width-covered)
			}
		}
	}
}

func TestSplitUsesRegionBounds(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 1200, 400))
	// Mark the first column of the second tile.
	page.Set(600, 50, color.RGBA{R: 255, A: 255})

	region := page.SubImage(image.Rect(100, 50, 1100, 350))
	tiles := Split(region, 500)
	if len(tiles) != 2 {
		t.Fatalf("got %d tiles, want 2", len(tiles))
	}
	for i, tile := range tiles {
		b := tile.Bounds()
		if b.Dx() != 500 || b.Dy() != 300 {
			t.Fatalf("tile %d bounds %v, want 500x300", i, b)
		}
	}
	if got := tiles[1].At(tiles[1].Bounds().Min.X, tiles[1].Bounds().Min.Y); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("second tile does not start at column 600: %v", got)
	}
}

func TestSplitNil(t *testing.T) {
	if got := Split(nil, 500); got != nil {
		t.Fatalf("Split(nil) = %v", got)
	}
}

func TestCropClampsToBounds(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 50))
	got := Crop(img, image.Rect(80, 40, 140, 90))
	if got.Bounds() != image.Rect(80, 40, 100, 50) {
		t.Fatalf("crop bounds = %v", got.Bounds())
	}
	if !Crop(img, image.Rect(200, 200, 210, 210)).Bounds().Empty() {
		t.Fatal("crop outside the image should be empty")
	}
}
