package regions

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func whitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func fillBox(img *image.RGBA, r image.Rectangle) {
	draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
}

func near(a, b int) bool { return a-b <= 2 && b-a <= 2 }

func TestEdgeExtractorFindsBoxes(t *testing.T) {
	page := whitePage(1200, 900)
	fillBox(page, image.Rect(100, 120, 400, 370))
	fillBox(page, image.Rect(600, 500, 1100, 800))

	rects, err := NewEdgeExtractor().Detect(page)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(rects) != 2 {
		t.Fatalf("got %d rects, want 2: %v", len(rects), rects)
	}

	ordered := FilterAndOrder(rects, 200, 200)
	if len(ordered) != 2 {
		t.Fatalf("filtered to %d rects, want 2: %v", len(ordered), ordered)
	}
	first, second := ordered[0], ordered[1]
	if !near(first.X, 100) || !near(first.Y, 120) || !near(first.W, 300) || !near(first.H, 250) {
		t.Fatalf("first region %v does not match drawn box", first)
	}
	if !near(second.X, 600) || !near(second.Y, 500) || !near(second.W, 500) || !near(second.H, 300) {
		t.Fatalf("second region %v does not match drawn box", second)
	}
}

func TestEdgeExtractorBlankPage(t *testing.T) {
	rects, err := NewEdgeExtractor().Detect(whitePage(300, 300))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(rects) != 0 {
		t.Fatalf("blank page produced regions: %v", rects)
	}
}

func TestEdgeExtractorHonoursSubImageOrigin(t *testing.T) {
	page := whitePage(800, 800)
	fillBox(page, image.Rect(300, 300, 600, 600))
	sub := page.SubImage(image.Rect(200, 200, 800, 800))

	rects, err := NewEdgeExtractor().Detect(sub)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(rects) != 1 || !near(rects[0].X, 300) || !near(rects[0].Y, 300) {
		t.Fatalf("expected one region near (300,300), got %v", rects)
	}
}

func TestOutermostDropsNested(t *testing.T) {
	in := []Rect{
		{X: 10, Y: 10, W: 50, H: 50},
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 200, Y: 0, W: 10, H: 10},
		{X: 200, Y: 0, W: 10, H: 10},
	}
	got := outermost(in)
	want := []Rect{{X: 0, Y: 0, W: 100, H: 100}, {X: 200, Y: 0, W: 10, H: 10}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
