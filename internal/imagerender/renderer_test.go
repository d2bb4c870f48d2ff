package imagerender

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

func TestEncodeRoundTripsEveryFormat(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 60, 45))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	src.Set(10, 20, color.RGBA{R: 200, G: 10, B: 10, A: 255})

	for _, f := range []Format{FormatPNG, FormatJPEG, FormatTIFF, FormatBMP} {
		for _, mode := range []ColorMode{ColorRGB, ColorGray} {
			var buf bytes.Buffer
			if err := Encode(&buf, src, Options{Format: f, Color: mode}); err != nil {
				t.Fatalf("%s/%s: %v", f, mode, err)
			}
			img, _, err := image.Decode(&buf)
			if err != nil {
				t.Fatalf("%s/%s decode: %v", f, mode, err)
			}
			if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
				t.Fatalf("%s/%s: bounds %v", f, mode, img.Bounds())
			}
		}
	}
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, image.NewRGBA(image.Rectangle{}), Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPNG, ".JPG": FormatJPEG, "tif": FormatTIFF, "bmp": FormatBMP}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("gif should be rejected")
	}
}
