package regions

import (
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
)

const (
	// Gradient thresholds for edge hysteresis (same pair the dataset was
	// originally cut with).
	DefaultLowThreshold  = 50
	DefaultHighThreshold = 150

	// Edge components smaller than this are treated as noise.
	DefaultMinComponentPixels = 20
)

// EdgeExtractor finds content boxes as the bounding rectangles of connected
// edge components. Only outermost boxes are returned: a box fully inside
// another box is discarded.
type EdgeExtractor struct {
	Low                int
	High               int
	MinComponentPixels int
}

// NewEdgeExtractor creates an extractor with the default thresholds.
func NewEdgeExtractor() *EdgeExtractor {
	return &EdgeExtractor{
		Low:                DefaultLowThreshold,
		High:               DefaultHighThreshold,
		MinComponentPixels: DefaultMinComponentPixels,
	}
}

// Detect implements Extractor.
func (e *EdgeExtractor) Detect(img image.Image) ([]Rect, error) {
	if img == nil {
		return nil, nil
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	gray := toGrayscale(img)
	mag := gradientMagnitude(gray)
	comps := hysteresisComponents(mag, b.Dx(), b.Dy(), e.Low, e.High, e.MinComponentPixels)

	rects := make([]Rect, 0, len(comps))
	for _, c := range comps {
		rects = append(rects, Rect{X: b.Min.X + c.MinX, Y: b.Min.Y + c.MinY, W: c.Width, H: c.Height})
	}
	rects = outermost(rects)

	log.Debug().
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("components", len(comps)).
		Int("regions", len(rects)).
		Msg("edge regions detected")

	return rects, nil
}

// component is a connected set of edge pixels, in buffer coordinates.
type component struct {
	MinX, MinY int
	MaxX, MaxY int
	Width      int
	Height     int
	PixelCount int
}

// toGrayscale converts an image to a tightly packed grayscale buffer.
func toGrayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < b.Dx(); x++ {
				r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
				// ITU-R 601 luma, integer form
				gray.Pix[y*gray.Stride+x] = uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(bl) + 500) / 1000)
			}
		}
		return gray
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return gray
}

// gradientMagnitude returns the L1 Sobel magnitude per pixel. Border pixels
// are left at zero.
func gradientMagnitude(g *image.Gray) []int {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	mag := make([]int, w*h)
	if w < 3 || h < 3 {
		return mag
	}
	p := func(x, y int) int { return int(g.Pix[y*g.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -p(x-1, y-1) - 2*p(x-1, y) - p(x-1, y+1) + p(x+1, y-1) + 2*p(x+1, y) + p(x+1, y+1)
			gy := -p(x-1, y-1) - 2*p(x, y-1) - p(x+1, y-1) + p(x-1, y+1) + 2*p(x, y+1) + p(x+1, y+1)
			mag[y*w+x] = abs(gx) + abs(gy)
		}
	}
	return mag
}

// hysteresisComponents groups 8-connected pixels with magnitude >= low and
// keeps the groups containing at least one pixel >= high.
func hysteresisComponents(mag []int, w, h, low, high, minPixels int) []component {
	visited := make([]bool, w*h)
	var comps []component

	for start := range mag {
		if visited[start] || mag[start] < low {
			continue
		}
		comp, strong := floodFill(mag, visited, w, h, start, low, high)
		if strong && comp.PixelCount >= minPixels {
			comps = append(comps, comp)
		}
	}
	return comps
}

// floodFill walks one component iteratively and reports whether it holds a
// strong edge pixel.
func floodFill(mag []int, visited []bool, w, h, start, low, high int) (component, bool) {
	sx, sy := start%w, start/w
	comp := component{MinX: sx, MinY: sy, MaxX: sx, MaxY: sy}
	strong := false

	stack := []int{start}
	visited[start] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := i%w, i/w
		comp.PixelCount++
		if mag[i] >= high {
			strong = true
		}
		if x < comp.MinX {
			comp.MinX = x
		}
		if x > comp.MaxX {
			comp.MaxX = x
		}
		if y < comp.MinY {
			comp.MinY = y
		}
		if y > comp.MaxY {
			comp.MaxY = y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := ny*w + nx
				if visited[n] || mag[n] < low {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}

	comp.Width = comp.MaxX - comp.MinX + 1
	comp.Height = comp.MaxY - comp.MinY + 1
	return comp, strong
}

// outermost drops rectangles fully contained in another rectangle. The
// relative order of the survivors is preserved.
func outermost(rects []Rect) []Rect {
	out := rects[:0:0]
	for i, r := range rects {
		contained := false
		for j, o := range rects {
			if i == j {
				continue
			}
			if r.Bounds().In(o.Bounds()) && (r != o || j < i) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, r)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
