package raster

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"dost-atlas/markers"
)

var (
	white      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	slate700   = color.RGBA{0x33, 0x41, 0x55, 0xff}
	slate300   = color.RGBA{0xcb, 0xd5, 0xe1, 0xff}
	indigo600  = color.RGBA{0x4f, 0x46, 0xe5, 0xff}
	background = color.RGBA{0xe8, 0xe8, 0xe8, 0xff}
	panelFill  = color.RGBA{0xff, 0xff, 0xff, 0xf0}
)

// blend composites c over the pixel at (x, y) with extra coverage in [0,1].
func blend(img *image.RGBA, x, y int, c color.RGBA, coverage float64) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) || coverage <= 0 {
		return
	}
	if coverage > 1 {
		coverage = 1
	}
	a := float64(c.A) / 255 * coverage
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	p[0] = uint8(float64(c.R)*a + float64(p[0])*(1-a))
	p[1] = uint8(float64(c.G)*a + float64(p[1])*(1-a))
	p[2] = uint8(float64(c.B)*a + float64(p[2])*(1-a))
	p[3] = uint8(255*a + float64(p[3])*(1-a))
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	x0, x1 := int(math.Floor(cx-r-1)), int(math.Ceil(cx+r+1))
	y0, y1 := int(math.Floor(cy-r-1)), int(math.Ceil(cy+r+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			blend(img, x, y, c, r-d+0.5)
		}
	}
}

func fillRoundedRect(img *image.RGBA, x0, y0, x1, y1, r float64, c color.RGBA) {
	for y := int(math.Floor(y0)); y < int(math.Ceil(y1)); y++ {
		for x := int(math.Floor(x0)); x < int(math.Ceil(x1)); x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			dx := math.Max(math.Max(x0+r-px, px-(x1-r)), 0)
			dy := math.Max(math.Max(y0+r-py, py-(y1-r)), 0)
			blend(img, x, y, c, r-math.Hypot(dx, dy)+0.5)
		}
	}
}

func fillTriangle(img *image.RGBA, ax, ay, bx, by, cx, cy float64, c color.RGBA) {
	minX := int(math.Floor(math.Min(ax, math.Min(bx, cx))))
	maxX := int(math.Ceil(math.Max(ax, math.Max(bx, cx))))
	minY := int(math.Floor(math.Min(ay, math.Min(by, cy))))
	maxY := int(math.Ceil(math.Max(ay, math.Max(by, cy))))
	edge := func(x0, y0, x1, y1, px, py float64) float64 {
		return (x1-x0)*(py-y0) - (y1-y0)*(px-x0)
	}
	area := edge(ax, ay, bx, by, cx, cy)
	if area == 0 {
		return
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			w0 := edge(bx, by, cx, cy, px, py) / area
			w1 := edge(cx, cy, ax, ay, px, py) / area
			w2 := edge(ax, ay, bx, by, px, py) / area
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				blend(img, x, y, c, 1)
			}
		}
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Over)
}

// drawMarker draws d with its tip at (x, y) in device pixels.
func drawMarker(img *image.RGBA, x, y float64, d markers.Descriptor, scale float64) {
	primary, _ := markers.RGBA(d.Theme.Primary)
	secondary, _ := markers.RGBA(d.Theme.Secondary)
	ring, _ := markers.RGBA(d.Theme.Ring)
	light, _ := markers.RGBA(d.Theme.Light)

	w := float64(d.Size.X) * scale
	h := float64(d.Size.Y) * scale
	top := y - h

	switch d.Shape {
	case markers.ShapeDot:
		r := w / 3
		fillCircle(img, x, y-r, r+2*scale, ring)
		fillCircle(img, x, y-r, r, primary)
		fillCircle(img, x, y-r, r*0.4, light)
	case markers.ShapeSquare:
		half := w / 2
		body := top + half
		fillTriangle(img, x-half*0.55, body+half*0.6, x+half*0.55, body+half*0.6, x, y, secondary)
		fillRoundedRect(img, x-half-scale, top-scale, x+half+scale, top+w+scale, 7*scale, ring)
		fillRoundedRect(img, x-half+scale, top+scale, x+half-scale, top+w-scale, 6*scale, primary)
		fillRoundedRect(img, x-half*0.4, top+half*0.6, x+half*0.4, top+half*1.4, 3*scale, light)
	default:
		r := w / 2
		cy := top + r
		fillTriangle(img, x-r*0.7, cy+r*0.55, x+r*0.7, cy+r*0.55, x, y, secondary)
		fillCircle(img, x, cy, r, ring)
		fillCircle(img, x, cy, r-2*scale, primary)
		fillCircle(img, x, cy, r*0.38, light)
	}
}

var (
	gofontOnce sync.Once
	gofontData *opentype.Font
	gofontErr  error
	faceMu     sync.Mutex
	faceCache  = make(map[float64]font.Face)
)

// fontFace returns the Go regular face at size points, falling back to the
// fixed 7x13 bitmap face if the embedded font cannot be parsed.
func fontFace(size float64) font.Face {
	gofontOnce.Do(func() {
		gofontData, gofontErr = opentype.Parse(goregular.TTF)
	})
	if gofontErr != nil || gofontData == nil {
		return basicfont.Face7x13
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if face, ok := faceCache[size]; ok {
		return face
	}
	face, err := opentype.NewFace(gofontData, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	faceCache[size] = face
	return face
}

func drawText(img *image.RGBA, text string, x, y int, c color.RGBA, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawHaloText draws text with a white outline so it reads on imagery.
func drawHaloText(img *image.RGBA, text string, x, y int, c color.RGBA, face font.Face, halo int) {
	for _, dx := range []int{-halo, 0, halo} {
		for _, dy := range []int{-halo, 0, halo} {
			if dx == 0 && dy == 0 {
				continue
			}
			drawText(img, text, x+dx, y+dy, white, face)
		}
	}
	drawText(img, text, x, y, c, face)
}

func textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}
