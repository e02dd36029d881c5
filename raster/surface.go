// Package raster draws the live dashboard scene into pixels: base map tiles,
// record markers and, while visible, the overlay panels.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"dost-atlas/mapview"
	"dost-atlas/markers"
)

var (
	ErrNoSurface    = errors.New("map surface is not available")
	ErrInvalidSize  = errors.New("invalid surface size")
	ErrInvalidScale = errors.New("invalid oversampling scale")
)

const (
	// MaxEdge bounds each surface edge in CSS pixels.
	MaxEdge = 8192
	// MaxArea bounds width*height in CSS pixels.
	MaxArea = 4096 * 4096
	// maxRasterPixels bounds the oversampled output (2x of MaxArea).
	maxRasterPixels = 4 * MaxArea
)

func validSize(width, height int) bool {
	return width >= 0 && height >= 0 && width <= MaxEdge && height <= MaxEdge && width*height <= MaxArea
}

// SceneFunc returns the scene as currently rendered.
type SceneFunc func() mapview.Scene

// Surface is the live map surface. Its size follows what the operator's
// viewport last reported; nothing about it is hardcoded at capture time.
type Surface struct {
	scene          SceneFunc
	overlayVisible func() bool
	tiles          TileSource

	mu            sync.RWMutex
	width, height int
}

func NewSurface(scene SceneFunc, overlayVisible func() bool, tiles TileSource, width, height int) *Surface {
	if tiles == nil {
		tiles = NoTiles{}
	}
	return &Surface{
		scene:          scene,
		overlayVisible: overlayVisible,
		tiles:          tiles,
		width:          width,
		height:         height,
	}
}

// Size is the current pixel size in CSS pixels.
func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// Resize records the viewport size reported by the operator UI. A zero size
// means the map is not mounted.
func (s *Surface) Resize(width, height int) error {
	if !validSize(width, height) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
	return nil
}

// Rasterize draws the scene at scale device pixels per CSS pixel.
func (s *Surface) Rasterize(ctx context.Context, scale float64) (image.Image, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 || s.scene == nil {
		return nil, ErrNoSurface
	}
	outW, outH := int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale))
	if !validSize(w, h) || outW*outH > maxRasterPixels {
		return nil, fmt.Errorf("%w: %dx%d at %vx", ErrInvalidSize, w, h, scale)
	}
	scene := s.scene()
	frame := NewFrame(scene.Viewport.Center, scene.Viewport.Zoom, w, h)

	base := s.baseMap(ctx, scene.BaseLayer, frame)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(out, out.Bounds(), base, base.Bounds(), draw.Src, nil)

	for _, m := range scene.Markers {
		x, y := frame.Point(m.Position)
		if x < -markers.IconWidth || y < 0 || x > float64(w)+markers.IconWidth || y > float64(h)+markers.IconHeight {
			continue
		}
		drawMarker(out, x*scale, y*scale, m.Descriptor, scale)
		if m.Descriptor.Label != "" {
			face := fontFace(11 * scale)
			drawHaloText(out, m.Descriptor.Label, int((x+float64(markers.IconWidth)/2+2)*scale), int((y-float64(markers.IconHeight)/2)*scale), slate700, face, int(math.Max(1, scale)))
		}
	}

	if s.overlayVisible != nil && s.overlayVisible() {
		drawOverlay(out, scene, scale)
	}
	drawAttribution(out, scene.BaseLayer.Attribution, scale)
	return out, nil
}

func (s *Surface) baseMap(ctx context.Context, layer mapview.BaseLayerDef, frame Frame) *image.RGBA {
	base := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	keys := frame.Tiles()
	wrapped := make([]TileKey, 0, len(keys))
	seen := make(map[TileKey]bool, len(keys))
	for _, k := range keys {
		wk := frame.Wrap(k)
		if !seen[wk] {
			seen[wk] = true
			wrapped = append(wrapped, wk)
		}
	}
	tiles := s.tiles.Tiles(ctx, layer, frame.Zoom, wrapped)

	for _, k := range keys {
		tile, ok := tiles[frame.Wrap(k)]
		if !ok || tile == nil {
			continue
		}
		x := int(math.Round(float64(k.X*TileSize) - frame.Left))
		y := int(math.Round(float64(k.Y*TileSize) - frame.Top))
		dst := image.Rect(x, y, x+TileSize, y+TileSize)
		draw.ApproxBiLinear.Scale(base, dst, tile, tile.Bounds(), draw.Src, nil)
	}
	return base
}

// drawOverlay paints the layer switcher and legend panels in the top right.
func drawOverlay(img *image.RGBA, scene mapview.Scene, scale float64) {
	face := fontFace(12 * scale)
	title := fontFace(13 * scale)
	lineH := int(20 * scale)
	pad := int(12 * scale)
	margin := int(16 * scale)

	panelW := int(200 * scale)
	for _, e := range scene.Legend {
		if w := textWidth(face, e.Label) + int(40*scale); w > panelW {
			panelW = w
		}
	}
	right := img.Bounds().Dx() - margin
	left := right - panelW

	// Layer switcher.
	top := margin
	switcherH := pad*2 + lineH*2
	fillRoundedRect(img, float64(left), float64(top), float64(right), float64(top+switcherH), 8*scale, panelFill)
	drawText(img, "Layers", left+pad, top+pad+lineH*3/4, slate700, title)
	x := left + pad
	for _, def := range mapview.BaseLayers() {
		bw := textWidth(face, def.Label) + int(20*scale)
		y0 := top + pad + lineH
		fill, ink := white, slate700
		if def.ID == scene.BaseLayer.ID {
			fill, ink = indigo600, white
		}
		fillRoundedRect(img, float64(x), float64(y0), float64(x+bw), float64(y0+lineH), float64(lineH)/2, slate300)
		fillRoundedRect(img, float64(x)+scale, float64(y0)+scale, float64(x+bw)-scale, float64(y0+lineH)-scale, float64(lineH)/2-scale, fill)
		drawText(img, def.Label, x+int(10*scale), y0+lineH*3/4, ink, face)
		x += bw + int(8*scale)
	}

	// Legend.
	top += switcherH + int(12*scale)
	legendH := pad*2 + lineH*(len(scene.Legend)+1)
	fillRoundedRect(img, float64(left), float64(top), float64(right), float64(top+legendH), 8*scale, panelFill)
	drawText(img, "Legend", left+pad, top+pad+lineH*3/4, slate700, title)
	for i, e := range scene.Legend {
		y := top + pad + lineH*(i+1)
		swatch, _ := markers.RGBA(e.Theme.Primary)
		if !e.Visible {
			swatch.A = 0x55
		}
		fillCircle(img, float64(left+pad)+6*scale, float64(y)+float64(lineH)/2, 6*scale, swatch)
		ink := slate700
		if !e.Visible {
			ink = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
		}
		drawText(img, e.Label, left+pad+int(20*scale), y+lineH*3/4, ink, face)
	}
}

func drawAttribution(img *image.RGBA, text string, scale float64) {
	if text == "" {
		return
	}
	face := fontFace(9 * scale)
	w := textWidth(face, text) + int(8*scale)
	h := int(14 * scale)
	b := img.Bounds()
	r := image.Rect(b.Max.X-w, b.Max.Y-h, b.Max.X, b.Max.Y)
	fillRect(img, r, color.NRGBA{0xff, 0xff, 0xff, 0xb0})
	drawText(img, text, r.Min.X+int(4*scale), r.Max.Y-int(4*scale), slate700, face)
}
