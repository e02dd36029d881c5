package raster

import (
	"math"

	"dost-atlas/models"
)

// TileSize is the edge of a slippy-map tile in CSS pixels.
const TileSize = 256

// WorldPixel projects c to Web Mercator pixel space at zoom.
func WorldPixel(c models.Coordinates, zoom int) (x, y float64) {
	n := float64(TileSize) * math.Exp2(float64(zoom))
	lat := math.Max(math.Min(c.Lat, 85.05112878), -85.05112878)
	sin := math.Sin(lat * math.Pi / 180)
	x = (c.Lng + 180) / 360 * n
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * n
	return x, y
}

// Frame maps coordinates onto a surface of w×h CSS pixels centred on center.
type Frame struct {
	Zoom          int
	Left, Top     float64
	Width, Height int
}

func NewFrame(center models.Coordinates, zoom, w, h int) Frame {
	cx, cy := WorldPixel(center, zoom)
	return Frame{
		Zoom:   zoom,
		Left:   cx - float64(w)/2,
		Top:    cy - float64(h)/2,
		Width:  w,
		Height: h,
	}
}

// Point returns the surface position of c in CSS pixels.
func (f Frame) Point(c models.Coordinates) (x, y float64) {
	wx, wy := WorldPixel(c, f.Zoom)
	return wx - f.Left, wy - f.Top
}

// TileKey addresses one tile at the frame's zoom.
type TileKey struct {
	X, Y int
}

// Tiles lists the tiles covering the frame, row by row. Rows outside the
// world are skipped; columns wrap around the antimeridian.
func (f Frame) Tiles() []TileKey {
	minX := int(math.Floor(f.Left / TileSize))
	maxX := int(math.Floor((f.Left + float64(f.Width) - 1) / TileSize))
	minY := int(math.Floor(f.Top / TileSize))
	maxY := int(math.Floor((f.Top + float64(f.Height) - 1) / TileSize))
	limit := 1 << f.Zoom

	var keys []TileKey
	for ty := minY; ty <= maxY; ty++ {
		if ty < 0 || ty >= limit {
			continue
		}
		for tx := minX; tx <= maxX; tx++ {
			keys = append(keys, TileKey{X: tx, Y: ty})
		}
	}
	return keys
}

// Wrap folds a column index into [0, 2^zoom).
func (f Frame) Wrap(k TileKey) TileKey {
	limit := 1 << f.Zoom
	k.X = ((k.X % limit) + limit) % limit
	return k
}
