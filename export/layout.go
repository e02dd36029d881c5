package export

import (
	"errors"
	"fmt"
	"math"
)

// A4 landscape, in millimetres.
const (
	PageWidth  = 297.0
	PageHeight = 210.0
)

var ErrEmptyRaster = errors.New("raster has no pixels")

// Layout places an image on a page. All values are in page units.
type Layout struct {
	Scale  float64
	X, Y   float64
	Width  float64
	Height float64
}

// Fit scales an imgW×imgH raster uniformly so it fits the page and centres
// it on both axes. One raster pixel is one page unit before scaling.
func Fit(imgW, imgH int, pageW, pageH float64) (Layout, error) {
	if imgW <= 0 || imgH <= 0 {
		return Layout{}, fmt.Errorf("%w: %dx%d", ErrEmptyRaster, imgW, imgH)
	}
	scale := math.Min(pageW/float64(imgW), pageH/float64(imgH))
	w := float64(imgW) * scale
	h := float64(imgH) * scale
	return Layout{
		Scale:  scale,
		X:      (pageW - w) / 2,
		Y:      (pageH - h) / 2,
		Width:  w,
		Height: h,
	}, nil
}
