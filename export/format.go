package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Format selects the finalize strategy applied to a captured raster.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

const filenamePrefix = "DOST-Project-Map-"

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Filename is the dated artifact name, e.g. DOST-Project-Map-2025-11-03.pdf.
func (f Format) Filename(at time.Time) string {
	return filenamePrefix + at.Format(time.DateOnly) + "." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (f Format) label() string {
	switch f {
	case FormatPNG:
		return "image"
	case FormatPDF:
		return "PDF"
	}
	return string(f)
}

// Capture is a rasterized view and its pixel dimensions.
type Capture struct {
	Image  image.Image
	Width  int
	Height int
}

func (f Format) finalize(c Capture) ([]byte, error) {
	switch f {
	case FormatPNG:
		return encodePNG(c.Image)
	case FormatPDF:
		return encodePDF(c)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePDF(c Capture) ([]byte, error) {
	layout, err := Fit(c.Width, c.Height, PageWidth, PageHeight)
	if err != nil {
		return nil, err
	}
	raster, err := encodePNG(c.Image)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("DOST Project Map", true)
	pdf.SetCreator("dost-atlas", true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("map", opts, bytes.NewReader(raster))
	pdf.ImageOptions("map", layout.X, layout.Y, layout.Width, layout.Height, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return out.Bytes(), nil
}
