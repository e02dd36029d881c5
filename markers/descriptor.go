package markers

import "unicode/utf8"

// Marker geometry in CSS pixels. The anchor sits at the bottom centre so
// the pin tip touches the coordinate; popups open a full pin height above.
const (
	IconWidth  = 32
	IconHeight = 44

	MaxLabelRunes = 20
	Ellipsis      = "…"
)

// Shape is the icon outline.
type Shape string

const (
	ShapePin    Shape = "pin"
	ShapeSquare Shape = "square-pin"
	ShapeDot    Shape = "dot"
)

// Point is an (x, y) offset in CSS pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Descriptor is everything a renderer needs to draw one marker.
type Descriptor struct {
	Category    Category `json:"category"`
	Shape       Shape    `json:"shape"`
	Size        Point    `json:"size"`
	Anchor      Point    `json:"anchor"`
	PopupAnchor Point    `json:"popupAnchor"`
	Theme       Theme    `json:"theme"`
	Label       string   `json:"label,omitempty"`
}

// Options tune BuildDescriptor.
type Options struct {
	Label       string
	Placeholder bool
}

// BuildDescriptor is deterministic for a given category and options.
func BuildDescriptor(c Category, opts Options) Descriptor {
	shape := ShapePin
	if c.IsProgram() {
		shape = ShapeSquare
	}
	if opts.Placeholder {
		shape = ShapeDot
	}
	return Descriptor{
		Category:    c,
		Shape:       shape,
		Size:        Point{X: IconWidth, Y: IconHeight},
		Anchor:      Point{X: IconWidth / 2, Y: IconHeight},
		PopupAnchor: Point{X: 0, Y: -IconHeight},
		Theme:       ResolveTheme(c),
		Label:       TruncateLabel(opts.Label),
	}
}

// TruncateLabel keeps at most MaxLabelRunes runes and appends Ellipsis when
// it had to cut.
func TruncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= MaxLabelRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxLabelRunes]) + Ellipsis
}
