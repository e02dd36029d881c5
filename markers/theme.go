package markers

import (
	"fmt"
	"image/color"
	"strconv"
)

// Theme is the color set of one category. Values are #rrggbb strings.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Ring      string `json:"ring"`
	Light     string `json:"light"`
}

// DefaultTheme is the indigo theme used for anything outside the known set.
var DefaultTheme = Theme{Primary: "#6366f1", Secondary: "#4f46e5", Ring: "#a5b4fc", Light: "#e0e7ff"}

// ResolveTheme never fails; unknown categories get DefaultTheme.
func ResolveTheme(c Category) Theme {
	switch c {
	case Implemented:
		return Theme{Primary: "#10b981", Secondary: "#059669", Ring: "#6ee7b7", Light: "#d1fae5"}
	case Pending:
		return Theme{Primary: "#f59e0b", Secondary: "#d97706", Ring: "#fcd34d", Light: "#fef3c7"}
	case ProgramGIA:
		return Theme{Primary: "#3b82f6", Secondary: "#2563eb", Ring: "#93c5fd", Light: "#dbeafe"}
	case ProgramSETUP:
		return Theme{Primary: "#8b5cf6", Secondary: "#7c3aed", Ring: "#c4b5fd", Light: "#ede9fe"}
	case ProgramCEST:
		return Theme{Primary: "#ec4899", Secondary: "#db2777", Ring: "#f9a8d4", Light: "#fce7f3"}
	case ProgramSSCP:
		return Theme{Primary: "#14b8a6", Secondary: "#0d9488", Ring: "#5eead4", Light: "#ccfbf1"}
	case UnknownProgram:
		return DefaultTheme
	}
	return DefaultTheme
}

// RGBA parses a #rrggbb theme color. Malformed values come back as opaque
// black together with the parse error.
func RGBA(hex string) (color.RGBA, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{A: 0xff}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
