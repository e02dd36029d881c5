// Package markers maps record categories to marker themes and descriptors.
package markers

import (
	"strings"

	"dost-atlas/models"
)

// Category is the closed set of styling categories.
type Category int

const (
	Implemented Category = iota
	Pending
	ProgramGIA
	ProgramSETUP
	ProgramCEST
	ProgramSSCP
	UnknownProgram
)

// Categories lists every category in legend order.
var Categories = []Category{Implemented, Pending, ProgramGIA, ProgramSETUP, ProgramCEST, ProgramSSCP, UnknownProgram}

func (c Category) String() string {
	switch c {
	case Implemented:
		return "implemented"
	case Pending:
		return "pending"
	case ProgramGIA:
		return "gia"
	case ProgramSETUP:
		return "setup"
	case ProgramCEST:
		return "cest"
	case ProgramSSCP:
		return "sscp"
	case UnknownProgram:
		return "unknown-program"
	}
	return "invalid"
}

// Label is the short human-readable name used in badges and the legend.
func (c Category) Label() string {
	switch c {
	case Implemented:
		return "Implemented"
	case Pending:
		return "Not implemented"
	case ProgramGIA:
		return "GIA"
	case ProgramSETUP:
		return "SETUP"
	case ProgramCEST:
		return "CEST"
	case ProgramSSCP:
		return "SSCP"
	case UnknownProgram:
		return "Other program"
	}
	return "Unknown"
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// IsProgram reports whether c belongs to the project program axis.
func (c Category) IsProgram() bool {
	switch c {
	case ProgramGIA, ProgramSETUP, ProgramCEST, ProgramSSCP, UnknownProgram:
		return true
	}
	return false
}

// CategoryForStatus returns the category of an implementation point.
func CategoryForStatus(implemented bool) Category {
	if implemented {
		return Implemented
	}
	return Pending
}

// ParseProgram matches a program type label or its bare code, ignoring case.
// Anything else is UnknownProgram.
func ParseProgram(programType string) Category {
	code := programType
	if i := strings.IndexByte(code, ':'); i >= 0 {
		code = code[:i]
	}
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "GIA":
		return ProgramGIA
	case "SETUP":
		return ProgramSETUP
	case "CEST":
		return ProgramCEST
	case "SSCP":
		return ProgramSSCP
	}
	return UnknownProgram
}

// ForImplementation and ForProject resolve a record's category.
func ForImplementation(p models.ImplementationPoint) Category {
	return CategoryForStatus(p.Implemented)
}

func ForProject(p models.ProjectPoint) Category {
	return ParseProgram(p.ProgramType)
}
