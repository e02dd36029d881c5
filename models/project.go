package models

import "time"

// Program type labels accepted by the records API.
const (
	ProgramGIA   = "GIA: Grants-In-Aid Program"
	ProgramSETUP = "SETUP: Small Enterprise Technology Upgrading Program"
	ProgramCEST  = "CEST: Community Empowerment through Science and Technology Program"
	ProgramSSCP  = "SSCP: Smart and Sustainable Communities Program"
)

// ProgramTypes lists the labels in display order.
var ProgramTypes = []string{ProgramGIA, ProgramSETUP, ProgramCEST, ProgramSSCP}

// IsKnownProgramType reports whether label is one of ProgramTypes.
func IsKnownProgramType(label string) bool {
	for _, p := range ProgramTypes {
		if p == label {
			return true
		}
	}
	return false
}

// ProjectPoint is a DOST project site.
type ProjectPoint struct {
	ID           string      `json:"_id" bson:"_id,omitempty"`
	ProjectTitle string      `json:"projectTitle" bson:"projectTitle"`
	Location     string      `json:"location" bson:"location"`
	Coordinates  Coordinates `json:"coordinates" bson:"coordinates"`
	ProgramType  string      `json:"programType" bson:"programType"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}
