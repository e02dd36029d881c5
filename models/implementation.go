package models

import "time"

// ImplementationPoint is a STARBOOKS implementation site.
type ImplementationPoint struct {
	ID          string      `json:"_id" bson:"_id,omitempty"`
	Place       string      `json:"place" bson:"place"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	Implemented bool        `json:"implemented" bson:"implemented"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}
