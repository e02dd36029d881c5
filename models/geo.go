package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingCoordinates = errors.New("coordinates are required")
	ErrCoordinatesFormat  = errors.New("coordinates must be in 'lat, lng' format")
	ErrCoordinatesNumeric = errors.New("coordinates must be valid numbers")
	ErrCoordinatesRange   = errors.New("coordinates out of range")
)

// Coordinates is a WGS 84 point as stored and served by the records API.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Validate checks that both values are finite and inside the WGS 84 ranges.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return ErrCoordinatesNumeric
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: lat=%f lng=%f", ErrCoordinatesRange, c.Lat, c.Lng)
	}
	return nil
}

// String renders the point with the fixed six-decimal display precision.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng)
}

// ParseCoordinates reads the "lat, lng" text form accepted on write.
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinates{}, ErrCoordinatesFormat
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, ErrCoordinatesNumeric
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, ErrCoordinatesNumeric
	}
	c := Coordinates{Lat: lat, Lng: lng}
	return c, c.Validate()
}

// CoordinatesInput accepts either {"lat":..,"lng":..} or "lat, lng" in
// request bodies. Only the write side uses it; reads always serve the object.
type CoordinatesInput struct {
	Coordinates
	Set bool
	err error
}

func (in *CoordinatesInput) UnmarshalJSON(data []byte) error {
	in.Set = true
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		in.Set = false
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			in.Set = false
			return nil
		}
		in.Coordinates, in.err = ParseCoordinates(s)
		return nil
	}
	var raw struct {
		Lat *json.Number `json:"lat"`
		Lng *json.Number `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		in.err = ErrCoordinatesNumeric
		return nil
	}
	if raw.Lat == nil || raw.Lng == nil {
		in.Set = false
		return nil
	}
	lat, errLat := raw.Lat.Float64()
	lng, errLng := raw.Lng.Float64()
	if errLat != nil || errLng != nil {
		in.err = ErrCoordinatesNumeric
		return nil
	}
	in.Coordinates = Coordinates{Lat: lat, Lng: lng}
	in.err = in.Coordinates.Validate()
	return nil
}

// Resolve returns the parsed coordinates or the reason they are unusable.
func (in CoordinatesInput) Resolve() (Coordinates, error) {
	if !in.Set {
		return Coordinates{}, ErrMissingCoordinates
	}
	if in.err != nil {
		return Coordinates{}, in.err
	}
	return in.Coordinates, nil
}
