package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	c, err := ParseCoordinates(" 13.503800231301934, 122.08868404262736 ")
	require.NoError(t, err)
	assert.InDelta(t, 13.5038, c.Lat, 1e-4)
	assert.InDelta(t, 122.0886, c.Lng, 1e-4)

	_, err = ParseCoordinates("13.5")
	assert.ErrorIs(t, err, ErrCoordinatesFormat)

	_, err = ParseCoordinates("abc, 122")
	assert.ErrorIs(t, err, ErrCoordinatesNumeric)

	_, err = ParseCoordinates("91, 122")
	assert.ErrorIs(t, err, ErrCoordinatesRange)
}

func TestCoordinatesInput(t *testing.T) {
	var body struct {
		Coordinates CoordinatesInput `json:"coordinates"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"coordinates":{"lat":13.4,"lng":121.9}}`), &body))
	c, err := body.Coordinates.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 13.4, Lng: 121.9}, c)

	body.Coordinates = CoordinatesInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"coordinates":"13.4, 121.9"}`), &body))
	c, err = body.Coordinates.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 13.4, Lng: 121.9}, c)

	body.Coordinates = CoordinatesInput{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	_, err = body.Coordinates.Resolve()
	assert.ErrorIs(t, err, ErrMissingCoordinates)

	body.Coordinates = CoordinatesInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"coordinates":{"lat":13.4}}`), &body))
	_, err = body.Coordinates.Resolve()
	assert.ErrorIs(t, err, ErrMissingCoordinates)
}

func TestCoordinatesString(t *testing.T) {
	assert.Equal(t, "13.416700, 121.916700", Coordinates{Lat: 13.4167, Lng: 121.9167}.String())
}
