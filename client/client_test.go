package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dost-atlas/models"
	"dost-atlas/store"
)

func newServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", srv.Client())
}

func TestFetchImplementations(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"success":true,"count":1,"data":[
		{"_id":"66a1","place":"Boac National High School","coordinates":{"lat":13.4458,"lng":121.8431},
		 "implemented":true,"createdAt":"2025-11-03T02:15:00Z"}]}`)

	got, err := c.FetchImplementations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Boac National High School", got[0].Place)
	assert.Equal(t, models.Coordinates{Lat: 13.4458, Lng: 121.8431}, got[0].Coordinates)
	assert.True(t, got[0].Implemented)
	assert.Equal(t, 2025, got[0].CreatedAt.Year())
}

func TestFetchProjects_unknownProgramPassesThrough(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"success":true,"data":[
		{"_id":"p1","projectTitle":"Coconut processing","location":"Gasan","coordinates":{"lat":13.32,"lng":121.85},
		 "programType":"Legacy Program","createdAt":"2025-01-01T00:00:00Z"}]}`)

	got, err := c.FetchProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Legacy Program", got[0].ProgramType)
}

func TestFetch_missingCoordinatesIsLoadError(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"success":true,"data":[{"_id":"p9","projectTitle":"x","coordinates":{"lat":13.3}}]}`)

	_, err := c.FetchProjects(context.Background())
	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "p9", recErr.ID)
}

func TestFetch_stringCoordinatesRejected(t *testing.T) {
	c := newServer(t, http.StatusOK, `{"success":true,"data":[{"_id":"i1","place":"x","coordinates":"13.4, 121.9"}]}`)

	_, err := c.FetchImplementations(context.Background())
	require.Error(t, err)
}

func TestFetch_errorEnvelopeMessageIsVerbatim(t *testing.T) {
	c := newServer(t, http.StatusInternalServerError, `{"success":false,"message":"Error fetching projects"}`)

	_, err := c.FetchProjects(context.Background())
	var um store.UserMessager
	require.True(t, errors.As(err, &um))
	assert.Equal(t, "Error fetching projects", um.UserMessage())
}

func TestFetch_nonJSONError(t *testing.T) {
	c := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := c.FetchImplementations(context.Background())
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusBadGateway, respErr.Status)
	assert.Empty(t, respErr.UserMessage())
}
