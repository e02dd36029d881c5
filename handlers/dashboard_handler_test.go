package handlers

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dost-atlas/dashboard"
	"dost-atlas/models"
	"dost-atlas/raster"
)

type staticFetcher struct {
	impls    []models.ImplementationPoint
	projects []models.ProjectPoint
}

func (f staticFetcher) FetchImplementations(context.Context) ([]models.ImplementationPoint, error) {
	return f.impls, nil
}

func (f staticFetcher) FetchProjects(context.Context) ([]models.ProjectPoint, error) {
	return f.projects, nil
}

func dashboardRouter(width, height int) *mux.Router {
	session := dashboard.New(staticFetcher{
		impls: []models.ImplementationPoint{
			{ID: "i1", Place: "Boac", Coordinates: models.Coordinates{Lat: 13.4458, Lng: 121.8431}, Implemented: true},
		},
		projects: []models.ProjectPoint{
			{ID: "p1", ProjectTitle: "Coconut coir", Location: "Torrijos", Coordinates: models.Coordinates{Lat: 13.3190, Lng: 122.0860}, ProgramType: models.ProgramSETUP},
		},
	}, dashboard.Options{
		Logger: zerolog.Nop(),
		Tiles:  raster.NoTiles{},
		Width:  width,
		Height: height,
	})

	h := NewDashboardHandler(session)
	r := mux.NewRouter()
	r.HandleFunc("/dashboard/scene", h.Scene).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/layers/{layer}/toggle", h.ToggleLayer).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/base-layer", h.SetBaseLayer).Methods(http.MethodPut)
	r.HandleFunc("/dashboard/overlay/toggle", h.ToggleOverlay).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/viewport", h.Viewport).Methods(http.MethodPut)
	r.HandleFunc("/dashboard/export", h.Export).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/notifications", h.Notifications).Methods(http.MethodGet)
	return r
}

func sceneMarkers(t *testing.T, body map[string]any) []any {
	t.Helper()
	data := body["data"].(map[string]any)
	return data["scene"].(map[string]any)["markers"].([]any)
}

func TestDashboard_refreshAndToggle(t *testing.T) {
	router := dashboardRouter(320, 200)

	rr, body := do(t, router, http.MethodGet, "/dashboard/scene", "")
	require.Equal(t, http.StatusOK, rr.Code)
	markers := sceneMarkers(t, body)
	require.Len(t, markers, 1)
	assert.Equal(t, true, markers[0].(map[string]any)["placeholder"])

	rr, body = do(t, router, http.MethodPost, "/dashboard/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, sceneMarkers(t, body), 2)

	rr, body = do(t, router, http.MethodPost, "/dashboard/layers/projects/toggle", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["data"].(map[string]any)["showProjects"])

	_, body = do(t, router, http.MethodGet, "/dashboard/scene", "")
	assert.Len(t, sceneMarkers(t, body), 1)

	rr, _ = do(t, router, http.MethodPost, "/dashboard/layers/roads/toggle", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, router, http.MethodPost, "/dashboard/refresh?layer=roads", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboard_baseLayerAndViewport(t *testing.T) {
	router := dashboardRouter(320, 200)

	rr, body := do(t, router, http.MethodPut, "/dashboard/base-layer", `{"baseLayer":"standard"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "standard", body["data"].(map[string]any)["activeBaseLayer"])

	rr, _ = do(t, router, http.MethodPut, "/dashboard/base-layer", `{"baseLayer":"terrain"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = do(t, router, http.MethodPut, "/dashboard/viewport", `{"width":400,"height":250}`)
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(400), data["width"])
	assert.Equal(t, float64(250), data["height"])

	rr, _ = do(t, router, http.MethodPut, "/dashboard/viewport", `{"width":8192,"height":8192}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = do(t, router, http.MethodPut, "/dashboard/viewport", `{"width":400}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Width and height are required", body["message"])
}

func TestDashboard_overlayToggle(t *testing.T) {
	router := dashboardRouter(320, 200)

	rr, body := do(t, router, http.MethodPost, "/dashboard/overlay/toggle", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["overlayVisible"])

	_, body = do(t, router, http.MethodPost, "/dashboard/overlay/toggle", "")
	assert.Equal(t, true, body["overlayVisible"])
}

func TestDashboard_exportPNG(t *testing.T) {
	router := dashboardRouter(300, 150)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/export?format=PNG", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename=DOST-Project-Map-\d{4}-\d{2}-\d{2}\.png$`, rr.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rr.Header().Get("X-Export-Id"))

	img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	_, body := do(t, router, http.MethodGet, "/dashboard/notifications", "")
	require.Equal(t, float64(1), body["count"])
	note := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "success", note["level"])

	_, body = do(t, router, http.MethodGet, "/dashboard/scene", "")
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["overlayVisible"])
	assert.Equal(t, "idle", data["exportPhase"])
}

func TestDashboard_exportRejectsUnknownFormat(t *testing.T) {
	router := dashboardRouter(300, 150)

	rr, body := do(t, router, http.MethodPost, "/dashboard/export?format=gif", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Export format must be png or pdf", body["message"])

	_, body = do(t, router, http.MethodGet, "/dashboard/notifications", "")
	assert.Equal(t, float64(0), body["count"])
}

func TestDashboard_exportWithoutSurface(t *testing.T) {
	router := dashboardRouter(0, 0)

	rr, body := do(t, router, http.MethodPost, "/dashboard/export?format=pdf", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Map is not ready for export", body["message"])

	_, body = do(t, router, http.MethodGet, "/dashboard/notifications", "")
	require.Equal(t, float64(1), body["count"])
	assert.Equal(t, "error", body["data"].([]any)[0].(map[string]any)["level"])
}
