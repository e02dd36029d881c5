package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dost-atlas/export"
	"dost-atlas/filter"
	"dost-atlas/models"
	"dost-atlas/notify"
	"dost-atlas/raster"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	mu       sync.Mutex
	impls    []models.ImplementationPoint
	projects []models.ProjectPoint
	projErr  error
}

func (f *fakeFetcher) FetchImplementations(context.Context) ([]models.ImplementationPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.impls, nil
}

func (f *fakeFetcher) FetchProjects(context.Context) ([]models.ProjectPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projects, f.projErr
}

func seeded() *fakeFetcher {
	return &fakeFetcher{
		impls: []models.ImplementationPoint{
			{ID: "i1", Place: "Boac", Coordinates: models.Coordinates{Lat: 13.4458, Lng: 121.8431}, Implemented: true},
		},
		projects: []models.ProjectPoint{
			{ID: "p1", ProjectTitle: "Coconut coir", Location: "Torrijos", Coordinates: models.Coordinates{Lat: 13.3190, Lng: 122.0860}, ProgramType: models.ProgramCEST},
		},
	}
}

func newSession(f *fakeFetcher) *Session {
	return New(f, Options{
		Logger: zerolog.Nop(),
		Tiles:  raster.NoTiles{},
		Width:  320,
		Height: 200,
	})
}

func TestSession_startsWithPlaceholder(t *testing.T) {
	s := newSession(seeded())
	scene := s.Scene()
	require.Len(t, scene.Markers, 1)
	assert.True(t, scene.Markers[0].Placeholder)

	v := s.View()
	assert.True(t, v.OverlayVisible)
	assert.Equal(t, export.PhaseIdle, v.ExportPhase)
	assert.Equal(t, 320, v.Width)
}

func TestSession_refreshAndToggle(t *testing.T) {
	s := newSession(seeded())
	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Scene().Markers, 2)

	state, err := s.ToggleLayer("projects")
	require.NoError(t, err)
	assert.False(t, state.ShowProjects)
	require.Len(t, s.Scene().Markers, 1)
	assert.Equal(t, "i1", s.Scene().Markers[0].ID)

	_, err = s.ToggleLayer("projects")
	require.NoError(t, err)
	assert.Len(t, s.Scene().Markers, 2)

	_, err = s.ToggleLayer("rivers")
	assert.ErrorIs(t, err, filter.ErrUnknownLayer)
}

func TestSession_refreshLayerKeepsOtherCollection(t *testing.T) {
	f := seeded()
	s := newSession(f)
	require.NoError(t, s.Refresh(context.Background()))

	f.mu.Lock()
	f.projErr = errors.New("dial tcp: connection refused")
	f.mu.Unlock()

	assert.Error(t, s.RefreshLayer(context.Background(), "projects"))
	scene := s.Scene()
	assert.Len(t, scene.Markers, 2)
	require.Len(t, scene.Notices, 1)
	assert.Equal(t, "Failed to load projects", scene.Notices[0].Message)

	assert.ErrorIs(t, s.RefreshLayer(context.Background(), "nope"), filter.ErrUnknownLayer)
}

func TestSession_baseLayer(t *testing.T) {
	s := newSession(seeded())
	state, err := s.SetBaseLayer("standard")
	require.NoError(t, err)
	assert.Equal(t, filter.BaseStandard, state.ActiveBaseLayer)
	assert.Equal(t, filter.BaseStandard, s.Scene().BaseLayer.ID)

	_, err = s.SetBaseLayer("terrain")
	assert.ErrorIs(t, err, filter.ErrUnknownBaseLayer)
}

func TestSession_exportRestoresOverlayAndNotifies(t *testing.T) {
	s := newSession(seeded())
	require.NoError(t, s.Refresh(context.Background()))

	art, err := s.Export(context.Background(), export.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, 640, art.Width)
	assert.Equal(t, 400, art.Height)
	assert.True(t, s.View().OverlayVisible)

	notes := s.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelSuccess, notes[0].Level)
	assert.Empty(t, s.Notifications())
}

func TestSession_exportUsesLiveSize(t *testing.T) {
	s := newSession(seeded())
	require.NoError(t, s.Resize(500, 300))

	art, err := s.Export(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, 1000, art.Width)
	assert.Equal(t, 600, art.Height)
}

func TestSession_exportFailureWhenUnmounted(t *testing.T) {
	s := newSession(seeded())
	s.ToggleOverlay()
	require.NoError(t, s.Resize(0, 0))

	_, err := s.Export(context.Background(), export.FormatPNG)
	assert.ErrorIs(t, err, export.ErrCaptureFailed)

	v := s.View()
	assert.False(t, v.OverlayVisible, "recorded visibility is restored")
	assert.Equal(t, export.PhaseFailed, v.ExportPhase)

	notes := s.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
}

func TestSession_settleDelayOnlyWhenOverlayShown(t *testing.T) {
	s := New(seeded(), Options{Logger: zerolog.Nop(), Width: 10, Height: 10, Settle: time.Hour})
	s.ToggleOverlay()

	done := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background(), export.FormatPNG)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("export waited for settle with the overlay already hidden")
	}
}
