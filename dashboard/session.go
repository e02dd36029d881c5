// Package dashboard wires the record store, filter, renderer, surface and
// exporter into one operator session.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dost-atlas/export"
	"dost-atlas/filter"
	"dost-atlas/mapview"
	"dost-atlas/metrics"
	"dost-atlas/notify"
	"dost-atlas/raster"
	"dost-atlas/store"
)

type Options struct {
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Location *time.Location
	Tiles    raster.TileSource
	// Initial surface size in CSS pixels.
	Width, Height int
	// Settle is the pause between hiding the overlay and capturing. Zero
	// disables it.
	Settle time.Duration
	Sink   export.Sink
}

type Session struct {
	store    *store.Store
	filter   *filter.Controller
	chrome   *export.Chrome
	renderer *mapview.Renderer
	surface  *raster.Surface
	exporter *export.Exporter
	feed     *notify.Feed
	logger   zerolog.Logger
}

// View is everything the operator UI needs to draw the dashboard.
type View struct {
	Scene          mapview.Scene `json:"scene"`
	OverlayVisible bool          `json:"overlayVisible"`
	ExportPhase    export.Phase  `json:"exportPhase"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
}

func New(fetcher store.Fetcher, opts Options) *Session {
	logger := opts.Logger.With().Str("component", "dashboard").Logger()
	s := &Session{
		store:    store.New(fetcher, opts.Logger, opts.Metrics),
		filter:   filter.NewController(),
		chrome:   export.NewChrome(true),
		renderer: mapview.NewRenderer(opts.Location),
		feed:     notify.NewFeed(notify.DefaultCapacity, opts.Logger),
		logger:   logger,
	}
	s.surface = raster.NewSurface(s.Scene, s.chrome.Visible, opts.Tiles, opts.Width, opts.Height)

	settle := opts.Settle
	if settle == 0 {
		settle = -1
	}
	s.exporter = export.New(s.surface, s.chrome, s.feed, export.Options{
		Settle:  settle,
		Sink:    opts.Sink,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	return s
}

// Refresh reloads both collections concurrently.
func (s *Session) Refresh(ctx context.Context) error {
	return s.store.LoadAll(ctx)
}

// RefreshLayer reloads the collection behind one layer.
func (s *Session) RefreshLayer(ctx context.Context, name string) error {
	layer, err := filter.ParseLayer(name)
	if err != nil {
		return err
	}
	switch layer {
	case filter.LayerImplementations:
		return s.store.LoadImplementations(ctx)
	case filter.LayerProjects:
		return s.store.LoadProjects(ctx)
	}
	return filter.ErrUnknownLayer
}

func (s *Session) Scene() mapview.Scene {
	return s.renderer.Render(s.filter.State(), s.store.Snapshot())
}

func (s *Session) View() View {
	w, h := s.surface.Size()
	return View{
		Scene:          s.Scene(),
		OverlayVisible: s.chrome.Visible(),
		ExportPhase:    s.exporter.Phase(),
		Width:          w,
		Height:         h,
	}
}

func (s *Session) ToggleLayer(name string) (filter.State, error) {
	layer, err := filter.ParseLayer(name)
	if err != nil {
		return filter.State{}, err
	}
	state, err := s.filter.Toggle(layer)
	if err != nil {
		return filter.State{}, err
	}
	s.logger.Debug().Str("layer", name).Bool("visible", state.Visible(layer)).Msg("layer toggled")
	return state, nil
}

func (s *Session) SetBaseLayer(name string) (filter.State, error) {
	base, err := filter.ParseBaseLayer(name)
	if err != nil {
		return filter.State{}, err
	}
	return s.filter.SetBaseLayer(base)
}

// ToggleOverlay flips the legend and layer switcher and returns the new
// visibility.
func (s *Session) ToggleOverlay() bool {
	return s.chrome.Toggle()
}

// Resize records the live viewport size reported by the operator UI.
func (s *Session) Resize(width, height int) error {
	return s.surface.Resize(width, height)
}

func (s *Session) Export(ctx context.Context, format export.Format) (*export.Artifact, error) {
	return s.exporter.Export(ctx, format)
}

// Notifications drains the pending toasts.
func (s *Session) Notifications() []notify.Notification {
	return s.feed.Drain()
}
