// Package export freezes the live map into a downloadable artifact without
// disturbing the interactive session.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dost-atlas/metrics"
)

// Phase is the exporter's position in the pipeline.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseCapturing  Phase = "capturing"
	PhaseFinalizing Phase = "finalizing"
	PhaseFailed     Phase = "failed"
)

const (
	DefaultSettle = 300 * time.Millisecond
	CaptureScale  = 2.0
)

var (
	ErrExportInProgress   = errors.New("an export is already in progress")
	ErrCaptureFailed      = errors.New("map capture failed")
	ErrSurfaceUnavailable = errors.New("map surface is not mounted")
)

// Surface is the live view being captured.
type Surface interface {
	Size() (width, height int)
	Rasterize(ctx context.Context, scale float64) (image.Image, error)
}

// Notifier shows user-visible toasts.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type Artifact struct {
	ID          string    `json:"id"`
	Format      Format    `json:"format"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Path        string    `json:"path,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Data        []byte    `json:"-"`
}

type Options struct {
	// Settle is the pause after hiding the overlay. Zero uses DefaultSettle;
	// a negative value disables the pause.
	Settle  time.Duration
	Sink    Sink
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type Exporter struct {
	surface  Surface
	chrome   *Chrome
	notifier Notifier
	sink     Sink
	settle   time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	phase   Phase
}

func New(surface Surface, chrome *Chrome, notifier Notifier, opts Options) *Exporter {
	settle := opts.Settle
	if settle == 0 {
		settle = DefaultSettle
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Exporter{
		surface:  surface,
		chrome:   chrome,
		notifier: notifier,
		sink:     opts.Sink,
		settle:   settle,
		logger:   opts.Logger.With().Str("component", "export").Logger(),
		metrics:  opts.Metrics,
		now:      now,
		phase:    PhaseIdle,
	}
}

func (e *Exporter) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

func (e *Exporter) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
}

// Export runs hide → settle → capture → finalize → restore. A second call
// while one is running returns ErrExportInProgress and changes nothing.
// Every other failure leaves the exporter in PhaseFailed with the overlay
// restored and exactly one error notification sent.
func (e *Exporter) Export(ctx context.Context, format Format) (art *Artifact, err error) {
	format, err = ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer e.running.Store(false)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("%w: %v", ErrCaptureFailed, r)
		}
		e.finish(format, art, err, time.Since(start))
	}()

	e.setPhase(PhasePreparing)
	wasVisible, restore := e.chrome.Hide()
	defer restore()
	if wasVisible && e.settle > 0 {
		t := time.NewTimer(e.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	// Once capture begins the pipeline runs to completion.
	ctx = context.WithoutCancel(ctx)

	e.setPhase(PhaseCapturing)
	capture, err := e.capture(ctx)
	if err != nil {
		return nil, err
	}

	e.setPhase(PhaseFinalizing)
	data, err := format.finalize(capture)
	if err != nil {
		return nil, err
	}

	created := e.now()
	art = &Artifact{
		ID:          uuid.NewString(),
		Format:      format,
		Filename:    format.Filename(created),
		ContentType: format.ContentType(),
		Width:       capture.Width,
		Height:      capture.Height,
		CreatedAt:   created,
		Data:        data,
	}
	if e.sink != nil {
		path, err := e.sink.Save(ctx, art.Filename, art.ContentType, data)
		if err != nil {
			return nil, err
		}
		art.Path = path
	}
	return art, nil
}

func (e *Exporter) capture(ctx context.Context) (Capture, error) {
	if e.surface == nil {
		return Capture{}, fmt.Errorf("%w: %w", ErrCaptureFailed, ErrSurfaceUnavailable)
	}
	w, h := e.surface.Size()
	if w <= 0 || h <= 0 {
		return Capture{}, fmt.Errorf("%w: %w: size %dx%d", ErrCaptureFailed, ErrSurfaceUnavailable, w, h)
	}
	img, err := e.surface.Rasterize(ctx, CaptureScale)
	if err != nil {
		return Capture{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	b := img.Bounds()
	return Capture{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

func (e *Exporter) finish(format Format, art *Artifact, err error, took time.Duration) {
	if err != nil {
		e.setPhase(PhaseFailed)
		e.metrics.ObserveExport(string(format), "failed", took)
		e.logger.Error().Err(err).Str("format", string(format)).Dur("took", took).Msg("export failed")
		if e.notifier != nil {
			e.notifier.Error(fmt.Sprintf("Failed to export map %s", format.label()))
		}
		return
	}
	e.setPhase(PhaseIdle)
	e.metrics.ObserveExport(string(format), "ok", took)
	e.logger.Info().
		Str("format", string(format)).
		Str("filename", art.Filename).
		Int("width", art.Width).
		Int("height", art.Height).
		Int("bytes", len(art.Data)).
		Dur("took", took).
		Msg("map exported")
	if e.notifier != nil {
		e.notifier.Success(fmt.Sprintf("Map %s saved as %s", format.label(), art.Filename))
	}
}
