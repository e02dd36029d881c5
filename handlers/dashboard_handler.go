package handlers

import (
	"context"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dost-atlas/dashboard"
	"dost-atlas/export"
	"dost-atlas/filter"
	"dost-atlas/middleware"
	"dost-atlas/notify"
	"dost-atlas/raster"
	"dost-atlas/utils/errors"
)

// DashboardSession is the operator session driven by the control surface.
type DashboardSession interface {
	View() dashboard.View
	Refresh(ctx context.Context) error
	RefreshLayer(ctx context.Context, layer string) error
	ToggleLayer(layer string) (filter.State, error)
	SetBaseLayer(base string) (filter.State, error)
	ToggleOverlay() bool
	Resize(width, height int) error
	Export(ctx context.Context, format export.Format) (*export.Artifact, error)
	Notifications() []notify.Notification
}

type DashboardHandler struct {
	session DashboardSession
}

func NewDashboardHandler(session DashboardSession) *DashboardHandler {
	return &DashboardHandler{session: session}
}

func (h *DashboardHandler) writeView(w http.ResponseWriter) {
	writeItem(w, http.StatusOK, "", h.session.View())
}

func (h *DashboardHandler) Scene(w http.ResponseWriter, r *http.Request) {
	h.writeView(w)
}

// Refresh reloads both collections, or only ?layer=. Fetch failures are not
// request failures: they show up as notices in the returned scene.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if layer := r.URL.Query().Get("layer"); layer != "" {
		err = h.session.RefreshLayer(r.Context(), layer)
		if stderrors.Is(err, filter.ErrUnknownLayer) {
			middleware.WriteError(w, badRequest(err.Error()))
			return
		}
	} else {
		_ = h.session.Refresh(r.Context())
	}
	h.writeView(w)
}

func (h *DashboardHandler) ToggleLayer(w http.ResponseWriter, r *http.Request) {
	state, err := h.session.ToggleLayer(mux.Vars(r)["layer"])
	if err != nil {
		middleware.WriteError(w, badRequest(err.Error()))
		return
	}
	writeItem(w, http.StatusOK, "", state)
}

func (h *DashboardHandler) SetBaseLayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BaseLayer string `json:"baseLayer"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	state, err := h.session.SetBaseLayer(input.BaseLayer)
	if err != nil {
		middleware.WriteError(w, badRequest(err.Error()))
		return
	}
	writeItem(w, http.StatusOK, "", state)
}

func (h *DashboardHandler) ToggleOverlay(w http.ResponseWriter, r *http.Request) {
	visible := h.session.ToggleOverlay()
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "overlayVisible": visible})
}

// Viewport records the live map size reported by the operator UI.
func (h *DashboardHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Width  *int `json:"width"`
		Height *int `json:"height"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Width == nil || input.Height == nil {
		middleware.WriteError(w, badRequest("Width and height are required"))
		return
	}
	if err := h.session.Resize(*input.Width, *input.Height); err != nil {
		middleware.WriteError(w, badRequest(err.Error()))
		return
	}
	h.writeView(w)
}

// Export streams the artifact back as a download.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		middleware.WriteError(w, badRequest("Export format must be png or pdf"))
		return
	}
	art, err := h.session.Export(r.Context(), format)
	switch {
	case stderrors.Is(err, export.ErrExportInProgress):
		middleware.WriteError(w, errors.ErrExportInProgress)
		return
	case stderrors.Is(err, export.ErrSurfaceUnavailable) || stderrors.Is(err, raster.ErrNoSurface):
		middleware.WriteError(w, errors.NewAPIError("EXPORT_FAILED", "Map is not ready for export", http.StatusConflict, err.Error()))
		return
	case err != nil:
		middleware.WriteError(w, errors.NewAPIError("EXPORT_FAILED", "Failed to export map", http.StatusInternalServerError, err.Error()))
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("X-Export-Id", art.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.session.Notifications())
}
