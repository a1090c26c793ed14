// Package handler provides HTTP handlers for the viewer API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"pdf-view-engine/internal/domain"
	"pdf-view-engine/internal/viewer"

	"github.com/gorilla/mux"
)

// ViewerHandler exposes viewer sessions to the host UI over HTTP.
type ViewerHandler struct {
	sessions *viewer.Manager
	logger   domain.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(sessions *viewer.Manager, logger domain.Logger) *ViewerHandler {
	return &ViewerHandler{sessions: sessions, logger: logger}
}

// CreateSession opens a new viewer session.
func (h *ViewerHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Create()
	writeJSON(w, http.StatusCreated, session.State())
}

// DeleteSession tears a session down.
func (h *ViewerHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.sessions.Close(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetState returns the session's observable state snapshot.
func (h *ViewerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

type loadRequest struct {
	SourceID string `json:"source_id"`
}

// Load requests a document load. The response carries the resulting state;
// load failures are state, not HTTP errors.
func (h *ViewerHandler) Load(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}

	session.LoadPDF(r.Context(), req.SourceID)
	writeJSON(w, http.StatusOK, session.State())
}

// Unload destroys the session's document.
func (h *ViewerHandler) Unload(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.UnloadPDF()
	writeJSON(w, http.StatusOK, session.State())
}

// Retry re-attempts the last load.
func (h *ViewerHandler) Retry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.Retry(r.Context())
	writeJSON(w, http.StatusOK, session.State())
}

type viewportRequest struct {
	ScrollOffset    float64 `json:"scroll_offset"`
	ContainerHeight float64 `json:"container_height"`
	Zoom            float64 `json:"zoom"`
}

// SetViewport pushes one scroll/zoom event into the session.
func (h *ViewerHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid viewport payload")
		return
	}

	session.SetViewport(req.ScrollOffset, req.ContainerHeight, req.Zoom)
	writeJSON(w, http.StatusOK, session.State())
}

type gotoRequest struct {
	Page int `json:"page"`
}

// GoToPage jumps the session viewport to a page.
func (h *ViewerHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req gotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	session.GoToPage(req.Page)
	writeJSON(w, http.StatusOK, session.State())
}

// GetPage renders one page through the full-size pipeline and returns it as
// PNG. An optional scale query parameter overrides the current zoom.
func (h *ViewerHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	page, ok := h.pageNumber(w, r)
	if !ok {
		return
	}

	scale := 0.0
	if raw := r.URL.Query().Get("scale"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		scale = parsed
	}

	img, err := session.RenderPage(r.Context(), page, scale)
	h.writePNG(w, img, err, page)
}

// GetThumbnail renders one page through the thumbnail pipeline as PNG.
func (h *ViewerHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	page, ok := h.pageNumber(w, r)
	if !ok {
		return
	}

	img, err := session.RenderThumbnail(r.Context(), page)
	h.writePNG(w, img, err, page)
}

// writePNG maps a render outcome to a response. Cancellation means the task
// was superseded or evicted; the client simply re-requests.
func (h *ViewerHandler) writePNG(w http.ResponseWriter, img image.Image, err error, page int) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusConflict, "render superseded")
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "render timed out")
		return
	default:
		h.logger.Error("page render request failed", err, "page", page)
		writeError(w, http.StatusUnprocessableEntity, "page could not be rendered")
		return
	}
	if img == nil {
		writeError(w, http.StatusNotFound, "page not rendered")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		h.logger.Error("failed to encode page image", err, "page", page)
	}
}

func (h *ViewerHandler) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	id := mux.Vars(r)["id"]
	session, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func (h *ViewerHandler) pageNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)["page"]
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return 0, false
	}
	return page, true
}
