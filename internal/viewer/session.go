// Package viewer binds the loader, viewport tracker, render pipelines and
// resource reclaimer into one document-viewing session.
package viewer

import (
	"context"
	"image"
	"sync"

	"pdf-view-engine/internal/domain"
	"pdf-view-engine/internal/loader"
	"pdf-view-engine/internal/reclaim"
	"pdf-view-engine/internal/render"
	"pdf-view-engine/internal/viewport"
	apperrors "pdf-view-engine/pkg/errors"
)

// Session is one open viewer: a loader, a viewport tracker, a full-size and
// a thumbnail pipeline, and the reclaimer observing their lifecycles. The
// host (HTTP layer or tests) drives it through the public operations and
// reads State.
type Session struct {
	ID string

	logger  domain.Logger
	cfg     domain.Config
	loader  *loader.Loader
	tracker *viewport.Tracker

	renders        *render.Scheduler
	thumbs         *render.Scheduler
	renderSurfaces *render.SurfacePool
	thumbSurfaces  *render.SurfacePool
	reclaimer      *reclaim.Reclaimer

	mu         sync.Mutex
	prevWindow domain.ViewportWindow
}

// SessionState is the observable snapshot the host UI renders from.
type SessionState struct {
	ID          string                   `json:"id"`
	LoadState   domain.LoadState         `json:"load_state"`
	SourceID    string                   `json:"source_id,omitempty"`
	Error       *apperrors.LoadError     `json:"error,omitempty"`
	Metadata    *domain.DocumentMetadata `json:"metadata,omitempty"`
	Window      domain.ViewportWindow    `json:"window"`
	ActiveTasks []domain.TaskInfo        `json:"active_tasks"`
	Thumbnails  []domain.TaskInfo        `json:"thumbnail_tasks"`
	IsRendering bool                     `json:"is_rendering"`
}

// NewSession wires one viewer session.
func NewSession(id string, opener domain.DocumentOpener, cfg domain.Config, logger domain.Logger) *Session {
	s := &Session{
		ID:     id,
		logger: logger,
		cfg:    cfg,
		renders: render.NewScheduler(render.Options{
			Name:             "render",
			MaxConcurrent:    cfg.GetRenderConcurrency(),
			DebounceInterval: cfg.GetDebounceInterval(),
		}, logger),
		thumbs: render.NewScheduler(render.Options{
			Name:             "thumbnail",
			MaxConcurrent:    cfg.GetThumbnailConcurrency(),
			DebounceInterval: cfg.GetDebounceInterval(),
		}, logger),
		renderSurfaces: render.NewSurfacePool(),
		thumbSurfaces:  render.NewSurfacePool(),
		tracker:        viewport.NewTracker(cfg.GetBufferPages(), logger),
	}

	s.reclaimer = reclaim.New(logger,
		reclaim.Target{Name: "render", Scheduler: s.renders, Surfaces: s.renderSurfaces},
		reclaim.Target{Name: "thumbnail", Scheduler: s.thumbs, Surfaces: s.thumbSurfaces},
	)

	s.loader = loader.New(opener, logger, loader.Options{
		MaxRetries:  cfg.GetMaxLoadRetries(),
		BackoffBase: cfg.GetRetryBackoffBase(),
	})

	// Destroying the handle (source change, unload, teardown) transitively
	// cancels every derived task before the handle goes away.
	s.loader.OnHandleDestroy(func() {
		s.reclaimer.OnUnload()
		s.renders.SetHandle(nil)
		s.thumbs.SetHandle(nil)
	})

	s.loader.Subscribe(s.onLoadStateChanged)
	s.tracker.Subscribe(s.onWindowChanged)

	return s
}

// LoadPDF loads a new document source. Outcomes are observable via State.
func (s *Session) LoadPDF(ctx context.Context, sourceID string) {
	s.loader.Load(ctx, sourceID)
}

// UnloadPDF destroys the handle and releases all rendering resources.
func (s *Session) UnloadPDF() {
	s.loader.Unload()
}

// Retry re-attempts the last load.
func (s *Session) Retry(ctx context.Context) {
	s.loader.Retry(ctx)
}

// SetViewport handles one scroll/zoom event from the host. A zoom change
// reclaims stale-scale work synchronously before the window is recomputed
// against the new effective page height.
func (s *Session) SetViewport(scrollOffset, containerHeight, zoom float64) {
	if zoom > 0 && zoom != s.tracker.Zoom() {
		s.reclaimer.OnZoomChanged()
		s.tracker.SetZoom(zoom)
	}
	s.tracker.SetScroll(scrollOffset, containerHeight)
}

// GoToPage jumps the viewport to page n.
func (s *Session) GoToPage(n int) {
	s.tracker.GoToPage(n)
}

// RequestRender schedules a full-size render of page at the current zoom.
func (s *Session) RequestRender(page int) {
	s.renders.Request(page, s.renderSurfaces.Get(page), s.tracker.Zoom())
}

// RequestThumbnail schedules a thumbnail render of page at the fixed
// thumbnail scale, isolated from the full-size pipeline.
func (s *Session) RequestThumbnail(page int) {
	s.thumbs.Request(page, s.thumbSurfaces.Get(page), s.cfg.GetThumbnailScale())
}

// CancelAllRenders cancels every full-size task.
func (s *Session) CancelAllRenders() {
	s.renders.CancelAll()
}

// RenderPage drives page through the full-size pipeline and returns the
// rendered pixels once the task settles.
func (s *Session) RenderPage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = s.tracker.Zoom()
	}
	surface := s.renderSurfaces.Get(page)
	if err := s.renders.RenderNow(ctx, page, surface, scale); err != nil {
		return nil, err
	}
	return surface.Image(), nil
}

// RenderThumbnail drives page through the thumbnail pipeline and returns the
// rendered pixels once the task settles.
func (s *Session) RenderThumbnail(ctx context.Context, page int) (image.Image, error) {
	surface := s.thumbSurfaces.Get(page)
	if err := s.thumbs.RenderNow(ctx, page, surface, s.cfg.GetThumbnailScale()); err != nil {
		return nil, err
	}
	return surface.Image(), nil
}

// State snapshots the session for the host UI.
func (s *Session) State() SessionState {
	return SessionState{
		ID:          s.ID,
		LoadState:   s.loader.State(),
		SourceID:    s.loader.SourceID(),
		Error:       s.loader.ErrorRecord(),
		Metadata:    s.loader.Metadata(),
		Window:      s.tracker.Window(),
		ActiveTasks: s.renders.ActiveTasks(),
		Thumbnails:  s.thumbs.ActiveTasks(),
		IsRendering: s.renders.IsRendering() || s.thumbs.IsRendering(),
	}
}

// Close tears the session down, cancelling all work and dropping surfaces.
func (s *Session) Close() {
	s.loader.Unload()
	s.reclaimer.OnTeardown()
	s.logger.Info("viewer session closed", "session_id", s.ID)
}

// onLoadStateChanged syncs the schedulers and tracker with the loader.
func (s *Session) onLoadStateChanged() {
	if s.loader.State() != domain.LoadStateLoaded {
		return
	}
	handle := s.loader.Handle()
	s.renders.SetHandle(handle)
	s.thumbs.SetHandle(handle)
	if meta := s.loader.Metadata(); meta != nil {
		s.tracker.SetDocument(meta.PageCount, meta.PageHeight)
	}
}

// onWindowChanged recycles slots that dropped out of the window and requests
// renders for the pages now in it.
func (s *Session) onWindowChanged(window domain.ViewportWindow) {
	s.mu.Lock()
	prev := s.prevWindow
	s.prevWindow = window
	s.mu.Unlock()

	for _, page := range prev.Pages {
		if !window.Contains(page) {
			s.reclaimer.OnPageRecycled(page)
		}
	}

	zoom := s.tracker.Zoom()
	for _, page := range window.Pages {
		s.renders.Request(page, s.renderSurfaces.Get(page), zoom)
	}
}
