// Package reclaim releases drawing-surface memory and cancels outstanding
// render tasks at lifecycle boundaries: page recycled out of the window,
// zoom changed, document unloaded, viewer torn down. All of it runs
// synchronously with the triggering event to bound peak memory.
package reclaim

import (
	"pdf-view-engine/internal/domain"
	"pdf-view-engine/internal/render"
)

// Target couples one scheduler with the surface pool its tasks draw into.
type Target struct {
	Name      string
	Scheduler *render.Scheduler
	Surfaces  *render.SurfacePool
}

// Reclaimer observes lifecycle boundaries for the full-size and thumbnail
// pipelines.
type Reclaimer struct {
	logger domain.Logger
	render Target
	thumbs Target
}

// New creates a reclaimer over the two pipelines.
func New(logger domain.Logger, renderTarget, thumbTarget Target) *Reclaimer {
	return &Reclaimer{logger: logger, render: renderTarget, thumbs: thumbTarget}
}

// OnPageRecycled cancels the full-size task for a page that left the visible
// window and drops its surface backing. Thumbnails are untouched; the
// sidebar keeps its own slots.
func (r *Reclaimer) OnPageRecycled(page int) {
	r.render.Scheduler.Cancel(page)
	r.render.Surfaces.Release(page)
	r.logger.Debug("page slot reclaimed", "page", page)
}

// OnZoomChanged cancels every full-size task (their scale is stale) and
// drops all full-size surfaces. The thumbnail pipeline renders at a fixed
// scale and is unaffected.
func (r *Reclaimer) OnZoomChanged() {
	r.render.Scheduler.CancelAll()
	r.render.Surfaces.ReleaseAll()
	r.logger.Debug("render surfaces reclaimed after zoom change")
}

// OnUnload cancels all tasks on both pipelines and drops every surface.
func (r *Reclaimer) OnUnload() {
	for _, t := range []Target{r.render, r.thumbs} {
		t.Scheduler.CancelAll()
		t.Surfaces.ReleaseAll()
	}
	r.logger.Debug("all render resources reclaimed")
}

// OnTeardown releases everything; called when the viewer session is closed.
func (r *Reclaimer) OnTeardown() {
	r.OnUnload()
	r.logger.Debug("viewer torn down")
}
