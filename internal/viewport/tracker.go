// Package viewport computes which pages of the document are relevant to
// render for the current scroll position and zoom level.
package viewport

import (
	"math"
	"sync"

	"pdf-view-engine/internal/domain"
)

// ComputeWindow returns the contiguous set of visible page numbers plus
// bufferPages on each side, clamped to [1, pageCount], and the page nearest
// the top of the viewport. It is a pure function; the stateful Tracker and
// the tests both go through it.
func ComputeWindow(scrollOffset, containerHeight float64, pageCount int, pageHeight, zoom float64, bufferPages int) domain.ViewportWindow {
	if pageCount < 1 || pageHeight <= 0 || zoom <= 0 {
		return domain.ViewportWindow{}
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if containerHeight < 0 {
		containerHeight = 0
	}
	if bufferPages < 0 {
		bufferPages = 0
	}

	effectiveHeight := pageHeight * zoom
	firstVisible := int(math.Floor(scrollOffset/effectiveHeight)) + 1 - bufferPages
	if firstVisible < 1 {
		firstVisible = 1
	}
	pagesToRender := int(math.Ceil(containerHeight/effectiveHeight)) + 2*bufferPages
	if pagesToRender < 1 {
		pagesToRender = 1
	}

	last := firstVisible + pagesToRender - 1
	if last > pageCount {
		last = pageCount
	}
	if firstVisible > pageCount {
		firstVisible = pageCount
	}

	pages := make([]int, 0, last-firstVisible+1)
	for p := firstVisible; p <= last; p++ {
		pages = append(pages, p)
	}

	// The current page is the one nearest the top of the viewport, i.e. the
	// first visible page before the buffer is applied.
	current := int(math.Floor(scrollOffset/effectiveHeight)) + 1
	if current > pageCount {
		current = pageCount
	}
	if current < 1 {
		current = 1
	}

	return domain.ViewportWindow{
		Pages:               pages,
		CurrentPage:         current,
		EffectivePageHeight: effectiveHeight,
	}
}

// ScrollOffsetForPage returns the deterministic scroll offset that puts the
// top of page n at the top of the viewport.
func ScrollOffsetForPage(n int, pageHeight, zoom float64) float64 {
	if n < 1 {
		n = 1
	}
	return float64(n-1) * pageHeight * zoom
}

// Tracker holds the live viewport geometry and recomputes the window on
// every scroll or zoom event. Zoom changes recompute with the new effective
// page height before listeners re-request renders, so rendered content and
// viewport geometry cannot diverge.
type Tracker struct {
	mu              sync.Mutex
	logger          domain.Logger
	scrollOffset    float64
	containerHeight float64
	pageCount       int
	pageHeight      float64
	zoom            float64
	bufferPages     int
	window          domain.ViewportWindow

	// scrollTo pushes a computed offset to the host scroll surface.
	scrollTo  func(offset float64)
	listeners []func(domain.ViewportWindow)
}

// NewTracker creates a tracker with the given buffer policy. Geometry is
// zero until the host pushes the first scroll event.
func NewTracker(bufferPages int, logger domain.Logger) *Tracker {
	if bufferPages < 0 {
		bufferPages = 0
	}
	return &Tracker{
		logger:      logger,
		zoom:        1,
		bufferPages: bufferPages,
	}
}

// OnScrollRequest registers the host callback GoToPage drives.
func (t *Tracker) OnScrollRequest(fn func(offset float64)) {
	t.mu.Lock()
	t.scrollTo = fn
	t.mu.Unlock()
}

// Subscribe registers a listener invoked with the new window after every
// recomputation.
func (t *Tracker) Subscribe(fn func(domain.ViewportWindow)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// SetDocument installs the page geometry of a newly loaded document and
// resets scroll to the top.
func (t *Tracker) SetDocument(pageCount int, pageHeight float64) {
	t.mu.Lock()
	t.pageCount = pageCount
	t.pageHeight = pageHeight
	t.scrollOffset = 0
	t.mu.Unlock()
	t.recompute()
}

// SetScroll handles one scroll event from the host.
func (t *Tracker) SetScroll(scrollOffset, containerHeight float64) {
	t.mu.Lock()
	t.scrollOffset = scrollOffset
	t.containerHeight = containerHeight
	t.mu.Unlock()
	t.recompute()
}

// SetZoom applies a new zoom factor and recomputes against the new
// effective page height.
func (t *Tracker) SetZoom(zoom float64) {
	if zoom <= 0 {
		return
	}
	t.mu.Lock()
	t.zoom = zoom
	t.mu.Unlock()
	t.recompute()
}

// GoToPage computes the offset for page n, pushes it to the host scroll
// surface, and recomputes through the normal scroll path.
func (t *Tracker) GoToPage(n int) {
	t.mu.Lock()
	if n < 1 {
		n = 1
	}
	if t.pageCount > 0 && n > t.pageCount {
		n = t.pageCount
	}
	offset := ScrollOffsetForPage(n, t.pageHeight, t.zoom)
	t.scrollOffset = offset
	scrollTo := t.scrollTo
	t.mu.Unlock()

	if scrollTo != nil {
		scrollTo(offset)
	}
	t.recompute()
}

// Window returns the last computed window.
func (t *Tracker) Window() domain.ViewportWindow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window
}

// Zoom returns the current zoom factor.
func (t *Tracker) Zoom() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom
}

// CurrentPage returns the page nearest the top of the viewport.
func (t *Tracker) CurrentPage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window.CurrentPage
}

func (t *Tracker) recompute() {
	t.mu.Lock()
	window := ComputeWindow(t.scrollOffset, t.containerHeight, t.pageCount, t.pageHeight, t.zoom, t.bufferPages)
	t.window = window
	listeners := make([]func(domain.ViewportWindow), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(window)
	}
}
