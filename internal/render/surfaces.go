package render

import (
	"sync"

	"pdf-view-engine/internal/domain"
)

// SurfacePool hands out one drawing surface per page slot for a pipeline.
// Surfaces are created lazily on first request and released (backing dropped)
// when the slot is recycled, so off-screen pages hold no pixel memory.
type SurfacePool struct {
	mu       sync.Mutex
	surfaces map[int]*domain.Surface
}

// NewSurfacePool creates an empty pool.
func NewSurfacePool() *SurfacePool {
	return &SurfacePool{surfaces: make(map[int]*domain.Surface)}
}

// Get returns the surface for a page slot, creating it if needed.
func (p *SurfacePool) Get(page int) *domain.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.surfaces[page]
	if !ok {
		s = domain.NewSurface()
		p.surfaces[page] = s
	}
	return s
}

// Peek returns the surface for a page slot, or nil if none exists.
func (p *SurfacePool) Peek(page int) *domain.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surfaces[page]
}

// Pages lists the slots that currently hold a surface.
func (p *SurfacePool) Pages() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	pages := make([]int, 0, len(p.surfaces))
	for page := range p.surfaces {
		pages = append(pages, page)
	}
	return pages
}

// Release resets the slot's surface to 0×0 and forgets it.
func (p *SurfacePool) Release(page int) {
	p.mu.Lock()
	s := p.surfaces[page]
	delete(p.surfaces, page)
	p.mu.Unlock()
	if s != nil {
		s.Reset()
	}
}

// ReleaseAll resets and forgets every surface in the pool.
func (p *SurfacePool) ReleaseAll() {
	p.mu.Lock()
	surfaces := make([]*domain.Surface, 0, len(p.surfaces))
	for _, s := range p.surfaces {
		surfaces = append(surfaces, s)
	}
	p.surfaces = make(map[int]*domain.Surface)
	p.mu.Unlock()
	for _, s := range surfaces {
		s.Reset()
	}
}
