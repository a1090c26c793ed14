package domain

import (
	"image"
	"image/draw"
	"sync"
)

// Surface is a host-supplied pixel target for one rendered page slot. Each
// surface is exclusively owned by one logical slot at a time; the schedulers
// enforce that it is never the simultaneous target of two active tasks. The
// internal lock only guards against a reader snapshotting while a render
// task is mid-copy.
//
// Reset drops the pixel backing (0×0) so recycled slots do not retain large
// bitmaps for off-screen pages.
type Surface struct {
	mu  sync.Mutex
	img *image.RGBA
}

// NewSurface creates an empty (0×0) surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Size returns the current pixel dimensions.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// SetSize allocates a backing buffer of the given dimensions, replacing any
// previous content. Non-positive dimensions reset the surface.
func (s *Surface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSize(width, height)
}

func (s *Surface) setSize(width, height int) {
	if width <= 0 || height <= 0 {
		s.img = nil
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Reset releases the backing buffer, returning the surface to 0×0.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
}

// Draw resizes the surface to the source bounds and copies the pixels in.
func (s *Surface) Draw(src image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := src.Bounds()
	s.setSize(b.Dx(), b.Dy())
	if s.img == nil {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
}

// Image returns a copy of the surface content, or nil when the surface is
// empty. Copying keeps the returned image stable if the slot is re-rendered.
func (s *Surface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	out := image.NewRGBA(s.img.Bounds())
	draw.Draw(out, out.Bounds(), s.img, s.img.Bounds().Min, draw.Src)
	return out
}
