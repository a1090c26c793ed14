package domain

// ViewportWindow is the computed set of pages currently relevant to render:
// a contiguous ascending run of page numbers including a small buffer beyond
// the visible area, plus the page nearest the top of the viewport.
type ViewportWindow struct {
	Pages       []int `json:"pages"`
	CurrentPage int   `json:"current_page"`
	// EffectivePageHeight is basePageHeight × zoom, the per-slot pixel
	// height the window was computed against.
	EffectivePageHeight float64 `json:"effective_page_height"`
}

// First returns the lowest page number in the window (0 when empty).
func (w ViewportWindow) First() int {
	if len(w.Pages) == 0 {
		return 0
	}
	return w.Pages[0]
}

// Last returns the highest page number in the window (0 when empty).
func (w ViewportWindow) Last() int {
	if len(w.Pages) == 0 {
		return 0
	}
	return w.Pages[len(w.Pages)-1]
}

// Contains reports whether page is inside the window.
func (w ViewportWindow) Contains(page int) bool {
	return page >= w.First() && page <= w.Last() && len(w.Pages) > 0
}
