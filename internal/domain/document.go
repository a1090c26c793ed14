package domain

// LoadState represents the loader's lifecycle for one document source.
type LoadState string

const (
	LoadStateIdle    LoadState = "idle"
	LoadStateLoading LoadState = "loading"
	LoadStateLoaded  LoadState = "loaded"
	LoadStateError   LoadState = "error"
)

// DocumentMetadata contains descriptive information about the loaded document
type DocumentMetadata struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	PageCount int    `json:"page_count"`
	// PageWidth and PageHeight are the dimensions of the first page in
	// points, used as the nominal per-page geometry for scroll math.
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
}
