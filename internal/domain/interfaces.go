package domain

import (
	"context"
	"time"
)

// DocumentOpener opens a source identifier into a document handle. It is the
// boundary to the document backend; the engine never parses bytes itself.
type DocumentOpener interface {
	Open(ctx context.Context, sourceID string) (DocumentHandle, error)
}

// DocumentHandle is an opaque reference to a parsed, paginated document.
// It is owned by the loader and shared read-only with the schedulers for the
// duration of one load session. Close must be safe to call exactly once per
// session; all pages obtained from a closed handle are invalid.
type DocumentHandle interface {
	PageCount() int
	Metadata() DocumentMetadata
	// Page returns the descriptor for the 1-based page number.
	Page(number int) (Page, error)
	Close() error
}

// Page is the per-page rasterization primitive. Render draws the page into
// the target surface at the given scale, checking ctx at its yield points so
// superseded work can be discarded.
type Page interface {
	Number() int
	// Size returns the page dimensions in points.
	Size() (width, height float64)
	Render(ctx context.Context, target *Surface, scale float64) error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetRenderConcurrency() int
	GetThumbnailConcurrency() int
	GetDebounceInterval() time.Duration
	GetBufferPages() int
	GetMaxLoadRetries() int
	GetRetryBackoffBase() time.Duration
	GetThumbnailScale() float64
}
