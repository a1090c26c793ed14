// Package loader owns the document handle lifecycle: open, validate,
// destroy, and the automatic retry policy for transient failures.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pdf-view-engine/internal/domain"
	apperrors "pdf-view-engine/pkg/errors"
)

// Options tunes the retry policy. The defaults match the viewer's behavior:
// two automatic re-attempts with backoff base × attemptNumber delays.
type Options struct {
	MaxRetries  int
	BackoffBase time.Duration
}

// Loader is the exclusive owner of the document handle. Load outcomes are
// never returned as errors; callers observe State, Metadata and ErrorRecord,
// and react through Subscribe. The handle is destroyed exactly once per load
// session, on source change, unload, or supersession.
type Loader struct {
	mu     sync.Mutex
	opener domain.DocumentOpener
	logger domain.Logger
	opts   Options

	state    domain.LoadState
	sourceID string
	handle   domain.DocumentHandle
	meta     *domain.DocumentMetadata
	errRec   *apperrors.LoadError

	// generation counts load sessions; a load attempt that finishes after
	// a newer Load or Unload started must not commit its result.
	generation int

	onDestroy []func()
	listeners []func()

	// sleep is swapped by tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// New creates an idle loader.
func New(opener domain.DocumentOpener, logger domain.Logger, opts Options) *Loader {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	return &Loader{
		opener: opener,
		logger: logger,
		opts:   opts,
		state:  domain.LoadStateIdle,
		sleep:  time.Sleep,
	}
}

// OnHandleDestroy registers a hook run synchronously just before the handle
// is destroyed. The session uses it to cancel all derived render tasks.
func (l *Loader) OnHandleDestroy(fn func()) {
	l.mu.Lock()
	l.onDestroy = append(l.onDestroy, fn)
	l.mu.Unlock()
}

// Subscribe registers a listener invoked after every state change.
func (l *Loader) Subscribe(fn func()) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Load opens and validates sourceID. Calling it with the currently loaded
// source is a no-op. Any existing handle is destroyed first, cancelling all
// derived tasks through the destroy hooks. Retryable failures are re-attempted
// automatically up to MaxRetries additional times with increasing backoff.
func (l *Loader) Load(ctx context.Context, sourceID string) {
	l.mu.Lock()
	if l.state == domain.LoadStateLoaded && l.sourceID == sourceID {
		l.mu.Unlock()
		l.logger.Debug("document already loaded, skipping", "source_id", sourceID)
		return
	}

	l.generation++
	gen := l.generation
	l.destroyHandleLocked()
	l.state = domain.LoadStateLoading
	l.sourceID = sourceID
	l.meta = nil
	l.errRec = nil
	l.mu.Unlock()
	l.notify()

	l.logger.Info("loading document", "source_id", sourceID)
	l.attemptLoad(ctx, sourceID, gen)
}

// Unload destroys the handle and returns the loader to idle.
func (l *Loader) Unload() {
	l.mu.Lock()
	l.generation++
	l.destroyHandleLocked()
	l.state = domain.LoadStateIdle
	l.sourceID = ""
	l.meta = nil
	l.errRec = nil
	l.mu.Unlock()
	l.notify()
	l.logger.Info("document unloaded")
}

// Retry re-invokes Load with the last-used source.
func (l *Loader) Retry(ctx context.Context) {
	l.mu.Lock()
	sourceID := l.sourceID
	state := l.state
	l.mu.Unlock()

	if sourceID == "" {
		l.logger.Warn("retry requested with no previous source")
		return
	}
	l.logger.Info("retrying document load", "source_id", sourceID, "previous_state", state)
	l.Load(ctx, sourceID)
}

// State returns the current load state.
func (l *Loader) State() domain.LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// SourceID returns the most recently requested source identifier.
func (l *Loader) SourceID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sourceID
}

// Metadata returns the loaded document's metadata, or nil.
func (l *Loader) Metadata() *domain.DocumentMetadata {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meta
}

// ErrorRecord returns the classified failure of the last load attempt, or nil.
func (l *Loader) ErrorRecord() *apperrors.LoadError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errRec
}

// Handle returns the live document handle, or nil outside the loaded state.
func (l *Loader) Handle() domain.DocumentHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

func (l *Loader) attemptLoad(ctx context.Context, sourceID string, gen int) {
	totalAttempts := l.opts.MaxRetries + 1

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		handle, err := l.opener.Open(ctx, sourceID)
		if err == nil {
			err = validateHandle(handle)
			if err != nil {
				_ = handle.Close()
				handle = nil
			}
		}

		if err == nil {
			if !l.commitLoaded(handle, gen) {
				// A newer load or unload superseded this session.
				_ = handle.Close()
				l.logger.Debug("load result discarded, superseded", "source_id", sourceID)
			}
			return
		}

		loadErr := apperrors.Classify(err)
		l.logger.Error("document load attempt failed", loadErr,
			"source_id", sourceID, "attempt", attempt, "kind", loadErr.Kind, "retryable", loadErr.Retryable)

		if !loadErr.Retryable || attempt == totalAttempts {
			l.commitError(loadErr, gen)
			return
		}

		delay := l.opts.BackoffBase * time.Duration(attempt)
		l.logger.Warn("scheduling load retry", "source_id", sourceID, "attempt", attempt, "delay", delay)
		l.sleep(delay)

		if ctx.Err() != nil || l.superseded(gen) {
			return
		}
	}
}

func (l *Loader) commitLoaded(handle domain.DocumentHandle, gen int) bool {
	l.mu.Lock()
	if l.generation != gen {
		l.mu.Unlock()
		return false
	}
	meta := handle.Metadata()
	l.handle = handle
	l.meta = &meta
	l.state = domain.LoadStateLoaded
	l.errRec = nil
	l.mu.Unlock()
	l.notify()
	l.logger.Info("document loaded", "source_id", l.SourceID(), "pages", meta.PageCount)
	return true
}

func (l *Loader) commitError(loadErr *apperrors.LoadError, gen int) {
	l.mu.Lock()
	if l.generation != gen {
		l.mu.Unlock()
		return
	}
	l.state = domain.LoadStateError
	l.errRec = loadErr
	l.mu.Unlock()
	l.notify()
}

func (l *Loader) superseded(gen int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation != gen
}

// destroyHandleLocked runs the destroy hooks and closes the handle. Callers
// hold mu; hooks must not re-enter the loader.
func (l *Loader) destroyHandleLocked() {
	if l.handle == nil {
		return
	}
	for _, fn := range l.onDestroy {
		fn()
	}
	if err := l.handle.Close(); err != nil {
		l.logger.Warn("failed to close document handle", "error", err)
	}
	l.handle = nil
}

func (l *Loader) notify() {
	l.mu.Lock()
	listeners := make([]func(), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// validateHandle is the structural validation pass run after a successful
// parse: the document must expose at least one fetchable page.
func validateHandle(handle domain.DocumentHandle) error {
	count := handle.PageCount()
	if count < 1 {
		return apperrors.NewCorruptedError("document has no pages", nil)
	}
	if _, err := handle.Page(1); err != nil {
		return apperrors.NewCorruptedError(fmt.Sprintf("first page unreadable: %v", err), err)
	}
	return nil
}
