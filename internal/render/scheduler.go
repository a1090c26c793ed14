// Package render schedules page rasterization tasks against a shared
// document handle. One Scheduler instance drives the full-size viewport
// pipeline; a second, independently bounded instance drives thumbnails so
// neither pipeline can starve the other.
package render

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pdf-view-engine/internal/domain"
	"pdf-view-engine/pkg/debounce"
)

// Options configures one scheduler instance.
type Options struct {
	// Name distinguishes the pipeline in logs ("render", "thumbnail").
	Name string
	// MaxConcurrent caps in-flight tasks; beyond it the oldest active task
	// is evicted to make room for a newer request.
	MaxConcurrent int
	// DebounceInterval coalesces rapid per-page requests. Zero disables
	// debouncing (requests start immediately).
	DebounceInterval time.Duration
}

// Scheduler owns the set of in-flight rasterization tasks for one pipeline.
// All mutation of scheduler state happens under one lock; task bodies run in
// their own goroutines and re-enter only through finish.
type Scheduler struct {
	mu         sync.Mutex
	opts       Options
	logger     domain.Logger
	handle     domain.DocumentHandle
	active     map[int]*task
	order      []*task
	latest     map[int]*task
	debouncers map[int]*debounce.Debouncer
	listeners  []func()
}

type task struct {
	page      int
	scale     float64
	surface   *domain.Surface
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
}

// NewScheduler creates a scheduler for one rendering pipeline.
func NewScheduler(opts Options, logger domain.Logger) *Scheduler {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Scheduler{
		opts:       opts,
		logger:     logger,
		active:     make(map[int]*task),
		latest:     make(map[int]*task),
		debouncers: make(map[int]*debounce.Debouncer),
	}
}

// SetHandle swaps the document handle tasks rasterize from. The caller must
// cancel outstanding work first; requests made while the handle is nil are
// dropped.
func (s *Scheduler) SetHandle(handle domain.DocumentHandle) {
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()
}

// Request schedules a rasterization of page into surface at scale. Bursts of
// requests for the same page within the debounce interval coalesce into a
// single task; when the task starts it supersedes any active task for the
// page and evicts the oldest active task if the ceiling is reached.
func (s *Scheduler) Request(page int, surface *domain.Surface, scale float64) {
	s.debouncerFor(page).Trigger(func() {
		s.start(page, surface, scale)
	})
}

// Flush fires any pending debounced request for page immediately. Used by
// the synchronous render path and by tests for deterministic timing.
func (s *Scheduler) Flush(page int) {
	s.mu.Lock()
	d := s.debouncers[page]
	s.mu.Unlock()
	if d != nil {
		d.Flush()
	}
}

// RenderNow pushes one page through the normal request path (debounce
// flushed) and blocks until the resulting task settles or ctx expires.
func (s *Scheduler) RenderNow(ctx context.Context, page int, surface *domain.Surface, scale float64) error {
	s.Request(page, surface, scale)
	s.Flush(page)

	s.mu.Lock()
	t := s.latest[page]
	s.mu.Unlock()
	if t == nil {
		return errors.New("render task did not start")
	}

	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel discards any pending debounced request and cancels the active task
// for page, if one exists.
func (s *Scheduler) Cancel(page int) {
	s.mu.Lock()
	if d := s.debouncers[page]; d != nil {
		d.Cancel()
	}
	t := s.active[page]
	if t != nil {
		s.dropLocked(t)
	}
	s.mu.Unlock()

	if t != nil {
		t.cancel()
		s.notify()
	}
}

// CancelAll cancels every active task and clears all pending requests. Used
// on teardown and on document source change.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	for _, d := range s.debouncers {
		d.Cancel()
	}
	cancelled := make([]*task, 0, len(s.active))
	for _, t := range s.active {
		cancelled = append(cancelled, t)
	}
	s.active = make(map[int]*task)
	s.latest = make(map[int]*task)
	s.order = nil
	s.mu.Unlock()

	for _, t := range cancelled {
		t.cancel()
	}
	if len(cancelled) > 0 {
		s.notify()
	}
}

// ActiveTasks returns a snapshot of in-flight tasks, oldest first.
func (s *Scheduler) ActiveTasks() []domain.TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]domain.TaskInfo, 0, len(s.order))
	for _, t := range s.order {
		infos = append(infos, domain.TaskInfo{Page: t.page, Scale: t.scale, StartedAt: t.startedAt})
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].StartedAt.Before(infos[j].StartedAt) })
	return infos
}

// IsRendering reports whether any task is in flight.
func (s *Scheduler) IsRendering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// ActiveCount returns the number of in-flight tasks.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Subscribe registers a listener invoked after every change to the active
// task set.
func (s *Scheduler) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Scheduler) debouncerFor(page int) *debounce.Debouncer {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debouncers[page]
	if !ok {
		d = debounce.New(s.opts.DebounceInterval)
		s.debouncers[page] = d
	}
	return d
}

// start runs when a debounced request fires. It enforces the two scheduler
// invariants: at most one non-cancelled task per page, and never more than
// MaxConcurrent active tasks in total.
func (s *Scheduler) start(page int, surface *domain.Surface, scale float64) {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		s.logger.Debug("render request dropped, no document handle", "pipeline", s.opts.Name, "page", page)
		return
	}

	var toCancel []*task

	if prev := s.active[page]; prev != nil {
		s.dropLocked(prev)
		toCancel = append(toCancel, prev)
	}

	// FIFO eviction: newer requests are the ones the user is most likely
	// still looking at.
	for len(s.active) >= s.opts.MaxConcurrent && len(s.order) > 0 {
		oldest := s.order[0]
		s.dropLocked(oldest)
		toCancel = append(toCancel, oldest)
		s.logger.Debug("evicted oldest render task", "pipeline", s.opts.Name, "evicted_page", oldest.page, "for_page", page)
	}

	pg, err := s.handle.Page(page)
	if err != nil {
		s.mu.Unlock()
		for _, t := range toCancel {
			t.cancel()
		}
		s.logger.Error("failed to fetch page descriptor", err, "pipeline", s.opts.Name, "page", page)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		page:      page,
		scale:     scale,
		surface:   surface,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.active[page] = t
	s.latest[page] = t
	s.order = append(s.order, t)
	s.mu.Unlock()

	for _, prev := range toCancel {
		prev.cancel()
	}
	s.notify()

	go s.run(t, pg)
}

func (s *Scheduler) run(t *task, pg domain.Page) {
	err := pg.Render(t.ctx, t.surface, t.scale)

	s.mu.Lock()
	if s.active[t.page] == t {
		s.dropLocked(t)
	}
	s.mu.Unlock()

	t.err = err
	close(t.done)
	t.cancel()

	switch {
	case err == nil:
		s.logger.Debug("page rendered", "pipeline", s.opts.Name, "page", t.page, "scale", t.scale)
	case errors.Is(err, context.Canceled):
		// Superseded or evicted work; expected, not a failure.
		s.logger.Debug("render task cancelled", "pipeline", s.opts.Name, "page", t.page)
	default:
		s.logger.Error("page render failed", err, "pipeline", s.opts.Name, "page", t.page, "scale", t.scale)
	}
	s.notify()
}

// dropLocked removes t from the active set and FIFO order. Callers hold mu.
func (s *Scheduler) dropLocked(t *task) {
	delete(s.active, t.page)
	for i, o := range s.order {
		if o == t {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
