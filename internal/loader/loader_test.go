package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"pdf-view-engine/internal/domain"
	apperrors "pdf-view-engine/pkg/errors"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, fields ...interface{})             {}
func (mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (mockLogger) Debug(msg string, fields ...interface{})            {}
func (mockLogger) Warn(msg string, fields ...interface{})             {}

type mockHandle struct {
	pageCount int
	meta      domain.DocumentMetadata
	closed    int
	pageErr   error
}

func (m *mockHandle) PageCount() int                   { return m.pageCount }
func (m *mockHandle) Metadata() domain.DocumentMetadata { return m.meta }
func (m *mockHandle) Close() error {
	m.closed++
	return nil
}

func (m *mockHandle) Page(number int) (domain.Page, error) {
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	return &mockPage{number: number}, nil
}

type mockPage struct {
	number int
}

func (p *mockPage) Number() int             { return p.number }
func (p *mockPage) Size() (float64, float64) { return 612, 792 }
func (p *mockPage) Render(ctx context.Context, target *domain.Surface, scale float64) error {
	return nil
}

// mockOpener pops one scripted result per Open call; the last result repeats.
type mockOpener struct {
	results []openResult
	calls   int
}

type openResult struct {
	handle domain.DocumentHandle
	err    error
}

func (m *mockOpener) Open(ctx context.Context, sourceID string) (domain.DocumentHandle, error) {
	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++
	res := m.results[idx]
	return res.handle, res.err
}

func goodHandle(pages int) *mockHandle {
	return &mockHandle{
		pageCount: pages,
		meta:      domain.DocumentMetadata{PageCount: pages, PageWidth: 612, PageHeight: 792},
	}
}

func newTestLoader(opener domain.DocumentOpener) (*Loader, *[]time.Duration) {
	l := New(opener, mockLogger{}, Options{MaxRetries: 2, BackoffBase: time.Second})
	delays := &[]time.Duration{}
	l.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return l, delays
}

func TestLoadSuccess(t *testing.T) {
	opener := &mockOpener{results: []openResult{{handle: goodHandle(10)}}}
	l, _ := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if got := l.State(); got != domain.LoadStateLoaded {
		t.Fatalf("expected loaded state, got %v", got)
	}
	if l.ErrorRecord() != nil {
		t.Fatalf("expected no error record")
	}
	meta := l.Metadata()
	if meta == nil || meta.PageCount != 10 {
		t.Fatalf("expected metadata with 10 pages, got %+v", meta)
	}
	if l.Handle() == nil {
		t.Fatalf("expected a live handle")
	}
}

func TestLoadIsIdempotentForSameSource(t *testing.T) {
	opener := &mockOpener{results: []openResult{{handle: goodHandle(10)}}}
	l, _ := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")
	l.Load(context.Background(), "doc-a")

	if opener.calls != 1 {
		t.Fatalf("expected one parse for repeated load, got %d", opener.calls)
	}
}

func TestLoadNewSourceDestroysOldHandle(t *testing.T) {
	first := goodHandle(3)
	second := goodHandle(7)
	opener := &mockOpener{results: []openResult{{handle: first}, {handle: second}}}
	l, _ := newTestLoader(opener)

	destroyed := 0
	l.OnHandleDestroy(func() { destroyed++ })

	l.Load(context.Background(), "doc-a")
	l.Load(context.Background(), "doc-b")

	if first.closed != 1 {
		t.Fatalf("expected first handle closed once, got %d", first.closed)
	}
	if destroyed != 1 {
		t.Fatalf("expected destroy hook to run once, got %d", destroyed)
	}
	if got := l.Metadata().PageCount; got != 7 {
		t.Fatalf("expected second document metadata, got %d pages", got)
	}
}

func TestRetryableFailureRetriesWithBackoff(t *testing.T) {
	opener := &mockOpener{results: []openResult{
		{err: apperrors.NewNetworkError("refused", nil)},
		{handle: goodHandle(5)},
	}}
	l, delays := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if got := l.State(); got != domain.LoadStateLoaded {
		t.Fatalf("expected loaded after retry, got %v", got)
	}
	if opener.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", opener.calls)
	}
	if len(*delays) != 1 || (*delays)[0] != time.Second {
		t.Fatalf("expected one 1s backoff, got %v", *delays)
	}
}

func TestRetryableFailureGivesUpAfterCap(t *testing.T) {
	opener := &mockOpener{results: []openResult{
		{err: apperrors.NewNetworkError("refused", nil)},
	}}
	l, delays := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if got := l.State(); got != domain.LoadStateError {
		t.Fatalf("expected error state, got %v", got)
	}
	if opener.calls != 3 {
		t.Fatalf("expected 3 total attempts (1 + 2 retries), got %d", opener.calls)
	}
	// Backoff must strictly increase: base×1, base×2.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), *delays)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Fatalf("expected delay %v at attempt %d, got %v", want[i], i+1, (*delays)[i])
		}
	}
	rec := l.ErrorRecord()
	if rec == nil || rec.Kind != apperrors.KindNetwork || !rec.Retryable {
		t.Fatalf("expected retryable network error record, got %+v", rec)
	}
}

func TestNonRetryableFailureSurfacesImmediately(t *testing.T) {
	opener := &mockOpener{results: []openResult{
		{err: apperrors.NewPermissionError("denied", nil)},
	}}
	l, delays := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if opener.calls != 1 {
		t.Fatalf("expected single attempt for non-retryable failure, got %d", opener.calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no backoff, got %v", *delays)
	}
	rec := l.ErrorRecord()
	if rec == nil || rec.Kind != apperrors.KindPermission || rec.Retryable {
		t.Fatalf("expected non-retryable permission record, got %+v", rec)
	}
}

func TestValidationRejectsEmptyDocument(t *testing.T) {
	empty := goodHandle(0)
	opener := &mockOpener{results: []openResult{{handle: empty}}}
	l, _ := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if got := l.State(); got != domain.LoadStateError {
		t.Fatalf("expected error state for empty document, got %v", got)
	}
	if empty.closed != 1 {
		t.Fatalf("expected invalid handle closed, got %d", empty.closed)
	}
	if rec := l.ErrorRecord(); rec == nil || rec.Kind != apperrors.KindCorrupted {
		t.Fatalf("expected corrupted record, got %+v", l.ErrorRecord())
	}
}

func TestValidationRejectsUnreadableFirstPage(t *testing.T) {
	bad := goodHandle(4)
	bad.pageErr = errors.New("page decode failed")
	opener := &mockOpener{results: []openResult{{handle: bad}}}
	l, _ := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")

	if got := l.State(); got != domain.LoadStateError {
		t.Fatalf("expected error state, got %v", got)
	}
	if bad.closed != 1 {
		t.Fatalf("expected handle closed after failed validation, got %d", bad.closed)
	}
}

func TestUnloadReturnsToIdle(t *testing.T) {
	handle := goodHandle(10)
	opener := &mockOpener{results: []openResult{{handle: handle}}}
	l, _ := newTestLoader(opener)

	destroyed := 0
	l.OnHandleDestroy(func() { destroyed++ })

	l.Load(context.Background(), "doc-a")
	l.Unload()

	if got := l.State(); got != domain.LoadStateIdle {
		t.Fatalf("expected idle after unload, got %v", got)
	}
	if handle.closed != 1 || destroyed != 1 {
		t.Fatalf("expected handle destroyed once, closed=%d hooks=%d", handle.closed, destroyed)
	}
	if l.Metadata() != nil || l.ErrorRecord() != nil || l.SourceID() != "" {
		t.Fatalf("expected cleared loader state after unload")
	}
}

func TestRetryReattemptsLastSource(t *testing.T) {
	opener := &mockOpener{results: []openResult{
		{err: apperrors.NewPermissionError("denied", nil)},
		{handle: goodHandle(10)},
	}}
	l, _ := newTestLoader(opener)

	l.Load(context.Background(), "doc-a")
	if got := l.State(); got != domain.LoadStateError {
		t.Fatalf("expected error state before retry, got %v", got)
	}

	l.Retry(context.Background())

	if got := l.State(); got != domain.LoadStateLoaded {
		t.Fatalf("expected loaded after retry, got %v", got)
	}
	if got := l.SourceID(); got != "doc-a" {
		t.Fatalf("expected retry to reuse source, got %q", got)
	}
}

func TestRetryWithoutPreviousSourceIsNoop(t *testing.T) {
	opener := &mockOpener{results: []openResult{{handle: goodHandle(1)}}}
	l, _ := newTestLoader(opener)

	l.Retry(context.Background())

	if opener.calls != 0 {
		t.Fatalf("expected no open call, got %d", opener.calls)
	}
	if got := l.State(); got != domain.LoadStateIdle {
		t.Fatalf("expected idle, got %v", got)
	}
}

func TestSubscribersNotifiedOnTransitions(t *testing.T) {
	opener := &mockOpener{results: []openResult{{handle: goodHandle(2)}}}
	l, _ := newTestLoader(opener)

	var states []domain.LoadState
	l.Subscribe(func() { states = append(states, l.State()) })

	l.Load(context.Background(), "doc-a")

	if len(states) < 2 {
		t.Fatalf("expected loading and loaded notifications, got %v", states)
	}
	if states[0] != domain.LoadStateLoading || states[len(states)-1] != domain.LoadStateLoaded {
		t.Fatalf("unexpected transition order: %v", states)
	}
}
