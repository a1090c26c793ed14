package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerRunsAfterQuietPeriod(t *testing.T) {
	d := New(10 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })

	if fired.Load() != 0 {
		t.Fatalf("callback must not run before the interval")
	}

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Fatalf("expected one firing, got %d", fired.Load())
	}
}

func TestBurstCoalescesToLatestCallback(t *testing.T) {
	d := New(50 * time.Millisecond)

	var first, second atomic.Int32
	d.Trigger(func() { first.Add(1) })
	d.Trigger(func() { second.Add(1) })
	d.Flush()

	if first.Load() != 0 {
		t.Fatalf("superseded callback must not run")
	}
	if second.Load() != 1 {
		t.Fatalf("expected latest callback to run once, got %d", second.Load())
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	d := New(50 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Flush()
	d.Flush()

	if fired.Load() != 1 {
		t.Fatalf("expected exactly one firing, got %d", fired.Load())
	}
}

func TestCancelDropsPending(t *testing.T) {
	d := New(10 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Cancel()

	time.Sleep(30 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("cancelled callback must not run")
	}
}

func TestZeroIntervalRunsImmediately(t *testing.T) {
	d := New(0)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })

	if fired.Load() != 1 {
		t.Fatalf("zero interval must run synchronously")
	}
}
