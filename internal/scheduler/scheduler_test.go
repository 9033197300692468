package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type recordingWarmer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (w *recordingWarmer) Warm(_ context.Context, address string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, address)
	if w.fail[address] {
		return errors.New("not found")
	}
	return nil
}

func (w *recordingWarmer) snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.calls...)
	sort.Strings(out)
	return out
}

func TestStartWithoutAddressesSchedulesNothing(t *testing.T) {
	w := &recordingWarmer{}
	s := New(nil, time.Hour, w)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if len(s.scheduler.Jobs()) != 0 {
		t.Fatalf("expected no jobs, got %d", len(s.scheduler.Jobs()))
	}
}

func TestRunWarmsEveryAddress(t *testing.T) {
	w := &recordingWarmer{fail: map[string]bool{"nowhere": true}}
	s := New([]string{"b street", "nowhere", "a avenue"}, time.Hour, w)

	s.run()

	got := w.snapshot()
	want := []string{"a avenue", "b street", "nowhere"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStartRunsImmediately(t *testing.T) {
	w := &recordingWarmer{}
	s := New([]string{"1600 Amphitheatre Parkway"}, time.Hour, w)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for len(w.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the warm job to run on start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
