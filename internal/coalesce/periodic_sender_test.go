package coalesce

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSetValueStartsDrainerAndIdlesOnEmptyTick(t *testing.T) {
	var mu sync.Mutex
	var received []int

	s := New(func(v int) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, v)
		return nil
	}, 10*time.Millisecond)

	if s.IsSending() {
		t.Fatal("expected idle before first SetValue")
	}

	if err := s.SetValue(1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !s.IsSending() {
		t.Fatal("expected drainer active immediately after SetValue")
	}

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	got := append([]int(nil), received...)
	mu.Unlock()
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected exactly one emission of 1, got %v", got)
	}

	time.Sleep(20 * time.Millisecond)
	if s.IsSending() {
		t.Fatal("expected drainer to exit after one empty tick")
	}
}

func TestSetValueCoalescesLatestWins(t *testing.T) {
	var mu sync.Mutex
	var received []int

	s := New(func(v int) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, v)
		return nil
	}, 40*time.Millisecond)

	_ = s.SetValue(1)
	_ = s.SetValue(2)
	_ = s.SetValue(3)

	time.Sleep(70 * time.Millisecond)

	mu.Lock()
	got := append([]int(nil), received...)
	mu.Unlock()
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected only the latest value 3 emitted once, got %v", got)
	}
}

func TestSetValueSurfacesClosedSinkError(t *testing.T) {
	sinkErr := errors.New("write on closed channel")
	s := New(func(v int) error { return sinkErr }, 5*time.Millisecond)

	_ = s.SetValue(1)
	time.Sleep(20 * time.Millisecond)

	err := s.SetValue(2)
	if err == nil {
		t.Fatal("expected error after sink closed")
	}
	if !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("expected ErrSinkClosed, got %v", err)
	}
}
