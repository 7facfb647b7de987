package ratelimit

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSlidingWindow_Basic(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)

	sw.Add(t0, 1)
	sw.Add(t0.Add(10*time.Millisecond), 2)

	if got := sw.Sum(t0.Add(time.Second)); got != 3 {
		t.Errorf("Expected 3 events, got %d", got)
	}
	if sw.Window() != time.Minute {
		t.Errorf("Expected window 1m, got %v", sw.Window())
	}
}

func TestSlidingWindow_Expiration(t *testing.T) {
	sw := NewSlidingWindow(time.Second, 10)
	sw.Add(t0, 5)

	if got := sw.Sum(t0.Add(999 * time.Millisecond)); got != 5 {
		t.Errorf("Expected 5 events inside window, got %d", got)
	}
	if got := sw.Sum(t0.Add(time.Second)); got != 0 {
		t.Errorf("Expected 0 events after window, got %d", got)
	}
}

func TestSlidingWindow_RollingWindow(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)

	sw.Add(t0, 1)
	sw.Add(t0.Add(30*time.Second), 1)

	tests := []struct {
		name string
		at   time.Duration
		want int64
	}{
		{"both inside", 45 * time.Second, 2},
		{"first expired", 60 * time.Second, 1},
		{"still one", 89 * time.Second, 1},
		{"all expired", 90 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sw.Sum(t0.Add(tt.at)); got != tt.want {
				t.Errorf("Expected %d at +%v, got %d", tt.want, tt.at, got)
			}
		})
	}
}

func TestSlidingWindow_ResetIn(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)
	sw.Add(t0, 2)
	sw.Add(t0.Add(20*time.Second), 3)

	now := t0.Add(30 * time.Second)

	tests := []struct {
		release int64
		want    time.Duration
	}{
		{0, 0},
		{1, 30 * time.Second},
		{2, 30 * time.Second},
		{3, 50 * time.Second},
		{5, 50 * time.Second},
		{6, 0},
	}

	for _, tt := range tests {
		if got := sw.ResetIn(now, tt.release); got != tt.want {
			t.Errorf("ResetIn(%d): expected %v, got %v", tt.release, tt.want, got)
		}
	}
}

func TestSlidingWindow_ClockAnomaly(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)

	if clamped := sw.Add(t0.Add(10*time.Second), 1); clamped {
		t.Error("Expected first add not to be clamped")
	}
	if clamped := sw.Add(t0, 1); !clamped {
		t.Error("Expected add before newest event to be clamped")
	}
	if !sw.Newest().Equal(t0.Add(10 * time.Second)) {
		t.Errorf("Expected newest to stay at +10s, got %v", sw.Newest())
	}

	// Both events are counted at +10s and expire together.
	if got := sw.Sum(t0.Add(69 * time.Second)); got != 2 {
		t.Errorf("Expected 2 events, got %d", got)
	}
	if got := sw.Sum(t0.Add(70 * time.Second)); got != 0 {
		t.Errorf("Expected 0 events, got %d", got)
	}
}

func TestSlidingWindow_Reset(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)
	sw.Add(t0, 10)
	sw.Reset()

	if got := sw.Sum(t0); got != 0 {
		t.Errorf("Expected 0 after reset, got %d", got)
	}
	if !sw.Newest().IsZero() {
		t.Errorf("Expected zero newest after reset, got %v", sw.Newest())
	}
}

func TestSlidingWindow_BoundedBuckets(t *testing.T) {
	sw := NewSlidingWindow(time.Second, 10)

	// One event every millisecond for two windows.
	now := t0
	for i := 0; i < 2000; i++ {
		sw.Add(now, 1)
		now = now.Add(time.Millisecond)
	}

	if len(sw.buckets) != 11 {
		t.Errorf("Expected 11 bucket slots, got %d", len(sw.buckets))
	}

	// Never under-counts: at least the last second's events remain.
	if got := sw.Sum(now.Add(-time.Millisecond)); got < 1000 {
		t.Errorf("Expected at least 1000 events in window, got %d", got)
	}
}

func TestSlidingWindow_Remove(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 60)
	sw.Add(t0, 1)
	sw.Add(t0.Add(30*time.Second), 2)

	sw.Remove(t0.Add(31*time.Second), t0.Add(30*time.Second), 1)
	if got := sw.Sum(t0.Add(31 * time.Second)); got != 2 {
		t.Errorf("Expected 2 events after remove, got %d", got)
	}

	// The event at t0 already left the window; nothing newer is touched.
	sw.Remove(t0.Add(61*time.Second), t0, 1)
	if got := sw.Sum(t0.Add(61 * time.Second)); got != 1 {
		t.Errorf("Expected 1 event to remain, got %d", got)
	}

	// Never goes below zero.
	sw.Remove(t0.Add(62*time.Second), t0.Add(30*time.Second), 5)
	if got := sw.Sum(t0.Add(62 * time.Second)); got != 0 {
		t.Errorf("Expected 0 events, got %d", got)
	}
}
