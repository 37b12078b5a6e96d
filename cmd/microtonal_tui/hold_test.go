package main

import (
	"testing"
	"time"
)

func TestHoldTrackerRepeatsExtendHold(t *testing.T) {
	h := newHoldTracker()
	t0 := time.Unix(0, 0)
	if !h.press("a", t0) {
		t.Fatalf("first press should start a hold")
	}
	if got := h.expired(t0.Add(holdInitial - time.Millisecond)); len(got) != 0 {
		t.Fatalf("expired early: %v", got)
	}
	repeat := t0.Add(holdInitial - time.Millisecond)
	if h.press("a", repeat) {
		t.Fatalf("repeat must not start a new hold")
	}
	if got := h.expired(repeat.Add(holdRepeat - time.Millisecond)); len(got) != 0 {
		t.Fatalf("expired before repeat window: %v", got)
	}
	got := h.expired(repeat.Add(holdRepeat))
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expired = %v, want [a]", got)
	}
	if h.held("a") {
		t.Fatalf("expired key still held")
	}
}

func TestHoldTrackerIndependentKeys(t *testing.T) {
	h := newHoldTracker()
	t0 := time.Unix(0, 0)
	h.press("b", t0)
	h.press("a", t0)
	h.press("c", t0.Add(time.Second))
	got := h.expired(t0.Add(holdInitial))
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expired = %v, want [a b]", got)
	}
	if !h.held("c") {
		t.Fatalf("c should still be held")
	}
	h.clear()
	if h.held("c") {
		t.Fatalf("clear should drop every hold")
	}
}
