package main

import (
	"sort"
	"time"
)

// Terminals report key presses with auto-repeat but never key releases. A
// press is treated as held until no repeat has arrived within the hold
// window; the first window covers the keyboard's initial repeat delay.
const (
	holdInitial = 600 * time.Millisecond
	holdRepeat  = 150 * time.Millisecond
)

type holdTracker struct {
	deadlines map[string]time.Time
}

func newHoldTracker() *holdTracker {
	return &holdTracker{deadlines: make(map[string]time.Time)}
}

// press records a key press at now and reports whether it starts a new hold.
func (h *holdTracker) press(id string, now time.Time) bool {
	if _, held := h.deadlines[id]; held {
		h.deadlines[id] = now.Add(holdRepeat)
		return false
	}
	h.deadlines[id] = now.Add(holdInitial)
	return true
}

// expired removes and returns the holds whose window has passed, sorted.
func (h *holdTracker) expired(now time.Time) []string {
	var out []string
	for id, deadline := range h.deadlines {
		if !now.Before(deadline) {
			out = append(out, id)
			delete(h.deadlines, id)
		}
	}
	sort.Strings(out)
	return out
}

func (h *holdTracker) held(id string) bool {
	_, ok := h.deadlines[id]
	return ok
}

func (h *holdTracker) clear() {
	clear(h.deadlines)
}
