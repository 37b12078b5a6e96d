package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cbegin/microtonal-go/internal/keyboard"
	"github.com/cbegin/microtonal-go/internal/scale"
)

type countingTone struct {
	starts, stops int
}

func (c *countingTone) Start(float64) error { c.starts++; return nil }
func (c *countingTone) Stop(float64) error  { c.stops++; return nil }

func newTestApp(t *testing.T) (*app, *countingTone) {
	t.Helper()
	tone := &countingTone{}
	a := &app{cfg: scale.DefaultConfig(), holds: newHoldTracker()}
	a.controller = keyboard.NewController(tone, keyboard.KeyRows, func() scale.Config { return a.cfg })
	return a, tone
}

func TestKeyAt(t *testing.T) {
	// z row is drawn last and indented furthest.
	zTop := originY + 3*cellH
	if id, ok := keyAt(originX+6, zTop); !ok || id != "z" {
		t.Fatalf("keyAt z = %q, %v", id, ok)
	}
	if id, ok := keyAt(originX+cellW, originY); !ok || id != "2" {
		t.Fatalf("keyAt 2 = %q, %v", id, ok)
	}
	if _, ok := keyAt(0, 0); ok {
		t.Fatalf("header should not hit a key")
	}
}

func TestAutoRepeatHoldsOneNote(t *testing.T) {
	a, tone := newTestApp(t)
	t0 := time.Unix(0, 0)
	ev := tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)
	for i := 0; i < 5; i++ {
		a.handleKey(ev, t0.Add(time.Duration(i)*30*time.Millisecond))
	}
	if tone.starts != 1 {
		t.Fatalf("starts = %d, want 1", tone.starts)
	}
	for _, id := range a.holds.expired(t0.Add(time.Second)) {
		if err := a.controller.Up(id); err != nil {
			t.Fatal(err)
		}
	}
	if tone.stops != 1 {
		t.Fatalf("stops = %d, want 1", tone.stops)
	}
}

func TestAdjustRejectsInvalidScale(t *testing.T) {
	a, _ := newTestApp(t)
	a.cfg.NumSteps = 1
	a.adjust(func(c *scale.Config) { c.NumSteps-- })
	if a.cfg.NumSteps != 1 {
		t.Fatalf("steps = %d, want unchanged 1", a.cfg.NumSteps)
	}
	if a.status == "" {
		t.Fatalf("expected an error status")
	}
}

func TestReleaseAllClearsHolds(t *testing.T) {
	a, tone := newTestApp(t)
	now := time.Unix(0, 0)
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), now)
	a.handleKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), now)
	a.releaseAll()
	if tone.stops != 2 || a.holds.held("z") {
		t.Fatalf("stops = %d, held(z) = %v", tone.stops, a.holds.held("z"))
	}
}
