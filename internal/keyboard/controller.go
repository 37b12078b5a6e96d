// Package keyboard turns key down/up events into tone start/stop calls.
//
// A Controller keeps one boolean per note: the first down starts the note's
// tone and marks it held, the first up stops it. Repeated downs for a held
// note are ignored, so key repeat and several keys sharing a note never start
// a second voice.
//
// A Controller is not safe for concurrent use. Run Down, Up, Poll and
// ReleaseAll on the goroutine that owns the input loop.
package keyboard

import (
	"errors"
	"sort"

	"github.com/cbegin/microtonal-go/internal/scale"
)

// ToneOutput starts and stops sustained tones by frequency. Implementations
// must tolerate a Stop for a frequency that is not sounding.
type ToneOutput interface {
	Start(freq float64) error
	Stop(freq float64) error
}

type heldNote struct {
	freq float64
}

type Controller struct {
	tone   ToneOutput
	layout Layout
	config func() scale.Config

	active map[int]heldNote
	// keys remembers which note each held identifier resolved to, so a
	// config change while a key is down still stops the right voice.
	keys map[string]int

	subs []subscription
}

type subscription struct {
	events <-chan Event
	cancel func()
}

// NewController returns a controller that reads the current scale from
// config on every event.
func NewController(tone ToneOutput, layout Layout, config func() scale.Config) *Controller {
	return &Controller{
		tone:   tone,
		layout: layout,
		config: config,
		active: make(map[int]heldNote),
		keys:   make(map[string]int),
	}
}

// resolve maps an identifier to its note and frequency. ok is false for
// identifiers the layout does not know.
func (c *Controller) resolve(id string) (note int, freq float64, ok bool, err error) {
	offset, found := c.layout.Offset(id)
	if !found {
		return 0, 0, false, nil
	}
	note, freq, err = scale.FrequencyFromOffset(c.config(), offset)
	if err != nil {
		return 0, 0, false, err
	}
	return note, freq, true, nil
}

// Down starts the note for id unless it is already sounding. Unknown
// identifiers are ignored. A tone error is returned but the note is still
// marked held so that the matching Up reconciles it.
func (c *Controller) Down(id string) error {
	if prev, repeat := c.keys[id]; repeat {
		if _, held := c.active[prev]; held {
			return nil
		}
		// Another identifier on the same note released it.
		delete(c.keys, id)
	}
	note, freq, ok, err := c.resolve(id)
	if err != nil || !ok {
		return err
	}
	c.keys[id] = note
	if _, held := c.active[note]; held {
		return nil
	}
	c.active[note] = heldNote{freq: freq}
	return c.tone.Start(freq)
}

// Up stops the note for id. The stop is issued even if the note was not
// marked held.
func (c *Controller) Up(id string) error {
	note, remembered := c.keys[id]
	delete(c.keys, id)
	var freq float64
	if h, held := c.active[note]; remembered && held {
		freq = h.freq
	} else {
		var ok bool
		var err error
		note, freq, ok, err = c.resolve(id)
		if err != nil || !ok {
			return err
		}
		if h, held := c.active[note]; held {
			freq = h.freq
		}
	}
	delete(c.active, note)
	return c.tone.Stop(freq)
}

// Handle applies a single event.
func (c *Controller) Handle(ev Event) error {
	if ev.Down {
		return c.Down(ev.ID)
	}
	return c.Up(ev.ID)
}

// IsActive reports whether note is currently held.
func (c *Controller) IsActive(note int) bool {
	_, ok := c.active[note]
	return ok
}

// ActiveNotes returns the held notes in ascending order.
func (c *Controller) ActiveNotes() []int {
	out := make([]int, 0, len(c.active))
	for note := range c.active {
		out = append(out, note)
	}
	sort.Ints(out)
	return out
}

// ReleaseAll stops every held note with the frequency it was started at and
// clears all state. It is safe to call when nothing is held.
func (c *Controller) ReleaseAll() error {
	var errs []error
	for _, note := range c.ActiveNotes() {
		if err := c.tone.Stop(c.active[note].freq); err != nil {
			errs = append(errs, err)
		}
	}
	clear(c.active)
	clear(c.keys)
	return errors.Join(errs...)
}

// Attach subscribes to src. Events are applied by Poll until Close.
func (c *Controller) Attach(src Source) {
	events, cancel := src.Subscribe(256)
	c.subs = append(c.subs, subscription{events: events, cancel: cancel})
}

// Poll applies every event waiting on the attached sources without
// blocking.
func (c *Controller) Poll() error {
	var errs []error
	for _, sub := range c.subs {
	drain:
		for {
			select {
			case ev, ok := <-sub.events:
				if !ok {
					break drain
				}
				if err := c.Handle(ev); err != nil {
					errs = append(errs, err)
				}
			default:
				break drain
			}
		}
	}
	return errors.Join(errs...)
}

// Close cancels every subscription and releases all notes.
func (c *Controller) Close() error {
	for _, sub := range c.subs {
		sub.cancel()
	}
	c.subs = nil
	return c.ReleaseAll()
}
