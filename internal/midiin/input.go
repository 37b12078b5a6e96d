// Package midiin reads note on/off messages from a MIDI input port and
// publishes them as keyboard events with "midi:<key>" identifiers.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/microtonal-go/internal/keyboard"
)

// ExcludedPatterns names virtual/system ports that are never auto-selected.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// Input is a keyboard.Source backed by one MIDI input port.
type Input struct {
	*keyboard.Queue

	mu     sync.Mutex
	drv    *rtmididrv.Driver
	port   drivers.In
	stopFn func()
	name   string
	logger *slog.Logger
}

// Ports lists the names of the available input ports.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Open connects to the first input whose name contains pattern (case
// insensitive). An empty pattern picks the first non-excluded port.
func Open(pattern string, logger *slog.Logger) (*Input, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	port, ok := pickPort(ins, pattern)
	if !ok {
		drv.Close()
		return nil, fmt.Errorf("no midi input matching %q", pattern)
	}
	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", port.String(), err)
	}
	in := &Input{
		Queue:  keyboard.NewQueue(),
		drv:    drv,
		port:   port,
		name:   port.String(),
		logger: logger,
	}
	stop, err := midi.ListenTo(port, in.receive, midi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", in.name, "err", listenErr)
	}))
	if err != nil {
		_ = port.Close()
		drv.Close()
		return nil, fmt.Errorf("listen %q: %w", in.name, err)
	}
	in.stopFn = stop
	logger.Info("midi: connected", "device", in.name)
	return in, nil
}

func (in *Input) receive(msg midi.Message, _ int32) {
	ev, ok := eventFromMessage(msg)
	if !ok {
		in.logger.Debug("midi: unhandled message", "msg", msg.String())
		return
	}
	in.Push(ev)
}

// eventFromMessage translates note messages. A note on with velocity 0 is a
// note off.
func eventFromMessage(msg midi.Message) (keyboard.Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return keyboard.Event{ID: keyboard.MIDIKeyID(int(key)), Down: true}, true
	case msg.GetNoteEnd(&ch, &key):
		return keyboard.Event{ID: keyboard.MIDIKeyID(int(key)), Down: false}, true
	}
	return keyboard.Event{}, false
}

func pickPort(ins []drivers.In, pattern string) (drivers.In, bool) {
	for _, in := range ins {
		name := in.String()
		if pattern != "" {
			if containsCI(name, pattern) {
				return in, true
			}
			continue
		}
		if !excluded(name) {
			return in, true
		}
	}
	return nil, false
}

func excluded(name string) bool {
	for _, pat := range ExcludedPatterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (in *Input) Name() string { return in.name }

// Close stops listening and releases the port and driver.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.stopFn != nil {
		in.stopFn()
		in.stopFn = nil
	}
	var errs []error
	if in.port != nil {
		errs = append(errs, in.port.Close())
		in.port = nil
	}
	if in.drv != nil {
		errs = append(errs, in.drv.Close())
		in.drv = nil
	}
	return errors.Join(errs...)
}
