package midiin

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/microtonal-go/internal/keyboard"
)

func TestEventFromMessage(t *testing.T) {
	cases := []struct {
		name string
		msg  midi.Message
		want keyboard.Event
		ok   bool
	}{
		{"note on", midi.NoteOn(0, 60, 100), keyboard.Event{ID: "midi:60", Down: true}, true},
		{"note off", midi.NoteOff(3, 61), keyboard.Event{ID: "midi:61", Down: false}, true},
		{"zero velocity note on", midi.NoteOn(0, 62, 0), keyboard.Event{ID: "midi:62", Down: false}, true},
		{"control change", midi.ControlChange(0, 64, 127), keyboard.Event{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := eventFromMessage(tc.msg)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("eventFromMessage = %+v, %v, want %+v, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMessagesResolveThroughMIDILayout(t *testing.T) {
	ev, ok := eventFromMessage(midi.NoteOn(0, 67, 90))
	if !ok {
		t.Fatal("expected note event")
	}
	offset, ok := keyboard.MIDILayout{BaseKey: 60}.Offset(ev.ID)
	if !ok || offset != 7 {
		t.Fatalf("offset = %d, %v, want 7", offset, ok)
	}
}

func TestExcludedPorts(t *testing.T) {
	for name, want := range map[string]bool{
		"Midi Through:Midi Through Port-0 14:0": true,
		"Dummy MIDI":                            true,
		"Launchkey Mini MK3":                    false,
	} {
		if got := excluded(name); got != want {
			t.Errorf("excluded(%q) = %v, want %v", name, got, want)
		}
	}
}
