package keyboard

import (
	"strconv"
	"strings"
)

// Layout resolves an input identifier to a keyboard offset.
type Layout interface {
	Offset(id string) (int, bool)
}

// KeyRows is the computer keyboard layout, listed bottom row first so that
// pitch rises left to right and then upwards.
var KeyRows = RowLayout{
	`zxcvbnm,./`,
	`asdfghjkl;`,
	`qwertyuiop`,
	`1234567890`,
}

// RowLayout assigns consecutive offsets to the characters of its rows.
type RowLayout []string

func (l RowLayout) Offset(id string) (int, bool) {
	if len([]rune(id)) != 1 {
		return 0, false
	}
	offset := 0
	for _, row := range l {
		for _, r := range row {
			if string(r) == id {
				return offset, true
			}
			offset++
		}
	}
	return 0, false
}

// Keys returns the identifiers of every row, bottom row first.
func (l RowLayout) Keys() [][]string {
	out := make([][]string, len(l))
	for i, row := range l {
		for _, r := range row {
			out[i] = append(out[i], string(r))
		}
	}
	return out
}

const midiPrefix = "midi:"

// MIDIKeyID is the identifier used for a MIDI key number.
func MIDIKeyID(key int) string {
	return midiPrefix + strconv.Itoa(key)
}

// MIDILayout maps "midi:<key>" identifiers so that BaseKey plays offset 0.
type MIDILayout struct {
	BaseKey int
}

func (l MIDILayout) Offset(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, midiPrefix)
	if !ok {
		return 0, false
	}
	key, err := strconv.Atoi(rest)
	if err != nil || key < 0 || key > 127 {
		return 0, false
	}
	return key - l.BaseKey, true
}

// Layouts tries each layout in order and uses the first match.
type Layouts []Layout

func (ls Layouts) Offset(id string) (int, bool) {
	for _, l := range ls {
		if offset, ok := l.Offset(id); ok {
			return offset, true
		}
	}
	return 0, false
}
