// Package scale maps keyboard offsets to scale degrees and scale degrees to
// frequencies for equal-division and custom-cents tunings.
//
// A note is an absolute index into the scale: with 12 steps per octave, note
// 0 sounds at MinFrequency and note 12 one octave above. An offset counts
// only the selected degrees, so with SelectedNotes {0, 3, 6} offset 2 is note
// 6 and offset 3 is note 12.
package scale

import "math"

// NoteFromOffset returns the note index for a position in the sequence of
// selected degrees. Negative offsets continue the pattern downwards.
func NoteFromOffset(cfg Config, offset int) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return noteFromOffset(cfg, offset), nil
}

func noteFromOffset(cfg Config, offset int) int {
	numNotes := cfg.SelectedNotes.Len()
	if numNotes == 0 {
		return offset
	}
	groups, remainder := floorDivMod(offset, numNotes)
	return groups*cfg.NumSteps + cfg.SelectedNotes.at(remainder)
}

// FrequencyFromNote returns the frequency in Hz of a note index.
func FrequencyFromNote(cfg Config, note int) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return frequencyFromCents(cfg.MinFrequency, centsFromNote(cfg, note)), nil
}

// FrequencyFromOffset is FrequencyFromNote applied to NoteFromOffset.
func FrequencyFromOffset(cfg Config, offset int) (note int, freq float64, err error) {
	if err := cfg.Validate(); err != nil {
		return 0, 0, err
	}
	note = noteFromOffset(cfg, offset)
	return note, frequencyFromCents(cfg.MinFrequency, centsFromNote(cfg, note)), nil
}

// CentsFromNote returns how far a note sits above MinFrequency, in cents.
func CentsFromNote(cfg Config, note int) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return centsFromNote(cfg, note), nil
}

// StepFrequencies returns the frequencies of offsets 0..NumSteps inclusive.
// The result is derived from cfg on every call.
func StepFrequencies(cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, cfg.NumSteps+1)
	for offset := range out {
		note := noteFromOffset(cfg, offset)
		out[offset] = frequencyFromCents(cfg.MinFrequency, centsFromNote(cfg, note))
	}
	return out, nil
}

// IsOctaveNote reports whether note falls on a whole octave of the
// equal-division grid, i.e. a multiple of NumSteps/NumOctaves.
func IsOctaveNote(cfg Config, note int) bool {
	if cfg.NumSteps < 1 || cfg.NumOctaves < 1 {
		return false
	}
	stepsPerOctave := float64(cfg.NumSteps) / float64(cfg.NumOctaves)
	return math.Mod(float64(note), stepsPerOctave) == 0
}

func centsFromNote(cfg Config, note int) float64 {
	if cfg.UseCustomCentValues {
		return customCentsForNote(note, cfg.CustomCentValues)
	}
	return cfg.CentsPerGroup() * float64(note) / float64(cfg.NumSteps)
}

// customCentsForNote extends a cumulative cents table by one octave per full
// traversal.
func customCentsForNote(note int, table []float64) float64 {
	octaves, index := floorDivMod(note, len(table))
	return table[index] + float64(CentsPerOctave*octaves)
}

func frequencyFromCents(minFrequency float64, cents float64) float64 {
	return minFrequency * math.Pow(2, cents/CentsPerOctave)
}

// floorDivMod divides rounding towards negative infinity, so the remainder is
// always in [0, d).
func floorDivMod(n, d int) (q, r int) {
	q, r = n/d, n%d
	if r < 0 {
		q--
		r += d
	}
	return q, r
}
