package scale

import (
	"errors"
	"fmt"
	"math"
)

// CentsPerOctave is the size of one 2:1 frequency ratio in cents.
const CentsPerOctave = 1200

// ErrInvalidConfig is wrapped by every error returned for a Config that
// cannot be mapped to frequencies.
var ErrInvalidConfig = errors.New("invalid scale config")

// Config describes a microtonal scale. It is owned by the caller and read on
// every mapping call.
type Config struct {
	UseCustomCentValues bool
	// CustomCentValues holds cumulative cents per degree when
	// UseCustomCentValues is set. Its length need not match NumSteps.
	CustomCentValues []float64
	MinFrequency     float64 // Hz at note 0
	NumOctaves       int
	NumSteps         int // degrees per NumOctaves span
	// SelectedNotes restricts the playable degrees. Empty means all.
	SelectedNotes NoteSet
}

func DefaultConfig() Config {
	cents := make([]float64, 0, 12)
	for c := 0; c < CentsPerOctave; c += 100 {
		cents = append(cents, float64(c))
	}
	return Config{
		CustomCentValues: cents,
		MinFrequency:     220,
		NumOctaves:       1,
		NumSteps:         12,
	}
}

// Validate reports the first problem that would make mapping produce NaN,
// Inf or an out-of-range lookup.
func (c Config) Validate() error {
	if c.NumSteps < 1 {
		return fmt.Errorf("%w: numSteps must be >= 1, got %d", ErrInvalidConfig, c.NumSteps)
	}
	if c.NumOctaves < 1 {
		return fmt.Errorf("%w: numOctaves must be >= 1, got %d", ErrInvalidConfig, c.NumOctaves)
	}
	if !(c.MinFrequency > 0) || math.IsInf(c.MinFrequency, 0) {
		return fmt.Errorf("%w: minFrequency must be a positive number, got %v", ErrInvalidConfig, c.MinFrequency)
	}
	if c.UseCustomCentValues {
		if len(c.CustomCentValues) == 0 {
			return fmt.Errorf("%w: custom cent values are enabled but empty", ErrInvalidConfig)
		}
		for i, v := range c.CustomCentValues {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: custom cent value %d is %v", ErrInvalidConfig, i, v)
			}
		}
	}
	for _, d := range c.SelectedNotes.Sorted() {
		if d < 0 || d >= c.NumSteps {
			return fmt.Errorf("%w: selected degree %d outside 0..%d", ErrInvalidConfig, d, c.NumSteps-1)
		}
	}
	return nil
}

// CentsPerGroup is the span covered by NumSteps degrees.
func (c Config) CentsPerGroup() float64 {
	return float64(CentsPerOctave * c.NumOctaves)
}
