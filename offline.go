package microtonal

import (
	intscale "github.com/cbegin/microtonal-go/internal/scale"
	intseq "github.com/cbegin/microtonal-go/internal/sequencer"
	inttone "github.com/cbegin/microtonal-go/internal/tone"
)

// RenderSequence plays pattern against cfg without an audio device and
// returns seconds of interleaved stereo samples.
func RenderSequence(cfg Config, pattern *Pattern, opts SequenceOptions, sampleRate int, seconds float64) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	freqs := func() ([]float64, error) { return intscale.StepFrequencies(cfg) }
	engine := inttone.New(sampleRate, inttone.DefaultParams())
	seq := intseq.New(pattern, freqs, engine, sampleRate, opts)
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	seq.Process(out)
	return out, nil
}

// RenderNotes holds notes of cfg for seconds and returns the rendered
// interleaved stereo samples.
func RenderNotes(cfg Config, notes []int, sampleRate int, seconds float64) ([]float32, error) {
	engine := inttone.New(sampleRate, inttone.DefaultParams())
	for _, n := range notes {
		freq, err := intscale.FrequencyFromNote(cfg, n)
		if err != nil {
			return nil, err
		}
		if err := engine.Start(freq); err != nil {
			return nil, err
		}
	}
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	engine.Process(out)
	return out, nil
}
