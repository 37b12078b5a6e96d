package microtonal

import (
	"errors"
	"math"
	"testing"

	intscale "github.com/cbegin/microtonal-go/internal/scale"
)

func rms(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestRenderSequenceProducesAudio(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPattern(cfg.NumSteps+1, 4)
	p.Set(0, 0, true)
	p.Set(4, 1, true)
	p.Set(7, 2, true)
	p.Set(12, 3, true)
	out, err := RenderSequence(cfg, p, SequenceOptions{BPM: 240}, 48000, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 48000 {
		t.Fatalf("len = %d, want %d", len(out), 48000)
	}
	if rms(out) == 0 {
		t.Fatalf("expected audible output")
	}
}

func TestRenderSequenceEmptyPatternIsSilent(t *testing.T) {
	out, err := RenderSequence(DefaultConfig(), NewPattern(13, 4), SequenceOptions{}, 48000, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if rms(out) != 0 {
		t.Fatalf("empty pattern rendered sound")
	}
}

func TestRenderSequenceRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSteps = 0
	_, err := RenderSequence(cfg, NewPattern(1, 1), SequenceOptions{}, 48000, 0.1)
	if !errors.Is(err, intscale.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestRenderNotes(t *testing.T) {
	out, err := RenderNotes(DefaultConfig(), []int{0, 12}, 44100, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if rms(out) == 0 {
		t.Fatalf("expected audible output")
	}
}
