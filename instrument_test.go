package microtonal

import (
	"errors"
	"testing"

	intscale "github.com/cbegin/microtonal-go/internal/scale"
	intseq "github.com/cbegin/microtonal-go/internal/sequencer"
)

func TestNewInstrumentDefaults(t *testing.T) {
	in, err := NewInstrument(48000)
	if err != nil {
		t.Fatal(err)
	}
	cfg := in.Config()
	if cfg.NumSteps != 12 || cfg.NumOctaves != 1 || cfg.MinFrequency != 220 {
		t.Fatalf("unexpected default config %+v", cfg)
	}
	if in.MasterGain() != DefaultGain {
		t.Fatalf("gain = %v, want %v", in.MasterGain(), DefaultGain)
	}
	if _, err := NewInstrument(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestInstrumentOptions(t *testing.T) {
	in, err := NewInstrument(48000, WithGain(0.5), WithWaveform(WaveSaw), WithVoices(4))
	if err != nil {
		t.Fatal(err)
	}
	if in.MasterGain() != 0.5 {
		t.Fatalf("gain = %v, want 0.5", in.MasterGain())
	}
}

func TestSetConfigValidates(t *testing.T) {
	in, _ := NewInstrument(48000)
	bad := in.Config()
	bad.MinFrequency = -1
	if err := in.SetConfig(bad); !errors.Is(err, intscale.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if in.Config().MinFrequency != 220 {
		t.Fatalf("invalid config must not be applied")
	}
	good := in.Config()
	good.NumSteps = 19
	if err := in.SetConfig(good); err != nil {
		t.Fatal(err)
	}
	freqs, err := in.StepFrequencies()
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != 20 {
		t.Fatalf("len = %d, want 20", len(freqs))
	}
}

func TestDownUpThroughInstrument(t *testing.T) {
	in, _ := NewInstrument(48000)
	if err := in.Down("a"); err != nil {
		t.Fatal(err)
	}
	if !in.IsActive(10) {
		t.Fatalf("note 10 should be active, have %v", in.ActiveNotes())
	}
	buf := make([]float32, 512)
	in.Process(buf)
	if rms(buf) == 0 {
		t.Fatalf("held note should sound")
	}
	if err := in.Up("a"); err != nil {
		t.Fatal(err)
	}
	if in.IsActive(10) {
		t.Fatalf("note 10 should be released")
	}
	if err := in.Down("z"); err != nil {
		t.Fatal(err)
	}
	if err := in.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if len(in.ActiveNotes()) != 0 {
		t.Fatalf("active = %v, want none", in.ActiveNotes())
	}
	if err := in.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestKeyLabel(t *testing.T) {
	in, _ := NewInstrument(48000)
	cfg := in.Config()
	cfg.SelectedNotes = intscale.NewNoteSet(0, 4, 7)
	if err := in.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		id     string
		note   int
		cents  int
		octave bool
	}{
		{"z", 0, 0, true},
		{"x", 4, 400, false},
		{"c", 7, 700, false},
		{"v", 12, 1200, true},
	}
	for _, tc := range cases {
		label, ok := in.KeyLabel(tc.id)
		if !ok {
			t.Fatalf("KeyLabel(%q) not mapped", tc.id)
		}
		if label.Note != tc.note || label.Cents != tc.cents || label.Octave != tc.octave {
			t.Errorf("KeyLabel(%q) = %+v, want note %d cents %d octave %v", tc.id, label, tc.note, tc.cents, tc.octave)
		}
	}
	if _, ok := in.KeyLabel("?"); ok {
		t.Fatalf("unmapped key should not resolve")
	}
	_ = in.Down("x")
	if label, _ := in.KeyLabel("x"); !label.Active {
		t.Fatalf("held key should be labelled active")
	}
}

func TestPlaySequenceThroughInstrument(t *testing.T) {
	in, _ := NewInstrument(48000)
	p := in.NewStepPattern(2)
	p.Set(0, 0, true)
	p.Set(12, 1, true)
	in.PlaySequence(p, SequenceOptions{BPM: 600})
	if in.SequencePosition() != -1 {
		t.Fatalf("position before first frame = %d, want -1", in.SequencePosition())
	}
	buf := make([]float32, 2*4800)
	in.Process(buf)
	if rms(buf) == 0 {
		t.Fatalf("sequence should sound")
	}
	var sawStep bool
	events := in.SequenceEvents()
drain:
	for {
		select {
		case ev := <-events:
			if ev.Kind == intseq.EventStep {
				sawStep = true
			}
		default:
			break drain
		}
	}
	if !sawStep {
		t.Fatalf("expected a step event")
	}
	in.StopSequence()
	if in.SequencePosition() != -1 {
		t.Fatalf("stopped sequence should report -1")
	}
}

func TestSequenceStepDoesNotSilenceHeldKey(t *testing.T) {
	in, _ := NewInstrument(48000)
	// "z" plays note 0, the same frequency as row 0 of the grid.
	if err := in.Down("z"); err != nil {
		t.Fatal(err)
	}
	p := in.NewStepPattern(2)
	p.Set(0, 0, true)
	p.Set(0, 1, true)
	if err := in.PlaySequence(p, SequenceOptions{BPM: 600}); err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 2*1024)
	for i := 0; i < 48; i++ {
		in.Process(buf)
	}
	if !in.IsActive(0) {
		t.Fatalf("note 0 should still be held")
	}
	if !in.engine.Sounding(220) {
		t.Fatalf("held key was silenced by the sequence")
	}
	if in.seqEngine.Sounding(220) {
		t.Fatalf("sequence tone should have been released")
	}
	if rms(buf) == 0 {
		t.Fatalf("held key should still be audible")
	}
}

func TestSequenceEndIsDeliveredWhenEventsOverflow(t *testing.T) {
	in, _ := NewInstrument(48000)
	p := in.NewStepPattern(40)
	for step := 0; step < 40; step++ {
		p.Set(0, step, true)
	}
	if err := in.PlaySequence(p, SequenceOptions{BPM: 600}); err != nil {
		t.Fatal(err)
	}
	// 40 steps of 1200 frames, nobody reading events.
	in.Process(make([]float32, 2*(40*1200+100)))
	events := in.SequenceEvents()
	var last intseq.Event
	n := 0
drain:
	for {
		select {
		case ev := <-events:
			last = ev
			n++
		default:
			break drain
		}
	}
	if n == 0 || last.Kind != intseq.EventPlaybackEnded {
		t.Fatalf("last of %d events = %+v, want EventPlaybackEnded", n, last)
	}
}
