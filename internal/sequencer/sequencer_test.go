package sequencer

import (
	"errors"
	"testing"

	"github.com/cbegin/microtonal-go/internal/scale"
	"github.com/cbegin/microtonal-go/internal/tone"
)

type countingEngine struct {
	starts []float64
	stops  []float64
	fail     map[float64]bool
	stopFail map[float64]bool
}

func (e *countingEngine) Start(freq float64) error {
	if e.fail[freq] {
		return errors.New("start failed")
	}
	e.starts = append(e.starts, freq)
	return nil
}
func (e *countingEngine) Stop(freq float64) error {
	e.stops = append(e.stops, freq)
	if e.stopFail[freq] {
		return errors.New("stop failed")
	}
	return nil
}
func (e *countingEngine) RenderFrame() (float32, float32) { return 0, 0 }

func staticFrequencies(freqs ...float64) FrequencySource {
	return func() ([]float64, error) { return freqs, nil }
}

func TestSequencerRunPlaysEachStepOnce(t *testing.T) {
	cfg := scale.DefaultConfig()
	freqs := func() ([]float64, error) { return scale.StepFrequencies(cfg) }
	engine := &countingEngine{}
	var ended int
	seq := New(NewRun(13), freqs, engine, 48000, Options{OnEvent: func(ev Event) {
		if ev.Kind == EventPlaybackEnded {
			ended++
		}
	}})
	// 13 steps of 6000 frames plus margin.
	buf := make([]float32, 2*(13*6000+10))
	seq.Process(buf)
	if len(engine.starts) != 13 {
		t.Fatalf("starts = %d, want 13", len(engine.starts))
	}
	want, _ := scale.StepFrequencies(cfg)
	for i, f := range engine.starts {
		if f != want[i] {
			t.Fatalf("step %d started %v, want %v", i, f, want[i])
		}
	}
	if len(engine.stops) != 13 {
		t.Fatalf("stops = %d, want 13", len(engine.stops))
	}
	if ended != 1 || !seq.Finished() {
		t.Fatalf("expected playback to end once, ended=%d finished=%v", ended, seq.Finished())
	}
}

func TestSequencerGateStopsBeforeNextStep(t *testing.T) {
	engine := &countingEngine{}
	p := NewPattern(1, 2)
	p.Set(0, 0, true)
	seq := New(p, staticFrequencies(300), engine, 48000, Options{Gate: 0.5})
	// Half a step in, the tone is released.
	seq.Process(make([]float32, 2*3001))
	if len(engine.starts) != 1 || len(engine.stops) != 1 {
		t.Fatalf("starts=%v stops=%v, want one of each", engine.starts, engine.stops)
	}
}

func TestSequencerLoops(t *testing.T) {
	engine := &countingEngine{}
	p := NewPattern(2, 2)
	p.Set(0, 0, true)
	p.Set(1, 1, true)
	var loops int
	seq := New(p, staticFrequencies(100, 200), engine, 48000, Options{Loop: true, OnEvent: func(ev Event) {
		if ev.Kind == EventLoopCompleted {
			loops++
		}
	}})
	seq.Process(make([]float32, 2*6000*6))
	if len(engine.starts) != 6 {
		t.Fatalf("starts = %d, want 6", len(engine.starts))
	}
	if loops != 2 {
		t.Fatalf("loops = %d, want 2", loops)
	}
	if seq.Finished() {
		t.Fatalf("looping sequencer should not finish")
	}
}

func TestSequencerFollowsFrequencySource(t *testing.T) {
	engine := &countingEngine{}
	current := []float64{100}
	p := NewPattern(1, 2)
	p.Set(0, 0, true)
	p.Set(0, 1, true)
	seq := New(p, func() ([]float64, error) { return current, nil }, engine, 48000, Options{})
	seq.Process(make([]float32, 2*10))
	current = []float64{150}
	seq.Process(make([]float32, 2*6000))
	if len(engine.starts) != 2 || engine.starts[0] != 100 || engine.starts[1] != 150 {
		t.Fatalf("starts = %v, want [100 150]", engine.starts)
	}
}

func TestSequencerSkipsRowsBeyondFrequencies(t *testing.T) {
	engine := &countingEngine{}
	p := NewPattern(4, 1)
	p.Set(0, 0, true)
	p.Set(3, 0, true)
	seq := New(p, staticFrequencies(100, 200), engine, 48000, Options{})
	seq.Process(make([]float32, 2*10))
	if len(engine.starts) != 1 || engine.starts[0] != 100 {
		t.Fatalf("starts = %v, want [100]", engine.starts)
	}
}

func TestSequencerReportsErrors(t *testing.T) {
	engine := &countingEngine{fail: map[float64]bool{200: true}}
	p := NewPattern(2, 1)
	p.Set(0, 0, true)
	p.Set(1, 0, true)
	var errs []error
	seq := New(p, staticFrequencies(100, 200), engine, 48000, Options{OnEvent: func(ev Event) {
		if ev.Err != nil {
			errs = append(errs, ev.Err)
		}
	}})
	seq.Process(make([]float32, 2*10))
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one", errs)
	}
	if len(engine.starts) != 1 {
		t.Fatalf("the working tone should still start")
	}

	badCfg := scale.Config{}
	seq = New(p, func() ([]float64, error) { return scale.StepFrequencies(badCfg) }, engine, 48000, Options{OnEvent: func(ev Event) {
		if ev.Err != nil {
			errs = append(errs, ev.Err)
		}
	}})
	seq.Process(make([]float32, 2*10))
	if len(errs) != 2 || !errors.Is(errs[1], scale.ErrInvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", errs)
	}
}

func TestSequencerStopReleases(t *testing.T) {
	engine := &countingEngine{}
	p := NewPattern(1, 4)
	p.Set(0, 0, true)
	seq := New(p, staticFrequencies(440), engine, 48000, Options{Loop: true})
	seq.Process(make([]float32, 2*100))
	seq.Stop()
	if len(engine.stops) != 1 {
		t.Fatalf("stop should release the sounding tone, stops=%v", engine.stops)
	}
	seq.Process(make([]float32, 2*48000))
	if len(engine.starts) != 1 {
		t.Fatalf("stopped sequencer must not start tones")
	}
}

func TestSequencerProducesAudioWithToneEngine(t *testing.T) {
	engine := tone.New(48000, tone.DefaultParams())
	seq := New(NewRun(3), staticFrequencies(220, 330, 440), engine, 48000, Options{})
	buf := make([]float32, 48000/4*2)
	seq.Process(buf)
	var energy float64
	for _, s := range buf {
		if s < 0 {
			energy -= float64(s)
		} else {
			energy += float64(s)
		}
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestPatternEditing(t *testing.T) {
	p := NewPattern(3, 4)
	p.Toggle(1, 2)
	if !p.On(1, 2) {
		t.Fatalf("toggle should switch the cell on")
	}
	p.Set(2, 2, true)
	p.Set(9, 9, true) // ignored
	if got := p.Column(2); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("column = %v, want [1 2]", got)
	}
	p.Clear()
	if len(p.Column(2)) != 0 {
		t.Fatalf("clear should empty the pattern")
	}
}

func TestSequencerReportsStopErrorsOnNextEvent(t *testing.T) {
	engine := &countingEngine{stopFail: map[float64]bool{100: true}}
	var failed []Event
	seq := New(NewRun(2), staticFrequencies(100, 200), engine, 48000, Options{OnEvent: func(ev Event) {
		if ev.Err != nil {
			failed = append(failed, ev)
		}
	}})
	buf := make([]float32, 2*(2*6000+10))
	seq.Process(buf)
	if len(failed) != 1 {
		t.Fatalf("failed events = %d, want 1", len(failed))
	}
	if failed[0].Kind != EventStep || failed[0].Step != 1 {
		t.Fatalf("stop error reported on %+v, want step 1", failed[0])
	}
}

func TestSequencerStopReturnsReleaseError(t *testing.T) {
	engine := &countingEngine{stopFail: map[float64]bool{100: true}}
	seq := New(NewRun(1), staticFrequencies(100), engine, 48000, Options{})
	seq.Process(make([]float32, 2*10))
	if err := seq.Stop(); err == nil {
		t.Fatalf("expected release error from Stop")
	}
	if err := seq.Stop(); err != nil {
		t.Fatalf("second Stop = %v, want nil", err)
	}
}
