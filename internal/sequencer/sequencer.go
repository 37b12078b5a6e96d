// Package sequencer steps through a Pattern of scale frequencies in sample
// time, starting and stopping tones on an Engine at each step boundary.
package sequencer

import (
	"errors"
	"sync"
)

// Engine is a tone output that also renders audio frames.
type Engine interface {
	Start(freq float64) error
	Stop(freq float64) error
	RenderFrame() (float32, float32)
}

// FrequencySource returns the current step frequencies. It is consulted at
// every step so that scale changes apply on the next step.
type FrequencySource func() ([]float64, error)

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
	EventStep
)

type Event struct {
	Kind EventKind
	Step int
	Err  error // set when a tone of this step or the previous one failed to start or stop
}

type Options struct {
	BPM          float64 // default 120
	StepsPerBeat int     // default 4
	Gate         float64 // fraction of a step a tone sounds, (0, 1]; default 0.9
	Loop         bool
	// OnEvent runs on the goroutine calling Process; keep it brief.
	OnEvent func(Event)
}

type Sequencer struct {
	mu         sync.Mutex
	pattern    *Pattern
	freqs      FrequencySource
	engine     Engine
	opts       Options
	stepFrames float64
	gateFrames float64

	step      int
	frame     float64 // frames elapsed in the current step
	gated     bool
	sounding  []float64
	stopErr   error // release failures awaiting the next event
	finished  bool
	loopCount int
}

func New(pattern *Pattern, freqs FrequencySource, engine Engine, sampleRate int, opts Options) *Sequencer {
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	if opts.StepsPerBeat <= 0 {
		opts.StepsPerBeat = 4
	}
	if opts.Gate <= 0 || opts.Gate > 1 {
		opts.Gate = 0.9
	}
	stepFrames := float64(sampleRate) * 60 / (opts.BPM * float64(opts.StepsPerBeat))
	if stepFrames < 1 {
		stepFrames = 1
	}
	return &Sequencer{
		pattern:    pattern,
		freqs:      freqs,
		engine:     engine,
		opts:       opts,
		stepFrames: stepFrames,
		gateFrames: stepFrames * opts.Gate,
		step:       -1,
	}
}

// Process advances playback by len(dst)/2 frames and writes the engine's
// output as interleaved stereo.
func (s *Sequencer) Process(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		s.advance()
		l, r := s.engine.RenderFrame()
		dst[f*2] = l
		dst[f*2+1] = r
	}
}

func (s *Sequencer) advance() {
	if s.finished {
		return
	}
	if s.step < 0 || s.frame >= s.stepFrames {
		if s.step >= 0 {
			s.frame -= s.stepFrames
		}
		s.release()
		next := s.step + 1
		if next >= s.pattern.Steps() {
			s.loopCount++
			if !s.opts.Loop {
				s.finished = true
				s.emit(Event{Kind: EventPlaybackEnded, Err: s.takeStopErr()})
				return
			}
			s.emit(Event{Kind: EventLoopCompleted})
			next = 0
		}
		s.step = next
		s.begin()
	}
	if !s.gated && s.frame >= s.gateFrames {
		s.release()
		s.gated = true
	}
	s.frame++
}

func (s *Sequencer) begin() {
	s.gated = false
	freqs, err := s.freqs()
	if err != nil {
		s.emit(Event{Kind: EventStep, Step: s.step, Err: errors.Join(s.takeStopErr(), err)})
		return
	}
	var startErr error
	for _, row := range s.pattern.Column(s.step) {
		if row >= len(freqs) {
			continue
		}
		f := freqs[row]
		if err := s.engine.Start(f); err != nil {
			startErr = err
			continue
		}
		s.sounding = append(s.sounding, f)
	}
	s.emit(Event{Kind: EventStep, Step: s.step, Err: errors.Join(s.takeStopErr(), startErr)})
}

// release stops every sounding tone. Failures are kept for the next event.
func (s *Sequencer) release() {
	var errs []error
	for _, f := range s.sounding {
		if err := s.engine.Stop(f); err != nil {
			errs = append(errs, err)
		}
	}
	s.sounding = s.sounding[:0]
	s.stopErr = errors.Join(s.stopErr, errors.Join(errs...))
}

func (s *Sequencer) takeStopErr() error {
	err := s.stopErr
	s.stopErr = nil
	return err
}

func (s *Sequencer) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

// Stop releases any sounding tones and ends playback. It returns release
// failures not yet reported through an event.
func (s *Sequencer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
	s.finished = true
	return s.takeStopErr()
}

// Position returns the current step, or -1 before the first frame.
func (s *Sequencer) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Sequencer) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// StepFrames is the length of one step in frames.
func (s *Sequencer) StepFrames() float64 { return s.stepFrames }
