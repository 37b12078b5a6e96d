// Package microtonal plays microtonal scales from a computer keyboard,
// MIDI keyboard or step sequencer.
package microtonal

import (
	"errors"
	"math"
	"sync"
	"time"

	intaudio "github.com/cbegin/microtonal-go/internal/audio"
	intkb "github.com/cbegin/microtonal-go/internal/keyboard"
	intscale "github.com/cbegin/microtonal-go/internal/scale"
	intseq "github.com/cbegin/microtonal-go/internal/sequencer"
	inttone "github.com/cbegin/microtonal-go/internal/tone"
)

type (
	Config   = intscale.Config
	NoteSet  = intscale.NoteSet
	Waveform = inttone.Waveform
	Pattern  = intseq.Pattern
	Event    = intkb.Event
	Source   = intkb.Source
	Layout   = intkb.Layout
)

const (
	WaveSine     = inttone.WaveSine
	WaveTriangle = inttone.WaveTriangle
	WaveSquare   = inttone.WaveSquare
	WaveSaw      = inttone.WaveSaw
)

// DefaultGain is the output level of a single held note.
const DefaultGain = 0.1

func DefaultConfig() Config { return intscale.DefaultConfig() }

type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	params     inttone.Params
	layout     intkb.Layout
	bufferSize time.Duration
}

func defaultInstrumentConfig() instrumentConfig {
	params := inttone.DefaultParams()
	params.MasterGain = DefaultGain
	return instrumentConfig{params: params, layout: intkb.KeyRows, bufferSize: 20 * time.Millisecond}
}

func WithGain(gain float64) InstrumentOption {
	return func(cfg *instrumentConfig) {
		cfg.params.MasterGain = gain
	}
}

func WithWaveform(wave Waveform) InstrumentOption {
	return func(cfg *instrumentConfig) {
		cfg.params.Wave = wave
	}
}

func WithVoices(n int) InstrumentOption {
	return func(cfg *instrumentConfig) {
		cfg.params.Voices = n
	}
}

// WithLayout replaces the computer keyboard row layout.
func WithLayout(layout Layout) InstrumentOption {
	return func(cfg *instrumentConfig) {
		cfg.layout = layout
	}
}

// WithBufferSize sets the audio device buffer length.
func WithBufferSize(d time.Duration) InstrumentOption {
	return func(cfg *instrumentConfig) {
		cfg.bufferSize = d
	}
}

// Instrument owns a scale config, a tone engine and the note controller
// that drives it. Sequences play on a second engine so that their stops
// never release a held key. Input methods (Down, Up, Poll, ReleaseAll) must
// be called from one goroutine; Config and SetConfig may be called from any.
type Instrument struct {
	cfgMu sync.RWMutex
	cfg   Config

	mu         sync.Mutex
	sampleRate int
	engine     *inttone.Engine
	seqEngine  *inttone.Engine
	controller *intkb.Controller
	layout     intkb.Layout
	bufferSize time.Duration
	audio      *intaudio.Player
	seq        *intseq.Sequencer
	seqEvents  chan intseq.Event

	mix []float32 // sequence scratch, used only by Process
}

func NewInstrument(sampleRate int, opts ...InstrumentOption) (*Instrument, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultInstrumentConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	in := &Instrument{
		cfg:        intscale.DefaultConfig(),
		sampleRate: sampleRate,
		engine:     inttone.New(sampleRate, cfg.params),
		seqEngine:  inttone.New(sampleRate, cfg.params),
		layout:     cfg.layout,
		bufferSize: cfg.bufferSize,
	}
	in.controller = intkb.NewController(in.engine, cfg.layout, in.Config)
	return in, nil
}

func (in *Instrument) Config() Config {
	in.cfgMu.RLock()
	defer in.cfgMu.RUnlock()
	return in.cfg
}

// SetConfig replaces the scale after validating it. The next event uses the
// new scale; held notes keep sounding until released.
func (in *Instrument) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	in.cfgMu.Lock()
	in.cfg = cfg
	in.cfgMu.Unlock()
	return nil
}

// Process renders the instrument and any playing sequence as interleaved
// stereo frames. The audio device calls it once Open has run.
func (in *Instrument) Process(dst []float32) {
	in.mu.Lock()
	seq := in.seq
	in.mu.Unlock()
	in.engine.Process(dst)
	if cap(in.mix) < len(dst) {
		in.mix = make([]float32, len(dst))
	}
	mix := in.mix[:len(dst)]
	if seq != nil {
		seq.Process(mix)
	} else {
		// Let released sequence tones finish their tails.
		in.seqEngine.Process(mix)
	}
	for i, v := range mix {
		dst[i] += v
	}
}

// Open starts streaming to the audio device.
func (in *Instrument) Open(ctx *intaudio.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.audio != nil {
		return nil
	}
	if ctx.SampleRate() != in.sampleRate {
		return errors.New("audio context sample rate does not match instrument")
	}
	pl, err := ctx.NewPlayer(in, in.bufferSize)
	if err != nil {
		return err
	}
	in.audio = pl
	in.audio.Play()
	return nil
}

// Close releases every note, detaches all sources and stops the device.
func (in *Instrument) Close() error {
	errs := []error{in.controller.Close(), in.StopSequence()}
	in.mu.Lock()
	a := in.audio
	in.audio = nil
	in.mu.Unlock()
	if a != nil {
		errs = append(errs, a.Stop())
	}
	return errors.Join(errs...)
}

func (in *Instrument) Down(id string) error { return in.controller.Down(id) }
func (in *Instrument) Up(id string) error   { return in.controller.Up(id) }
func (in *Instrument) ReleaseAll() error    { return in.controller.ReleaseAll() }
func (in *Instrument) IsActive(note int) bool {
	return in.controller.IsActive(note)
}
func (in *Instrument) ActiveNotes() []int { return in.controller.ActiveNotes() }

// Attach subscribes to an extra input source such as a MIDI port. Events are
// applied by Poll.
func (in *Instrument) Attach(src Source) { in.controller.Attach(src) }
func (in *Instrument) Poll() error       { return in.controller.Poll() }

func (in *Instrument) StepFrequencies() ([]float64, error) {
	return intscale.StepFrequencies(in.Config())
}

func (in *Instrument) SetMasterGain(gain float64) {
	in.engine.SetMasterGain(gain)
	in.seqEngine.SetMasterGain(gain)
}

func (in *Instrument) MasterGain() float64        { return in.engine.MasterGain() }

// KeyLabel describes what a key plays under the current scale.
type KeyLabel struct {
	ID     string
	Note   int
	Cents  int
	Octave bool
	Active bool
}

// KeyLabel resolves id for display. ok is false for unmapped keys or an
// invalid scale.
func (in *Instrument) KeyLabel(id string) (KeyLabel, bool) {
	offset, ok := in.layout.Offset(id)
	if !ok {
		return KeyLabel{}, false
	}
	cfg := in.Config()
	note, err := intscale.NoteFromOffset(cfg, offset)
	if err != nil {
		return KeyLabel{}, false
	}
	cents, err := intscale.CentsFromNote(cfg, note)
	if err != nil {
		return KeyLabel{}, false
	}
	return KeyLabel{
		ID:     id,
		Note:   note,
		Cents:  int(math.Round(cents)),
		Octave: intscale.IsOctaveNote(cfg, note),
		Active: in.controller.IsActive(note),
	}, true
}

type SequenceOptions = intseq.Options

func NewPattern(rows, steps int) *Pattern { return intseq.NewPattern(rows, steps) }

// NewStepPattern returns an empty pattern sized for the current scale, one
// row per step frequency.
func (in *Instrument) NewStepPattern(steps int) *Pattern {
	return intseq.NewPattern(in.Config().NumSteps+1, steps)
}

// PlaySequence replaces any playing sequence and returns release errors of
// the one it stopped. Events are delivered on the channel returned by
// SequenceEvents; when it is full, step events are dropped and loop or end
// events replace the oldest queued event.
func (in *Instrument) PlaySequence(pattern *Pattern, opts SequenceOptions) error {
	events := in.eventChan()
	user := opts.OnEvent
	opts.OnEvent = func(ev intseq.Event) {
		if user != nil {
			user(ev)
		}
		deliverEvent(events, ev)
	}
	seq := intseq.New(pattern, in.StepFrequencies, in.seqEngine, in.sampleRate, opts)
	// The old sequence shares seqEngine, so stop it before the new one can
	// start a tone at the same frequency.
	err := in.StopSequence()
	in.mu.Lock()
	in.seq = seq
	in.mu.Unlock()
	return err
}

// deliverEvent sends without blocking the audio goroutine, which is the only
// sender.
func deliverEvent(events chan intseq.Event, ev intseq.Event) {
	select {
	case events <- ev:
		return
	default:
	}
	if ev.Kind == intseq.EventStep {
		return
	}
	select {
	case <-events:
	default:
	}
	select {
	case events <- ev:
	default:
	}
}

// SequenceEvents returns the channel that receives sequencer events.
func (in *Instrument) SequenceEvents() <-chan intseq.Event { return in.eventChan() }

func (in *Instrument) eventChan() chan intseq.Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.seqEvents == nil {
		in.seqEvents = make(chan intseq.Event, 32)
	}
	return in.seqEvents
}

// StopSequence ends the playing sequence, if any.
func (in *Instrument) StopSequence() error {
	in.mu.Lock()
	seq := in.seq
	in.seq = nil
	in.mu.Unlock()
	if seq == nil {
		return nil
	}
	return seq.Stop()
}

// SequencePosition returns the current step of the playing sequence, or -1.
func (in *Instrument) SequencePosition() int {
	in.mu.Lock()
	seq := in.seq
	in.mu.Unlock()
	if seq == nil {
		return -1
	}
	return seq.Position()
}
