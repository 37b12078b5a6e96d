// Package tone is a small polyphonic oscillator bank addressed by frequency.
package tone

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

const twoPi = math.Pi * 2

// ErrInvalidFrequency is returned by Start for frequencies that cannot be
// rendered.
var ErrInvalidFrequency = errors.New("invalid tone frequency")

type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

// ParseWaveform accepts sine, triangle, square or saw.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "sine", "":
		return WaveSine, nil
	case "triangle":
		return WaveTriangle, nil
	case "square":
		return WaveSquare, nil
	case "saw", "sawtooth":
		return WaveSaw, nil
	default:
		return 0, fmt.Errorf("unknown waveform %q (expected sine|triangle|square|saw)", name)
	}
}

func (w Waveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "saw"
	default:
		return "sine"
	}
}

type Params struct {
	Voices     int
	MasterGain float64
	AttackSec  float64
	ReleaseSec float64
	Wave       Waveform
}

func DefaultParams() Params {
	return Params{
		Voices:     16,
		MasterGain: 0.1,
		AttackSec:  0.01,
		ReleaseSec: 0.08,
		Wave:       WaveSine,
	}
}

type envState int

const (
	envAttack envState = iota
	envSustain
	envRelease
	envOff
)

type voice struct {
	active   bool
	age      int
	freq     float64
	phase    float64
	env      float64
	envState envState
}

// Engine renders one sustained tone per started frequency. Start and Stop
// may be called from a different goroutine than RenderFrame.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	params     Params
	voices     []voice
	masterGain uint64
}

func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 16
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
}

// Start begins a tone at freq. When every voice is busy the oldest releasing
// voice, or failing that the oldest voice, is reused.
func (e *Engine) Start(freq float64) error {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, freq)
	}
	if freq >= e.sampleRate/2 {
		return fmt.Errorf("%w: %v Hz is above the %v Hz Nyquist limit", ErrInvalidFrequency, freq, e.sampleRate/2)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v := &e.voices[e.stealVoice()]
	v.active = true
	v.age = 0
	v.freq = freq
	v.phase = 0
	v.env = 0
	v.envState = envAttack
	return nil
}

// Stop releases every voice playing freq. Stopping a frequency that is not
// sounding does nothing.
func (e *Engine) Stop(freq float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.freq == freq && v.envState != envRelease {
			v.envState = envRelease
		}
	}
	return nil
}

// Reset silences all voices immediately.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.voices {
		e.voices[i] = voice{}
	}
}

func (e *Engine) RenderFrame() (float32, float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderFrameLocked()
}

// Process fills dst with interleaved stereo frames.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = e.renderFrameLocked()
	}
}

func (e *Engine) renderFrameLocked() (float32, float32) {
	var out float64
	gain := e.masterGainValue()
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		v.age++
		env := e.advanceEnv(v)
		if !v.active {
			continue
		}
		out += e.renderWave(v) * env * gain
	}
	s := float32(clamp(out, -1, 1))
	return s, s
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) renderWave(v *voice) float64 {
	dt := v.freq / e.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch e.params.Wave {
	case WaveTriangle:
		return 2*math.Abs(2*v.phase-1) - 1
	case WaveSquare:
		out := -1.0
		if v.phase < 0.5 {
			out = 1
		}
		out += polyBLEP(v.phase, dt)
		out -= polyBLEP(math.Mod(v.phase+0.5, 1), dt)
		return out
	case WaveSaw:
		return 2*v.phase - 1 - polyBLEP(v.phase, dt)
	default:
		return math.Sin(twoPi * v.phase)
	}
}

func (e *Engine) stealVoice() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	oldestRelease := -1
	oldestReleaseAge := -1
	oldestActive := 0
	oldestActiveAge := -1
	for i := range e.voices {
		v := &e.voices[i]
		if v.envState == envRelease && v.age > oldestReleaseAge {
			oldestRelease = i
			oldestReleaseAge = v.age
		}
		if v.age > oldestActiveAge {
			oldestActive = i
			oldestActiveAge = v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldestActive
}

func (e *Engine) advanceEnv(v *voice) float64 {
	switch v.envState {
	case envAttack:
		step := 1.0
		if e.params.AttackSec > 0 {
			step = 1.0 / (e.params.AttackSec * e.sampleRate)
		}
		v.env += step
		if v.env >= 1 {
			v.env = 1
			v.envState = envSustain
		}
	case envSustain:
	case envRelease:
		step := 1.0
		if e.params.ReleaseSec > 0 {
			step = 1.0 / (e.params.ReleaseSec * e.sampleRate)
		}
		v.env -= step
		if v.env <= 0.0001 {
			v.env = 0
			v.envState = envOff
			v.active = false
		}
	case envOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) MasterGain() float64 {
	return e.masterGainValue()
}

// ActiveVoiceCount returns the number of voices still sounding, including
// release tails.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// Sounding reports whether a voice at freq is started and not yet released.
func (e *Engine) Sounding(freq float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.freq == freq && v.envState != envRelease {
			return true
		}
	}
	return false
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}
