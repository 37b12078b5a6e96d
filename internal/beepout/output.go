// Package beepout plays a tone engine through the beep speaker.
package beepout

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/cbegin/microtonal-go/internal/tone"
)

// Output implements keyboard.ToneOutput on top of a tone.Engine whose frames
// are pulled by the speaker.
type Output struct {
	mu          sync.Mutex
	engine      *tone.Engine
	volume      *effects.Volume
	sampleRate  beep.SampleRate
	initialized bool
}

func New(sampleRate int, params tone.Params) *Output {
	sr := beep.SampleRate(sampleRate)
	engine := tone.New(sampleRate, params)
	return &Output{
		engine:     engine,
		sampleRate: sr,
		volume: &effects.Volume{
			Streamer: Streamer(engine),
			Base:     2,
		},
	}
}

// Streamer adapts an engine to beep. The stream never drains.
func Streamer(e *tone.Engine) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			l, r := e.RenderFrame()
			samples[i][0] = float64(l)
			samples[i][1] = float64(r)
		}
		return len(samples), true
	})
}

// Open initialises the speaker with the given buffer length and starts
// streaming. Calling Open twice is a no-op.
func (o *Output) Open(buffer time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}
	if err := speaker.Init(o.sampleRate, o.sampleRate.N(buffer)); err != nil {
		return err
	}
	speaker.Play(o.volume)
	o.initialized = true
	return nil
}

func (o *Output) Start(freq float64) error { return o.engine.Start(freq) }
func (o *Output) Stop(freq float64) error  { return o.engine.Stop(freq) }

// SetVolume sets the output level in halvings/doublings; 0 is unity.
func (o *Output) SetVolume(v float64) {
	speaker.Lock()
	o.volume.Volume = v
	speaker.Unlock()
}

func (o *Output) Engine() *tone.Engine { return o.engine }

// Close silences the engine and shuts the speaker down.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.engine.Reset()
	if !o.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	o.initialized = false
}
