// Package audio plays a sample source through ebiten's audio device.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills dst with interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	closed bool
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Context is the handle to the audio device. ebiten allows a single context
// per process, so create one at startup and pass it to every player.
type Context struct {
	ctx        *ebitaudio.Context
	sampleRate int
}

// NewContext opens the audio device. It must be called at most once.
func NewContext(sampleRate int) *Context {
	return &Context{ctx: ebitaudio.NewContext(sampleRate), sampleRate: sampleRate}
}

func (c *Context) SampleRate() int { return c.sampleRate }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// NewPlayer streams source through the device. bufferSize trades latency
// for robustness; zero keeps ebiten's default.
func (c *Context) NewPlayer(source SampleSource, bufferSize time.Duration) (*Player, error) {
	reader := NewStreamReader(source)
	pl, err := c.ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	if bufferSize > 0 {
		pl.SetBufferSize(bufferSize)
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
