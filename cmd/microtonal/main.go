package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/microtonal-go"
	"github.com/cbegin/microtonal-go/internal/audio"
	"github.com/cbegin/microtonal-go/internal/cli"
	"github.com/cbegin/microtonal-go/internal/keyboard"
	"github.com/cbegin/microtonal-go/internal/midiin"
	"github.com/cbegin/microtonal-go/internal/sequencer"
)

const (
	windowW    = 1100
	windowH    = 720
	minWindowW = 900
	minWindowH = 600

	patternSteps = 16
)

type view int

const (
	viewKeyboard view = iota
	viewSequencer
)

type game struct {
	inst   *microtonal.Instrument
	logger *slog.Logger
	midi   *midiin.Input
	text   textCache

	view    view
	pattern *microtonal.Pattern
	seqOpts microtonal.SequenceOptions
	playing bool

	focused  bool
	mouseKey string // key held by the mouse, "" when none

	status    string
	statusErr bool

	viewW int
	viewH int
}

func newGame(inst *microtonal.Instrument, bpm float64, logger *slog.Logger) *game {
	g := &game{
		inst:    inst,
		logger:  logger,
		text:    make(textCache, 1024),
		seqOpts: microtonal.SequenceOptions{BPM: bpm, Loop: true},
		focused: true,
		viewW:   windowW,
		viewH:   windowH,
	}
	g.pattern = inst.NewStepPattern(patternSteps)
	g.setStatus("ready")
	return g
}

func (g *game) Update() error {
	g.handleFocus()
	if err := g.inst.Poll(); err != nil {
		g.setError(err.Error())
	}
	g.pollSequencer()
	g.handleControls()
	g.handleNoteKeys()
	g.handleMouse()
	return nil
}

// handleFocus releases everything when the window loses focus, since the
// key-up events will never arrive.
func (g *game) handleFocus() {
	focused := ebiten.IsFocused()
	if g.focused && !focused {
		if err := g.inst.ReleaseAll(); err != nil {
			g.setError(err.Error())
		}
		g.mouseKey = ""
	}
	g.focused = focused
}

func (g *game) pollSequencer() {
	events := g.inst.SequenceEvents()
	for {
		select {
		case ev := <-events:
			if ev.Err != nil {
				g.setError(fmt.Sprintf("step %d: %v", ev.Step, ev.Err))
				g.logger.Warn("sequencer step failed", "step", ev.Step, "err", ev.Err)
			}
			if ev.Kind == sequencer.EventPlaybackEnded {
				g.playing = false
			}
		default:
			return
		}
	}
}

func (g *game) handleControls() {
	cfg := g.inst.Config()
	changed := false
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		cfg.NumSteps++
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		cfg.NumSteps--
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		cfg.NumOctaves++
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		cfg.NumOctaves--
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		cfg.UseCustomCentValues = !cfg.UseCustomCentValues
		changed = true
	}
	if changed {
		g.applyConfig(cfg)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.toggleSequencer()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if g.view == viewKeyboard {
			g.view = viewSequencer
		} else {
			g.view = viewKeyboard
		}
	}
}

func (g *game) applyConfig(cfg microtonal.Config) {
	if err := g.inst.SetConfig(cfg); err != nil {
		g.setError(err.Error())
		return
	}
	// The grid has one row per step frequency.
	if g.pattern.Rows() != cfg.NumSteps+1 {
		g.pattern = g.inst.NewStepPattern(patternSteps)
		if g.playing {
			g.noteErr(g.inst.PlaySequence(g.pattern, g.seqOpts))
		}
	}
	g.logger.Debug("scale changed", "steps", cfg.NumSteps, "octaves", cfg.NumOctaves, "custom", cfg.UseCustomCentValues)
	g.setStatus(scaleSummary(cfg))
}

func (g *game) toggleSequencer() {
	if g.playing {
		g.playing = false
		g.setStatus("sequencer stopped")
		g.noteErr(g.inst.StopSequence())
		return
	}
	g.playing = true
	g.setStatus("sequencer playing")
	g.noteErr(g.inst.PlaySequence(g.pattern, g.seqOpts))
}

func (g *game) handleNoteKeys() {
	for key, id := range noteKeys {
		if inpututil.IsKeyJustPressed(key) {
			g.noteErr(g.inst.Down(id))
		}
		if inpututil.IsKeyJustReleased(key) {
			g.noteErr(g.inst.Up(id))
		}
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	if g.view == viewSequencer {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			if row, step, ok := g.gridLayout().cellAt(mx, my); ok {
				g.pattern.Toggle(row, step)
			}
		}
		return
	}
	keys := g.keyRects()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if id, ok := hitKey(keys, mx, my); ok {
			g.mouseKey = id
			g.noteErr(g.inst.Down(id))
		}
	}
	if g.mouseKey == "" {
		return
	}
	// Release on button up or when the pointer leaves the key.
	id, over := hitKey(keys, mx, my)
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) || !over || id != g.mouseKey {
		g.noteErr(g.inst.Up(g.mouseKey))
		g.mouseKey = ""
	}
}

func (g *game) noteErr(err error) {
	if err != nil {
		g.setError(err.Error())
		g.logger.Warn("tone output failed", "err", err)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	header := image.Rect(10, 10, g.viewW-10, 10+lineH+12)
	drawPanel(screen, header, panelColor)
	g.text.draw(screen, shortenEnd(scaleSummary(g.inst.Config()), (header.Dx()-16)/charW), header.Min.X+8, header.Min.Y+6)

	area := g.bodyRect()
	drawSunkenPanel(screen, area)
	if g.view == viewSequencer {
		g.drawSequencer(screen)
	} else {
		g.drawKeyboard(screen)
	}

	status := image.Rect(10, g.viewH-10-lineH-12, g.viewW-10, g.viewH-10)
	drawSunkenPanel(screen, status)
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	g.text.draw(screen, shortenEnd(msg, (status.Dx()-16)/charW), status.Min.X+8, status.Min.Y+6)
}

func (g *game) bodyRect() image.Rectangle {
	return image.Rect(10, 20+lineH+12, g.viewW-10, g.viewH-20-lineH-12)
}

func (g *game) keyRects() []keyRect {
	area := g.bodyRect().Inset(8)
	return keyRects(keyboard.KeyRows.Keys(), area.Min.X, area.Min.Y, area.Dx(), area.Dy())
}

func (g *game) drawKeyboard(screen *ebiten.Image) {
	for _, k := range g.keyRects() {
		label, ok := g.inst.KeyLabel(k.id)
		fill := panelColor
		switch {
		case ok && label.Active:
			fill = highlightColor
		case ok && label.Octave:
			fill = octaveColor
		}
		drawPanel(screen, k.rect, fill)
		x, y := k.rect.Min.X+6, k.rect.Min.Y+4
		g.text.draw(screen, k.id, x, y)
		if !ok {
			continue
		}
		g.text.draw(screen, fmt.Sprintf("%d", label.Note), x, y+lineH)
		g.text.draw(screen, fmt.Sprintf("%dc", label.Cents), x, y+2*lineH)
	}
}

func (g *game) gridLayout() gridLayout {
	return gridLayout{
		rect:  g.bodyRect().Inset(8),
		rows:  g.pattern.Rows(),
		steps: g.pattern.Steps(),
	}
}

func (g *game) drawSequencer(screen *ebiten.Image) {
	grid := g.gridLayout()
	pos := g.inst.SequencePosition()
	for step := 0; step < grid.steps; step++ {
		for row := 0; row < grid.rows; row++ {
			cell := grid.cellRect(row, step).Inset(1)
			switch {
			case g.pattern.On(row, step):
				fillRect(screen, cell, cellOnColor)
			case step == pos:
				fillRect(screen, cell, cursorColor)
			default:
				fillRect(screen, cell, sunkenBgColor)
			}
		}
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, minWindowW)
	g.viewH = max(outsideH, minWindowH)
	return g.viewW, g.viewH
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func scaleSummary(cfg microtonal.Config) string {
	mode := "equal"
	if cfg.UseCustomCentValues {
		mode = "custom"
	}
	selected := cfg.SelectedNotes.String()
	if selected == "" {
		selected = "all"
	}
	return fmt.Sprintf("%g Hz  %d steps / %d oct  %s  degrees: %s  [arrows, Tab, Space, F1]",
		cfg.MinFrequency, cfg.NumSteps, cfg.NumOctaves, mode, selected)
}

func main() {
	opts := cli.Register(flag.CommandLine)
	flag.Parse()
	logger := opts.Logger()
	slog.SetDefault(logger)

	cfg, err := opts.ScaleConfig()
	if err != nil {
		log.Fatal(err)
	}
	wave, err := opts.Waveform()
	if err != nil {
		log.Fatal(err)
	}
	layout := keyboard.Layouts{keyboard.KeyRows, keyboard.MIDILayout{BaseKey: opts.MIDIBase}}
	inst, err := microtonal.NewInstrument(opts.SampleRate,
		microtonal.WithGain(opts.Gain),
		microtonal.WithWaveform(wave),
		microtonal.WithLayout(layout),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := inst.SetConfig(cfg); err != nil {
		log.Fatal(err)
	}
	if err := inst.Open(audio.NewContext(opts.SampleRate)); err != nil {
		log.Fatal(err)
	}

	var midi *midiin.Input
	if pattern, ok := opts.MIDIPattern(); ok {
		midi, err = midiin.Open(pattern, logger)
		if err != nil {
			_ = inst.Close()
			log.Fatal(err)
		}
		inst.Attach(midi)
	}

	g := newGame(inst, opts.BPM, logger)
	g.midi = midi
	defer func() {
		if err := g.Close(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("microtonal")
	// Returning rather than exiting lets the deferred Close release notes
	// and the MIDI port.
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("run", "err", err)
	}
}

func (g *game) Close() error {
	err := g.inst.Close()
	if g.midi != nil {
		err = errors.Join(err, g.midi.Close())
	}
	return err
}
