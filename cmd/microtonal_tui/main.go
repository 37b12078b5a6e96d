package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cbegin/microtonal-go/internal/beepout"
	"github.com/cbegin/microtonal-go/internal/cli"
	"github.com/cbegin/microtonal-go/internal/keyboard"
	"github.com/cbegin/microtonal-go/internal/midiin"
	"github.com/cbegin/microtonal-go/internal/scale"
	"github.com/cbegin/microtonal-go/internal/tone"
)

const (
	cellW   = 7
	cellH   = 3
	originX = 2
	originY = 3
)

type app struct {
	screen     tcell.Screen
	out        *beepout.Output
	controller *keyboard.Controller
	midi       *midiin.Input
	logger     *slog.Logger
	cfg        scale.Config
	holds      *holdTracker
	volume     float64

	mouseKey string
	status   string
}

func newApp(screen tcell.Screen, out *beepout.Output, cfg scale.Config, layout keyboard.Layout, logger *slog.Logger) *app {
	a := &app{
		screen: screen,
		out:    out,
		logger: logger,
		cfg:    cfg,
		holds:  newHoldTracker(),
		status: "Esc quits  arrows: steps/octaves  Tab: custom cents  PgUp/PgDn: volume",
	}
	a.controller = keyboard.NewController(out, layout, func() scale.Config { return a.cfg })
	return a
}

func (a *app) run() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	a.draw()
	for {
		select {
		case ev := <-eventChan:
			if !a.handleEvent(ev, time.Now()) {
				return
			}
		case now := <-ticker.C:
			for _, id := range a.holds.expired(now) {
				a.noteErr(a.controller.Up(id))
			}
			a.noteErr(a.controller.Poll())
			a.draw()
		}
	}
}

func (a *app) handleEvent(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev, now)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventFocus:
		if !ev.Focused {
			a.releaseAll()
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *app) handleKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		a.adjust(func(c *scale.Config) { c.NumSteps++ })
	case tcell.KeyDown:
		a.adjust(func(c *scale.Config) { c.NumSteps-- })
	case tcell.KeyRight:
		a.adjust(func(c *scale.Config) { c.NumOctaves++ })
	case tcell.KeyLeft:
		a.adjust(func(c *scale.Config) { c.NumOctaves-- })
	case tcell.KeyTab:
		a.adjust(func(c *scale.Config) { c.UseCustomCentValues = !c.UseCustomCentValues })
	case tcell.KeyPgUp:
		a.setVolume(a.volume + 0.5)
	case tcell.KeyPgDn:
		a.setVolume(a.volume - 0.5)
	case tcell.KeyRune:
		id := string(ev.Rune())
		if _, ok := keyboard.KeyRows.Offset(id); !ok {
			return true
		}
		if a.holds.press(id, now) {
			a.noteErr(a.controller.Down(id))
		}
	}
	return true
}

// adjust applies a scale edit, keeping the old scale if the result is invalid.
func (a *app) adjust(edit func(*scale.Config)) {
	next := a.cfg
	edit(&next)
	if err := next.Validate(); err != nil {
		a.status = err.Error()
		return
	}
	a.cfg = next
	a.logger.Debug("scale changed", "steps", next.NumSteps, "octaves", next.NumOctaves, "custom", next.UseCustomCentValues)
}

func (a *app) setVolume(v float64) {
	a.volume = math.Max(-6, math.Min(2, v))
	a.out.SetVolume(a.volume)
}

func (a *app) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	id, over := keyAt(x, y)
	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && a.mouseKey == "" && over:
		a.mouseKey = id
		a.noteErr(a.controller.Down(id))
	case a.mouseKey != "" && (!pressed || !over || id != a.mouseKey):
		a.noteErr(a.controller.Up(a.mouseKey))
		a.mouseKey = ""
	}
}

func (a *app) releaseAll() {
	a.holds.clear()
	a.mouseKey = ""
	a.noteErr(a.controller.ReleaseAll())
}

func (a *app) noteErr(err error) {
	if err != nil {
		a.status = err.Error()
		a.logger.Warn("tone output failed", "err", err)
	}
}

// keyAt maps a screen cell to a key of the on-screen keyboard.
func keyAt(x, y int) (string, bool) {
	rows := keyboard.KeyRows.Keys()
	for i, row := range rows {
		top := originY + (len(rows)-1-i)*cellH
		if y < top || y >= top+cellH {
			continue
		}
		left := originX + (len(rows)-1-i)*2
		if x < left {
			return "", false
		}
		j := (x - left) / cellW
		if j < len(row) {
			return row[j], true
		}
		return "", false
	}
	return "", false
}

func (a *app) draw() {
	a.screen.Clear()
	mode := "equal"
	if a.cfg.UseCustomCentValues {
		mode = "custom"
	}
	header := fmt.Sprintf("%g Hz  %d steps / %d oct  %s  vol %+.1f", a.cfg.MinFrequency, a.cfg.NumSteps, a.cfg.NumOctaves, mode, a.volume)
	if a.midi != nil {
		header += "  midi: " + a.midi.Name()
	}
	a.text(0, 0, header, tcell.StyleDefault.Bold(true))

	rows := keyboard.KeyRows.Keys()
	for i, row := range rows {
		top := originY + (len(rows)-1-i)*cellH
		left := originX + (len(rows)-1-i)*2
		for j, id := range row {
			a.drawKey(left+j*cellW, top, id)
		}
	}
	a.text(0, originY+len(rows)*cellH+1, a.status, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	a.screen.Show()
}

func (a *app) drawKey(x, y int, id string) {
	style := tcell.StyleDefault
	offset, _ := keyboard.KeyRows.Offset(id)
	note, err := scale.NoteFromOffset(a.cfg, offset)
	if err != nil {
		a.text(x, y, id, style)
		return
	}
	cents, _ := scale.CentsFromNote(a.cfg, note)
	switch {
	case a.controller.IsActive(note):
		style = style.Reverse(true).Foreground(tcell.ColorGreen)
	case scale.IsOctaveNote(a.cfg, note):
		style = style.Foreground(tcell.ColorBlue)
	}
	a.text(x, y, fmt.Sprintf("%-6s", id), style)
	a.text(x, y+1, fmt.Sprintf("%-6d", note), style)
	a.text(x, y+2, fmt.Sprintf("%-6s", fmt.Sprintf("%dc", int(math.Round(cents)))), style)
}

func (a *app) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (a *app) close() error {
	err := a.controller.Close()
	if a.midi != nil {
		err = errors.Join(err, a.midi.Close())
	}
	a.out.Close()
	a.screen.Fini()
	return err
}

func main() {
	opts := cli.Register(flag.CommandLine)
	flag.Parse()
	// The terminal is owned by tcell, so logs go to stderr only with -debug.
	logger := slog.New(slog.DiscardHandler)
	if opts.Debug {
		logger = opts.Logger()
	}
	slog.SetDefault(logger)

	cfg, err := opts.ScaleConfig()
	if err != nil {
		log.Fatal(err)
	}
	wave, err := opts.Waveform()
	if err != nil {
		log.Fatal(err)
	}
	params := tone.DefaultParams()
	params.MasterGain = opts.Gain
	params.Wave = wave
	out := beepout.New(opts.SampleRate, params)
	if err := out.Open(50 * time.Millisecond); err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	screen.EnableMouse()
	screen.EnableFocus()

	layout := keyboard.Layouts{keyboard.KeyRows, keyboard.MIDILayout{BaseKey: opts.MIDIBase}}
	a := newApp(screen, out, cfg, layout, logger)
	if pattern, ok := opts.MIDIPattern(); ok {
		a.midi, err = midiin.Open(pattern, logger)
		if err != nil {
			screen.Fini()
			log.Fatal(err)
		}
		a.controller.Attach(a.midi)
	}

	a.run()
	if err := a.close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
