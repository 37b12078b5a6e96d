// Package cli holds the command line options shared by the microtonal
// commands.
package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cbegin/microtonal-go/internal/scale"
	"github.com/cbegin/microtonal-go/internal/tone"
)

type Options struct {
	SampleRate int
	MinFreq    float64
	Steps      int
	Octaves    int
	Cents      string
	Custom     bool
	Selected   string
	Gain       float64
	Wave       string
	MIDI       string
	MIDIBase   int
	BPM        float64
	Debug      bool
}

// Register binds the options to fs with the default scale as defaults.
func Register(fs *flag.FlagSet) *Options {
	def := scale.DefaultConfig()
	o := &Options{}
	fs.IntVar(&o.SampleRate, "sample-rate", 48000, "output sample rate")
	fs.Float64Var(&o.MinFreq, "min-freq", def.MinFrequency, "frequency of note 0 in Hz")
	fs.IntVar(&o.Steps, "steps", def.NumSteps, "equal divisions per octave span")
	fs.IntVar(&o.Octaves, "octaves", def.NumOctaves, "octaves spanned by -steps divisions")
	fs.StringVar(&o.Cents, "cents", "", "custom cents table, comma separated (used with -custom)")
	fs.BoolVar(&o.Custom, "custom", false, "tune from the -cents table instead of equal divisions")
	fs.StringVar(&o.Selected, "selected", "", "scale degrees mapped to keys, comma separated (empty = all)")
	fs.Float64Var(&o.Gain, "gain", 0.1, "master gain")
	fs.StringVar(&o.Wave, "wave", "sine", "waveform: sine|triangle|square|saw")
	fs.StringVar(&o.MIDI, "midi", "", "MIDI input port name filter; \"auto\" picks the first port")
	fs.IntVar(&o.MIDIBase, "midi-base", 60, "MIDI key that plays offset 0")
	fs.Float64Var(&o.BPM, "bpm", 120, "sequencer tempo")
	fs.BoolVar(&o.Debug, "debug", false, "enable debug logging")
	return o
}

// ScaleConfig builds and validates the scale described by the options.
func (o *Options) ScaleConfig() (scale.Config, error) {
	cfg := scale.DefaultConfig()
	cfg.MinFrequency = o.MinFreq
	cfg.NumSteps = o.Steps
	cfg.NumOctaves = o.Octaves
	cfg.UseCustomCentValues = o.Custom
	if strings.TrimSpace(o.Cents) != "" {
		cents, err := scale.ParseCents(o.Cents)
		if err != nil {
			return scale.Config{}, fmt.Errorf("-cents: %w", err)
		}
		cfg.CustomCentValues = cents
	}
	selected, err := scale.ParseNoteSet(o.Selected)
	if err != nil {
		return scale.Config{}, fmt.Errorf("-selected: %w", err)
	}
	cfg.SelectedNotes = selected
	if err := cfg.Validate(); err != nil {
		return scale.Config{}, err
	}
	return cfg, nil
}

// Waveform parses -wave.
func (o *Options) Waveform() (tone.Waveform, error) {
	w, err := tone.ParseWaveform(o.Wave)
	if err != nil {
		return 0, fmt.Errorf("-wave: %w", err)
	}
	return w, nil
}

// MIDIPattern returns the port filter for midiin.Open and whether MIDI
// input was requested at all.
func (o *Options) MIDIPattern() (string, bool) {
	switch strings.TrimSpace(o.MIDI) {
	case "":
		return "", false
	case "auto":
		return "", true
	default:
		return o.MIDI, true
	}
}

// Logger returns a text logger on stderr, at debug level with -debug.
func (o *Options) Logger() *slog.Logger {
	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
