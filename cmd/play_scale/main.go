package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/cbegin/microtonal-go"
	"github.com/cbegin/microtonal-go/internal/audio"
	"github.com/cbegin/microtonal-go/internal/cli"
	"github.com/cbegin/microtonal-go/internal/sequencer"
)

// play_scale plays every step of the configured scale once, lowest first.
func main() {
	opts := cli.Register(flag.CommandLine)
	var (
		loop  = flag.Bool("loop", false, "loop playback; use with -loops to count then stop")
		loops = flag.Int("loops", 3, "when -loop, stop after N loops (0 = loop forever)")
	)
	flag.Parse()
	logger := opts.Logger()

	cfg, err := opts.ScaleConfig()
	if err != nil {
		log.Fatal(err)
	}
	wave, err := opts.Waveform()
	if err != nil {
		log.Fatal(err)
	}
	inst, err := microtonal.NewInstrument(opts.SampleRate, microtonal.WithGain(opts.Gain), microtonal.WithWaveform(wave))
	if err != nil {
		log.Fatal(err)
	}
	if err := inst.SetConfig(cfg); err != nil {
		log.Fatal(err)
	}
	freqs, err := inst.StepFrequencies()
	if err != nil {
		log.Fatal(err)
	}
	if err := inst.Open(audio.NewContext(opts.SampleRate)); err != nil {
		log.Fatal(err)
	}
	defer inst.Close()

	ch := inst.SequenceEvents()
	if err := inst.PlaySequence(sequencer.NewRun(len(freqs)), microtonal.SequenceOptions{BPM: opts.BPM, StepsPerBeat: 1, Loop: *loop}); err != nil {
		logger.Warn("stop previous sequence", "err", err)
	}
	loopCount := 0
	for event := range ch {
		switch event.Kind {
		case sequencer.EventPlaybackEnded:
			fmt.Println("playback completed")
			return
		case sequencer.EventLoopCompleted:
			loopCount++
			fmt.Printf("loop %d completed\n", loopCount)
			if *loop && *loops > 0 && loopCount >= *loops {
				return
			}
		case sequencer.EventStep:
			if event.Err != nil {
				logger.Warn("step failed", "step", event.Step, "err", event.Err)
				continue
			}
			fmt.Printf("step %d  %.2f Hz\n", event.Step, freqs[event.Step])
		}
	}
}
