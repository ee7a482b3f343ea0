package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wblanchett/overtone/engine"
	"github.com/wblanchett/overtone/oto"
)

var (
	playNote       string
	playFrequency  float64
	playDuration   time.Duration
	playSampleRate int
)

func init() {
	playCmd.Flags().StringVarP(&playNote, "note", "n", "", "note name for the fundamental, e.g. A4 or c#3")
	playCmd.Flags().Float64VarP(&playFrequency, "frequency", "f", 220, "fundamental frequency in Hz")
	playCmd.Flags().DurationVarP(&playDuration, "duration", "d", 2*time.Second, "how long to play")
	playCmd.Flags().IntVar(&playSampleRate, "samplerate", 44100, "sample rate in Hz")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [preset]",
	Short: "play a preset or a plain harmonic stack",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engine.New(playSampleRate)
		ins, err := buildInstrument(cmd, e, args, playNote, playFrequency)
		if err != nil {
			return err
		}
		fmt.Println(ins.Describe())
		context, err := oto.NewContext(playSampleRate)
		if err != nil {
			return err
		}
		defer context.Close()
		player := context.Play(e)
		defer player.Close()
		ins.Play()
		time.Sleep(playDuration)
		ins.Stop()
		return nil
	},
}
