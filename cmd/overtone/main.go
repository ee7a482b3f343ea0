// Command overtone is an additive synthesis workbench: it plays harmonic
// instruments, serves them over a JSON HTTP API and analyzes their spectra.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wblanchett/overtone"
	"github.com/wblanchett/overtone/version"
)

var rootCmd = &cobra.Command{
	Use:     "overtone",
	Short:   "an additive synthesis instrument",
	Long:    `Overtone builds tones from a fundamental sine wave and its numbered partials.`,
	Version: version.String(),
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

// buildInstrument makes an instrument from the shared command line surface:
// an optional preset argument, overridden by --note or an explicit
// --frequency. Without a preset the instrument gets a mellow default stack
// so there is something to hear.
func buildInstrument(cmd *cobra.Command, e overtone.ToneEngine, args []string, note string, frequency float64) (*overtone.Instrument, error) {
	ins, err := overtone.NewInstrument(e, frequency)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		preset, ok := overtone.FindPreset(args[0])
		if !ok {
			return nil, fmt.Errorf("preset %q not found", args[0])
		}
		if err := preset.Apply(ins); err != nil {
			return nil, err
		}
	} else {
		for degree := 2; degree <= 6; degree++ {
			if err := ins.AddPartial(degree, overtone.WithAmplitude(0.5/float64(degree))); err != nil {
				return nil, err
			}
		}
	}
	switch {
	case note != "":
		if err := ins.SetPitch(note); err != nil {
			return nil, err
		}
	case cmd.Flags().Changed("frequency"):
		ins.SetFundamentalFrequency(frequency)
	}
	return ins, nil
}
