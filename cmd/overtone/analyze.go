package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wblanchett/overtone/engine"
	"github.com/wblanchett/overtone/spectrum"
)

var (
	analyzeNote       string
	analyzeFrequency  float64
	analyzeTop        int
	analyzeSize       int
	analyzeSampleRate int
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeNote, "note", "n", "", "note name for the fundamental, e.g. A4 or c#3")
	analyzeCmd.Flags().Float64VarP(&analyzeFrequency, "frequency", "f", 220, "fundamental frequency in Hz")
	analyzeCmd.Flags().IntVarP(&analyzeTop, "top", "t", 8, "number of peaks to report")
	analyzeCmd.Flags().IntVar(&analyzeSize, "fft", 8192, "FFT size in frames, a power of two")
	analyzeCmd.Flags().IntVar(&analyzeSampleRate, "samplerate", 44100, "sample rate in Hz")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [preset]",
	Short: "render a preset offline and report its spectral peaks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engine.New(analyzeSampleRate)
		ins, err := buildInstrument(cmd, e, args, analyzeNote, analyzeFrequency)
		if err != nil {
			return err
		}
		analyzer, err := spectrum.NewAnalyzer(analyzeSize, analyzeSampleRate)
		if err != nil {
			return err
		}
		ins.Play()
		buf := make([]float32, analyzeSize*2)
		if _, err := e.ReadAudio(buf); err != nil {
			return err
		}
		peaks, err := analyzer.Peaks(buf, 0, analyzeTop)
		if err != nil {
			return err
		}
		fmt.Println(ins.Describe())
		for _, peak := range peaks {
			fmt.Printf("%9.2f Hz  %7.2f dB\n", peak.Frequency, peak.Level)
		}
		return nil
	},
}
