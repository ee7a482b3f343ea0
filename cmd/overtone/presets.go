package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wblanchett/overtone"
)

func init() {
	rootCmd.AddCommand(presetsCmd)
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "list the preset library",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, preset := range overtone.LoadPresets() {
			pitch := preset.Note
			if pitch == "" {
				pitch = fmt.Sprintf("%g Hz", preset.Fundamental)
			}
			fmt.Printf("%-16s %10s  %d partials\n", preset.Name, pitch, len(preset.Partials))
		}
	},
}
