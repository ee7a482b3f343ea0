package main

import (
	"github.com/spf13/cobra"

	"github.com/wblanchett/overtone"
	"github.com/wblanchett/overtone/engine"
	"github.com/wblanchett/overtone/oto"
	"github.com/wblanchett/overtone/web"
)

var (
	serveAddr       string
	serveSampleRate int
	serveSilent     bool
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "address to listen on")
	serveCmd.Flags().IntVar(&serveSampleRate, "samplerate", 44100, "sample rate in Hz")
	serveCmd.Flags().BoolVar(&serveSilent, "silent", false, "do not open the audio device")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve an instrument over a JSON HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engine.New(serveSampleRate)
		ins, err := overtone.NewInstrument(e, 220)
		if err != nil {
			return err
		}
		if !serveSilent {
			context, err := oto.NewContext(serveSampleRate)
			if err != nil {
				return err
			}
			defer context.Close()
			player := context.Play(e)
			defer player.Close()
		}
		return web.NewServer(ins).ListenAndServe(serveAddr)
	},
}
