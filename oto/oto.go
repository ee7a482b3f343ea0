// Package oto plays an overtone audio source through the system audio
// device using the oto library.
package oto

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
	"github.com/wblanchett/overtone"
)

// OtoContext wraps an oto context into an overtone.AudioContext.
type OtoContext struct {
	context *oto.Context
}

// NewContext opens the system audio device for interleaved stereo output at
// the given sample rate and blocks until the device is ready.
func NewContext(sampleRate int) (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

// Play starts pulling samples from the source until the returned player is
// closed.
func (c *OtoContext) Play(source overtone.AudioSource) overtone.AudioPlayer {
	player := c.context.NewPlayer(&sourceReader{source: source})
	player.Play()
	return &OtoPlayer{player: player}
}

// Close suspends the underlying context. Oto contexts cannot be destroyed,
// so the audio device stays reserved until the process exits.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot close oto context: %w", err)
	}
	return nil
}

// OtoPlayer is a single playback stream of an OtoContext.
type OtoPlayer struct {
	player *oto.Player
}

// Close stops the playback stream and disposes of its resources.
func (p *OtoPlayer) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// sourceReader adapts an overtone.AudioSource into the io.Reader that the
// oto player pulls 16-bit little-endian samples from. The float buffer is
// reused between reads.
type sourceReader struct {
	source overtone.AudioSource
	buffer []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	samples := len(p) / 2
	if cap(r.buffer) < samples {
		r.buffer = make([]float32, samples)
	}
	n, err := r.source.ReadAudio(r.buffer[:samples])
	if err != nil {
		return 0, fmt.Errorf("cannot read audio source: %w", err)
	}
	FloatBufferTo16BitLE(r.buffer[:n], p)
	return n * 2, nil
}
