// Package engine implements a software tone engine: a bank of sine
// generators mixed into an interleaved stereo stream.
package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"
	"github.com/wblanchett/overtone"
)

const stereoChannels = 2

type (
	// Engine implements overtone.ToneEngine by synthesizing every generator
	// it hands out into a stereo bus, and overtone.AudioSource so the mix can
	// be pulled by an audio backend or rendered offline.
	//
	// The engine serializes access internally, so generator handles may be
	// used from one goroutine while another calls ReadAudio.
	Engine struct {
		mu         sync.Mutex
		sampleRate int
		output     *Output
		gens       []*toneGen

		left, right, scratch []float32
	}

	// Output is the stereo bus that generators connect to.
	Output struct {
		channels int
	}

	toneGen struct {
		engine   *Engine
		freq     float64
		amp      float64
		phase    float64 // phase offset in cycles
		acc      float64 // accumulated position in cycles, kept in 0..1
		playing  bool
		released bool
		chans    [stereoChannels]bool
	}
)

// New returns an engine producing interleaved stereo at the given sample
// rate.
func New(sampleRate int) *Engine {
	return &Engine{
		sampleRate: sampleRate,
		output:     &Output{channels: stereoChannels},
	}
}

func (e *Engine) SampleRate() int { return e.sampleRate }

func (e *Engine) NewToneGenerator() overtone.ToneGenerator {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := &toneGen{engine: e}
	e.gens = append(e.gens, g)
	return g
}

func (e *Engine) Output() overtone.OutputSink { return e.output }

// ChannelCount returns the number of channels of the bus, always 2.
func (o *Output) ChannelCount() int { return o.channels }

// Connect routes a generator to one channel of the output bus. Connecting
// the same pair twice is a no-op.
func (e *Engine) Connect(g overtone.ToneGenerator, sink overtone.OutputSink, channel int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tg, ok := g.(*toneGen)
	if !ok || tg.engine != e {
		return errors.New("generator does not belong to this engine")
	}
	if tg.released {
		return errors.New("generator has been released")
	}
	if sink != e.output {
		return errors.New("sink does not belong to this engine")
	}
	if channel < 0 || channel >= e.output.channels {
		return fmt.Errorf("channel %d out of range", channel)
	}
	tg.chans[channel] = true
	return nil
}

// Release detaches a generator from the engine for good. Further calls on
// the handle are no-ops and it no longer contributes to the mix.
func (e *Engine) Release(g overtone.ToneGenerator) {
	tg, ok := g.(*toneGen)
	if !ok || tg.engine != e {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if tg.released {
		return
	}
	tg.released = true
	tg.playing = false
	if i := slices.Index(e.gens, tg); i >= 0 {
		e.gens = slices.Delete(e.gens, i, i+1)
	}
}

// ReadAudio renders the current mix into buf as interleaved stereo float
// samples. It always fills buf up to an even length and never returns an
// error: a silent engine produces zeros rather than ending the stream.
func (e *Engine) ReadAudio(buf []float32) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(buf) - len(buf)%stereoChannels
	frames := n / stereoChannels
	if len(e.left) < frames {
		e.left = append(e.left, make([]float32, frames-len(e.left))...)
		e.right = append(e.right, make([]float32, frames-len(e.right))...)
		e.scratch = append(e.scratch, make([]float32, frames-len(e.scratch))...)
	}
	left := vek32.Zeros_Into(e.left, frames)
	right := vek32.Zeros_Into(e.right, frames)
	scratch := e.scratch[:frames]
	for _, g := range e.gens {
		if !g.playing || (!g.chans[0] && !g.chans[1]) {
			continue
		}
		g.render(scratch)
		if g.chans[0] {
			vek32.Add_Inplace(left, scratch)
		}
		if g.chans[1] {
			vek32.Add_Inplace(right, scratch)
		}
	}
	for i := 0; i < frames; i++ {
		buf[stereoChannels*i] = left[i]
		buf[stereoChannels*i+1] = right[i]
	}
	return n, nil
}

// render fills buf with one channel worth of samples, advancing the phase
// accumulator.
func (g *toneGen) render(buf []float32) {
	omega := g.freq / float64(g.engine.sampleRate)
	for i := range buf {
		buf[i] = math32.Sin(2 * math32.Pi * float32(g.acc+g.phase))
		g.acc += omega
		g.acc -= float64(int(g.acc)) // keep the accumulator in 0..1
	}
	vek32.MulNumber_Inplace(buf, float32(g.amp))
}

func (g *toneGen) SetFrequency(hz float64) {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	if g.released {
		return
	}
	g.freq = hz
}

func (g *toneGen) SetAmplitude(amplitude float64) {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	if g.released {
		return
	}
	g.amp = amplitude
}

func (g *toneGen) SetPhase(phase float64) {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	if g.released {
		return
	}
	g.phase = phase
}

// Start configures the generator and begins a fresh cycle. A generator that
// is already playing keeps playing with the new settings.
func (g *toneGen) Start(hz, amplitude float64) {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	if g.released {
		return
	}
	g.freq = hz
	g.amp = amplitude
	g.acc = 0
	g.playing = true
}

func (g *toneGen) Stop() {
	g.engine.mu.Lock()
	defer g.engine.mu.Unlock()
	g.playing = false
}
