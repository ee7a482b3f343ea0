package engine_test

import (
	"math"
	"testing"

	"github.com/wblanchett/overtone"
	"github.com/wblanchett/overtone/engine"
)

const sampleRate = 44100

// tonePower measures the amplitude of a single frequency in one channel of
// an interleaved stereo buffer with a one-bin Fourier probe. It is exact for
// integer frequencies over a whole second of audio.
func tonePower(buf []float32, channel int, freq float64) float64 {
	var re, im float64
	n := 0
	for i := channel; i < len(buf); i += 2 {
		t := float64(n) / sampleRate
		s := float64(buf[i])
		re += s * math.Cos(2*math.Pi*freq*t)
		im += s * math.Sin(2*math.Pi*freq*t)
		n++
	}
	return 2 * math.Hypot(re, im) / float64(n)
}

func render(t *testing.T, src overtone.AudioSource, frames int) []float32 {
	t.Helper()
	buf := make([]float32, frames*2)
	n, err := src.ReadAudio(buf)
	if err != nil {
		t.Fatalf("ReadAudio returned error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("ReadAudio filled %d floats, expected %d", n, len(buf))
	}
	return buf
}

func maxAbs(buf []float32) float64 {
	var m float64
	for _, v := range buf {
		if a := math.Abs(float64(v)); a > m {
			m = a
		}
	}
	return m
}

func connectStereo(t *testing.T, e *engine.Engine, g overtone.ToneGenerator) {
	t.Helper()
	for channel := 0; channel < 2; channel++ {
		if err := e.Connect(g, e.Output(), channel); err != nil {
			t.Fatalf("Connect(channel %d) returned error: %v", channel, err)
		}
	}
}

func TestEngineRendersSine(t *testing.T) {
	e := engine.New(sampleRate)
	g := e.NewToneGenerator()
	connectStereo(t, e, g)
	g.Start(440, 0.5)
	buf := render(t, e, sampleRate)
	for channel := 0; channel < 2; channel++ {
		if got := tonePower(buf, channel, 440); math.Abs(got-0.5) > 1e-3 {
			t.Errorf("channel %d: amplitude at 440 Hz = %v, expected 0.5", channel, got)
		}
		if got := tonePower(buf, channel, 660); got > 1e-3 {
			t.Errorf("channel %d: amplitude at 660 Hz = %v, expected silence", channel, got)
		}
	}
}

func TestEngineChannelRouting(t *testing.T) {
	e := engine.New(sampleRate)
	g := e.NewToneGenerator()
	if err := e.Connect(g, e.Output(), 1); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	g.Start(440, 0.5)
	buf := render(t, e, sampleRate)
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != 0 {
			t.Fatalf("left sample %d = %v, expected unconnected channel to stay silent", i/2, buf[i])
		}
	}
	if got := tonePower(buf, 1, 440); math.Abs(got-0.5) > 1e-3 {
		t.Errorf("right channel amplitude at 440 Hz = %v, expected 0.5", got)
	}
}

func TestEngineMixesGenerators(t *testing.T) {
	e := engine.New(sampleRate)
	g1 := e.NewToneGenerator()
	g2 := e.NewToneGenerator()
	connectStereo(t, e, g1)
	connectStereo(t, e, g2)
	g1.Start(440, 0.3)
	g2.Start(660, 0.2)
	buf := render(t, e, sampleRate)
	if got := tonePower(buf, 0, 440); math.Abs(got-0.3) > 1e-3 {
		t.Errorf("amplitude at 440 Hz = %v, expected 0.3", got)
	}
	if got := tonePower(buf, 0, 660); math.Abs(got-0.2) > 1e-3 {
		t.Errorf("amplitude at 660 Hz = %v, expected 0.2", got)
	}
}

func TestEnginePhaseOffsetCancellation(t *testing.T) {
	e := engine.New(sampleRate)
	g1 := e.NewToneGenerator()
	g2 := e.NewToneGenerator()
	connectStereo(t, e, g1)
	connectStereo(t, e, g2)
	g2.SetPhase(0.5) // half a cycle out of phase, so the two tones cancel
	g1.Start(440, 0.4)
	g2.Start(440, 0.4)
	buf := render(t, e, sampleRate)
	if got := maxAbs(buf); got > 1e-3 {
		t.Errorf("peak of opposing generators = %v, expected cancellation", got)
	}
}

func TestEngineStopSilences(t *testing.T) {
	e := engine.New(sampleRate)
	g := e.NewToneGenerator()
	connectStereo(t, e, g)
	g.Start(440, 0.5)
	render(t, e, sampleRate/10)
	g.Stop()
	buf := render(t, e, sampleRate/10)
	if got := maxAbs(buf); got != 0 {
		t.Errorf("peak after Stop = %v, expected exact silence", got)
	}
}

func TestEngineReleasedGeneratorIsInert(t *testing.T) {
	e := engine.New(sampleRate)
	g := e.NewToneGenerator()
	connectStereo(t, e, g)
	g.Start(440, 0.5)
	e.Release(g)
	g.Start(440, 0.5) // must be a no-op on a released handle
	g.SetAmplitude(1)
	buf := render(t, e, sampleRate/10)
	if got := maxAbs(buf); got != 0 {
		t.Errorf("peak after Release = %v, expected exact silence", got)
	}
	if err := e.Connect(g, e.Output(), 0); err == nil {
		t.Errorf("Connect accepted a released generator")
	}
}

func TestEngineConnectValidation(t *testing.T) {
	e := engine.New(sampleRate)
	other := engine.New(sampleRate)
	g := e.NewToneGenerator()
	if err := e.Connect(g, e.Output(), -1); err == nil {
		t.Errorf("Connect accepted channel -1")
	}
	if err := e.Connect(g, e.Output(), 2); err == nil {
		t.Errorf("Connect accepted channel 2")
	}
	if err := e.Connect(g, other.Output(), 0); err == nil {
		t.Errorf("Connect accepted a foreign sink")
	}
	if err := other.Connect(g, other.Output(), 0); err == nil {
		t.Errorf("foreign engine accepted the generator")
	}
	if err := e.Connect(g, e.Output(), 0); err != nil {
		t.Errorf("Connect returned error for a valid routing: %v", err)
	}
}

func TestEngineReadAudioOddLength(t *testing.T) {
	e := engine.New(sampleRate)
	buf := make([]float32, 7)
	buf[6] = 42
	n, err := e.ReadAudio(buf)
	if err != nil {
		t.Fatalf("ReadAudio returned error: %v", err)
	}
	if n != 6 {
		t.Errorf("ReadAudio filled %d floats, expected 6", n)
	}
	if buf[6] != 42 {
		t.Errorf("ReadAudio touched the float beyond the last whole frame")
	}
}

// TestInstrumentThroughEngine drives a real Instrument through the engine
// and checks the rendered audio: a 200 Hz fundamental with a second partial
// detuned by +5 Hz sounds at 405 Hz, and rebasing the fundamental to 300 Hz
// moves the partial to 605 Hz without touching its amplitude.
func TestInstrumentThroughEngine(t *testing.T) {
	e := engine.New(sampleRate)
	ins, err := overtone.NewInstrument(e, 200)
	if err != nil {
		t.Fatalf("NewInstrument returned error: %v", err)
	}
	if err := ins.AddPartial(2, overtone.WithDetune(5), overtone.WithAmplitude(0.5)); err != nil {
		t.Fatalf("AddPartial returned error: %v", err)
	}
	if buf := render(t, e, sampleRate/10); maxAbs(buf) != 0 {
		t.Fatalf("instrument sounded before Play")
	}

	ins.Play()
	buf := render(t, e, sampleRate)
	if got := tonePower(buf, 0, 200); math.Abs(got-0.9) > 1e-3 {
		t.Errorf("fundamental amplitude at 200 Hz = %v, expected 0.9", got)
	}
	if got := tonePower(buf, 0, 405); math.Abs(got-0.5) > 1e-3 {
		t.Errorf("partial amplitude at 405 Hz = %v, expected 0.5", got)
	}

	ins.SetFundamentalFrequency(300)
	buf = render(t, e, sampleRate)
	if got := tonePower(buf, 0, 300); math.Abs(got-0.9) > 1e-3 {
		t.Errorf("fundamental amplitude at 300 Hz = %v, expected 0.9", got)
	}
	if got := tonePower(buf, 0, 605); math.Abs(got-0.5) > 1e-3 {
		t.Errorf("partial amplitude at 605 Hz = %v, expected 0.5", got)
	}
	if got := tonePower(buf, 0, 405); got > 1e-3 {
		t.Errorf("amplitude at 405 Hz = %v, expected the partial to move away", got)
	}

	if err := ins.RemovePartial(2); err != nil {
		t.Fatalf("RemovePartial returned error: %v", err)
	}
	buf = render(t, e, sampleRate)
	if got := tonePower(buf, 0, 605); got > 1e-3 {
		t.Errorf("amplitude at 605 Hz after removal = %v, expected silence", got)
	}

	ins.Stop()
	if buf := render(t, e, sampleRate/10); maxAbs(buf) != 0 {
		t.Errorf("instrument sounded after Stop")
	}
}
