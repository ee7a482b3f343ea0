package overtone

import "fmt"

// DefaultPartialAmplitude is the amplitude a partial is created with when
// AddPartial is not given WithAmplitude.
const DefaultPartialAmplitude = 0.75

// Partial is one overtone of an Instrument: a sine component sounding at an
// integer multiple of the instrument's fundamental frequency, offset by a
// free-ranging detune. Partials are created only through
// Instrument.AddPartial and never outlive their instrument registration;
// each owns exactly one tone generator.
type Partial struct {
	gen       ToneGenerator
	degree    int
	base      float64
	detune    float64
	amplitude float64
	phase     float64
}

// PartialOption configures a partial added with Instrument.AddPartial.
type PartialOption func(*partialConfig) error

type partialConfig struct {
	detune    float64
	amplitude float64
	phase     float64
}

// WithDetune sets the partial's initial detune in Hz. Detune is unrestricted
// in sign and magnitude; the default is 0.
func WithDetune(hz float64) PartialOption {
	return func(c *partialConfig) error {
		c.detune = hz
		return nil
	}
}

// WithAmplitude sets the partial's initial amplitude, clamped to [0, 1]. The
// default is DefaultPartialAmplitude.
func WithAmplitude(amplitude float64) PartialOption {
	return func(c *partialConfig) error {
		c.amplitude = amplitude
		return nil
	}
}

// WithPhase sets the partial's initial phase, clamped to [0, 1]. The default
// is 0.
func WithPhase(phase float64) PartialOption {
	return func(c *partialConfig) error {
		c.phase = phase
		return nil
	}
}

// newPartial creates the partial's tone generator, connects it to every
// channel of the sink and parameterizes it, leaving it stopped. On a connect
// failure the generator is released again and nothing is left behind.
func newPartial(e ToneEngine, sink OutputSink, degree int, base, detune, amplitude, phase float64) (*Partial, error) {
	if degree <= 1 {
		return nil, fmt.Errorf("degree %d: %w", degree, ErrInvalidPartialDegree)
	}
	g := e.NewToneGenerator()
	if err := connectAllChannels(e, g, sink); err != nil {
		e.Release(g)
		return nil, err
	}
	p := &Partial{
		gen:       g,
		degree:    degree,
		base:      base,
		detune:    detune,
		amplitude: amplitude,
		phase:     phase,
	}
	g.SetFrequency(p.Frequency())
	g.SetAmplitude(p.amplitude)
	g.SetPhase(p.phase)
	return p, nil
}

func connectAllChannels(e ToneEngine, g ToneGenerator, sink OutputSink) error {
	for ch := 0; ch < sink.ChannelCount(); ch++ {
		if err := e.Connect(g, sink, ch); err != nil {
			return err
		}
	}
	return nil
}

// Degree returns the harmonic number of the partial, immutable and always
// greater than 1.
func (p *Partial) Degree() int { return p.degree }

// Frequency returns the sounding frequency: base frequency times degree,
// plus detune. It is always derived, never stored.
func (p *Partial) Frequency() float64 { return p.base*float64(p.degree) + p.detune }

// Detune returns the detune offset in Hz.
func (p *Partial) Detune() float64 { return p.detune }

// Amplitude returns the amplitude in [0, 1].
func (p *Partial) Amplitude() float64 { return p.amplitude }

// Phase returns the phase. The value is whatever was last stored; this layer
// does not constrain it (see SetPhase).
func (p *Partial) Phase() float64 { return p.phase }

// SetDetune stores the detune, recomputes the sounding frequency and pushes
// it to the generator. No clamping; detune is free-ranging.
func (p *Partial) SetDetune(hz float64) {
	p.detune = hz
	p.gen.SetFrequency(p.Frequency())
}

// SetAmplitude clamps to [0, 1], stores and pushes to the generator.
func (p *Partial) SetAmplitude(amplitude float64) {
	p.amplitude = clamp(amplitude, 0, 1)
	p.gen.SetAmplitude(p.amplitude)
}

// SetPhase stores the phase as given and pushes it to the generator. Unlike
// amplitude, phase is NOT clamped at this layer: range enforcement is the
// Instrument's responsibility, so values outside [0, 1] can only end up
// stored by calling the Partial directly.
func (p *Partial) SetPhase(phase float64) {
	p.phase = phase
	p.gen.SetPhase(phase)
}

// rebase is invoked by the owning instrument when the fundamental frequency
// changes: stores the new base, recomputes the sounding frequency and pushes
// it. Detune, amplitude and phase are untouched.
func (p *Partial) rebase(base float64) {
	p.base = base
	p.gen.SetFrequency(p.Frequency())
}

// play starts the tone generator at the partial's current frequency and
// amplitude.
func (p *Partial) play() { p.gen.Start(p.Frequency(), p.amplitude) }

// stop silences the tone generator.
func (p *Partial) stop() { p.gen.Stop() }

// String describes the partial in one line with two-decimal formatting.
func (p *Partial) String() string {
	return fmt.Sprintf("partial %d: %.2f Hz (%d x %.2f Hz %+.2f Hz), amplitude %.2f, phase %.2f",
		p.degree, p.Frequency(), p.degree, p.base, p.detune, p.amplitude, p.phase)
}
