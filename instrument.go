package overtone

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultFundamentalAmplitude is the amplitude an instrument is created with
// when NewInstrument is not given WithFundamentalAmplitude.
const DefaultFundamentalAmplitude = 0.90

// Instrument is the sole entry point of the model: it owns the fundamental
// tone generator and a collection of Partials keyed by degree, and delegates
// mutation and playback to them. All operations are synchronous and
// non-blocking; an Instrument is not safe for concurrent use, so callers on
// multiple goroutines must serialize access themselves.
type Instrument struct {
	engine   ToneEngine
	sink     OutputSink
	gen      ToneGenerator
	resolver NoteResolver

	frequency float64
	amplitude float64
	phase     float64
	playing   bool
	partials  map[int]*Partial
}

// InstrumentOption configures an instrument created with NewInstrument.
type InstrumentOption func(*instrumentConfig) error

type instrumentConfig struct {
	amplitude float64
	phase     float64
	resolver  NoteResolver
}

// WithFundamentalAmplitude sets the initial fundamental amplitude, clamped
// to [0, 1]. The default is DefaultFundamentalAmplitude.
func WithFundamentalAmplitude(amplitude float64) InstrumentOption {
	return func(c *instrumentConfig) error {
		c.amplitude = clamp(amplitude, 0, 1)
		return nil
	}
}

// WithFundamentalPhase sets the initial fundamental phase, clamped to
// [0, 1]. The default is 0.
func WithFundamentalPhase(phase float64) InstrumentOption {
	return func(c *instrumentConfig) error {
		c.phase = clamp(phase, 0, 1)
		return nil
	}
}

// WithNoteResolver replaces the note-name resolver used by SetPitch. The
// default resolves scientific pitch names with NoteFrequency.
func WithNoteResolver(r NoteResolver) InstrumentOption {
	return func(c *instrumentConfig) error {
		if r == nil {
			return fmt.Errorf("note resolver must not be nil")
		}
		c.resolver = r
		return nil
	}
}

// NewInstrument creates an instrument with the given fundamental frequency
// in Hz. The frequency is unrestricted; the useful range is roughly 20-20000
// Hz. The fundamental tone generator is created, connected to every channel
// of the engine's output and parameterized, but the instrument starts
// silent: nothing sounds until Play.
func NewInstrument(e ToneEngine, hz float64, opts ...InstrumentOption) (*Instrument, error) {
	cfg := instrumentConfig{
		amplitude: DefaultFundamentalAmplitude,
		phase:     0,
		resolver:  NoteResolverFunc(NoteFrequency),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	sink := e.Output()
	g := e.NewToneGenerator()
	if err := connectAllChannels(e, g, sink); err != nil {
		e.Release(g)
		return nil, fmt.Errorf("cannot connect fundamental generator: %w", err)
	}
	g.SetFrequency(hz)
	g.SetAmplitude(cfg.amplitude)
	g.SetPhase(cfg.phase)
	return &Instrument{
		engine:    e,
		sink:      sink,
		gen:       g,
		resolver:  cfg.resolver,
		frequency: hz,
		amplitude: cfg.amplitude,
		phase:     cfg.phase,
		partials:  make(map[int]*Partial),
	}, nil
}

// IsPlaying reports whether the instrument is currently producing sound.
func (ins *Instrument) IsPlaying() bool { return ins.playing }

// Play starts the fundamental generator at the current frequency and
// amplitude and every partial's generator at its own. Playing an already
// playing instrument restarts the generators with their current parameters.
func (ins *Instrument) Play() {
	ins.gen.Start(ins.frequency, ins.amplitude)
	for _, p := range ins.partials {
		p.play()
	}
	ins.playing = true
}

// Stop silences every generator of the instrument.
func (ins *Instrument) Stop() {
	ins.gen.Stop()
	for _, p := range ins.partials {
		p.stop()
	}
	ins.playing = false
}

// FundamentalFrequency returns the fundamental frequency in Hz.
func (ins *Instrument) FundamentalFrequency() float64 { return ins.frequency }

// SetFundamentalFrequency sets the fundamental frequency, pushes it to the
// fundamental generator and rebases every partial, so each partial keeps its
// detune, amplitude and phase while its sounding frequency follows the new
// fundamental.
func (ins *Instrument) SetFundamentalFrequency(hz float64) {
	ins.frequency = hz
	ins.gen.SetFrequency(hz)
	for _, p := range ins.partials {
		p.rebase(hz)
	}
	ins.enforceSilence()
}

// FundamentalAmplitude returns the fundamental amplitude in [0, 1].
func (ins *Instrument) FundamentalAmplitude() float64 { return ins.amplitude }

// SetFundamentalAmplitude clamps to [0, 1], stores and pushes to the
// fundamental generator.
func (ins *Instrument) SetFundamentalAmplitude(amplitude float64) {
	ins.amplitude = clamp(amplitude, 0, 1)
	ins.gen.SetAmplitude(ins.amplitude)
	ins.enforceSilence()
}

// FundamentalPhase returns the fundamental phase in [0, 1].
func (ins *Instrument) FundamentalPhase() float64 { return ins.phase }

// SetFundamentalPhase clamps to [0, 1], stores and pushes to the fundamental
// generator.
func (ins *Instrument) SetFundamentalPhase(phase float64) {
	ins.phase = clamp(phase, 0, 1)
	ins.gen.SetPhase(ins.phase)
	ins.enforceSilence()
}

// SetPitch resolves a note name such as "A4" through the instrument's
// NoteResolver and sets the fundamental frequency to the result. A failed
// resolution is returned verbatim and leaves the instrument untouched.
func (ins *Instrument) SetPitch(name string) error {
	hz, err := ins.resolver.Resolve(name)
	if err != nil {
		return err
	}
	ins.SetFundamentalFrequency(hz)
	return nil
}

// AddPartial registers a new partial under the given degree. The degree must
// be greater than 1 (ErrInvalidPartialDegree) and not yet registered
// (ErrDuplicatePartial). Initial detune, amplitude and phase come from the
// options; amplitude and phase are clamped to [0, 1] here, before the
// partial is constructed. If the instrument is playing, the new partial
// starts sounding immediately; otherwise it stays silent like the rest.
func (ins *Instrument) AddPartial(degree int, opts ...PartialOption) error {
	if _, ok := ins.partials[degree]; ok {
		return fmt.Errorf("degree %d: %w", degree, ErrDuplicatePartial)
	}
	cfg := partialConfig{amplitude: DefaultPartialAmplitude}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return err
		}
	}
	p, err := newPartial(ins.engine, ins.sink, degree, ins.frequency,
		cfg.detune, clamp(cfg.amplitude, 0, 1), clamp(cfg.phase, 0, 1))
	if err != nil {
		return err
	}
	ins.partials[degree] = p
	if ins.playing {
		p.play()
	}
	return nil
}

// RemovePartial stops the partial's generator, releases it from the engine
// and removes the registration. Fails with ErrPartialNotFound for an absent
// degree.
func (ins *Instrument) RemovePartial(degree int) error {
	p, ok := ins.partials[degree]
	if !ok {
		return fmt.Errorf("degree %d: %w", degree, ErrPartialNotFound)
	}
	p.stop()
	ins.engine.Release(p.gen)
	delete(ins.partials, degree)
	return nil
}

// RemoveAllPartials removes every partial, releasing each generator. The
// removal order is unspecified.
func (ins *Instrument) RemoveAllPartials() {
	for degree := range ins.partials {
		ins.RemovePartial(degree)
	}
}

// PartialDegrees returns the registered degrees in ascending order.
func (ins *Instrument) PartialDegrees() []int {
	degrees := make([]int, 0, len(ins.partials))
	for d := range ins.partials {
		degrees = append(degrees, d)
	}
	slices.Sort(degrees)
	return degrees
}

// SetPartialDetune sets the detune of the partial with the given degree.
// Detune is unrestricted.
func (ins *Instrument) SetPartialDetune(degree int, hz float64) error {
	p, err := ins.partial(degree)
	if err != nil {
		return err
	}
	p.SetDetune(hz)
	ins.enforceSilence()
	return nil
}

// SetPartialAmplitude sets the amplitude of the partial with the given
// degree, clamped to [0, 1] by the partial itself.
func (ins *Instrument) SetPartialAmplitude(degree int, amplitude float64) error {
	p, err := ins.partial(degree)
	if err != nil {
		return err
	}
	p.SetAmplitude(amplitude)
	ins.enforceSilence()
	return nil
}

// SetPartialPhase sets the phase of the partial with the given degree,
// clamped to [0, 1]. The clamp happens here: the Partial's own setter stores
// phase unclamped.
func (ins *Instrument) SetPartialPhase(degree int, phase float64) error {
	p, err := ins.partial(degree)
	if err != nil {
		return err
	}
	p.SetPhase(clamp(phase, 0, 1))
	ins.enforceSilence()
	return nil
}

// PartialFrequency returns the sounding frequency of the partial with the
// given degree.
func (ins *Instrument) PartialFrequency(degree int) (float64, error) {
	p, err := ins.partial(degree)
	if err != nil {
		return 0, err
	}
	return p.Frequency(), nil
}

// PartialDetune returns the detune of the partial with the given degree.
func (ins *Instrument) PartialDetune(degree int) (float64, error) {
	p, err := ins.partial(degree)
	if err != nil {
		return 0, err
	}
	return p.Detune(), nil
}

// PartialAmplitude returns the amplitude of the partial with the given
// degree.
func (ins *Instrument) PartialAmplitude(degree int) (float64, error) {
	p, err := ins.partial(degree)
	if err != nil {
		return 0, err
	}
	return p.Amplitude(), nil
}

// PartialPhase returns the phase of the partial with the given degree.
func (ins *Instrument) PartialPhase(degree int) (float64, error) {
	p, err := ins.partial(degree)
	if err != nil {
		return 0, err
	}
	return p.Phase(), nil
}

// Describe returns a multi-line description of the instrument: the
// fundamental parameters followed by one line per partial in ascending
// degree order.
func (ins *Instrument) Describe() string {
	var b strings.Builder
	state := "stopped"
	if ins.playing {
		state = "playing"
	}
	fmt.Fprintf(&b, "fundamental: %.2f Hz, amplitude %.2f, phase %.2f, %s",
		ins.frequency, ins.amplitude, ins.phase, state)
	for _, d := range ins.PartialDegrees() {
		b.WriteString("\n")
		b.WriteString(ins.partials[d].String())
	}
	return b.String()
}

func (ins *Instrument) partial(degree int) (*Partial, error) {
	p, ok := ins.partials[degree]
	if !ok {
		return nil, fmt.Errorf("degree %d: %w", degree, ErrPartialNotFound)
	}
	return p, nil
}

// enforceSilence re-asserts the silence invariant: while the instrument is
// not playing, every generator it owns is stopped. Mutators call this after
// a parameter write so edits on a stopped instrument can never leave a
// generator sounding.
func (ins *Instrument) enforceSilence() {
	if ins.playing {
		return
	}
	ins.gen.Stop()
	for _, p := range ins.partials {
		p.stop()
	}
}
