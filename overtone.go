// Package overtone models an additive-synthesis instrument: one fundamental
// sine oscillator plus a set of partials locked to integer multiples of the
// fundamental frequency, each with its own detune, amplitude and phase. The
// package contains only the domain model and the narrow capability
// interfaces it drives; actual sound generation lives in the engine and oto
// subpackages.
package overtone

// ToneGenerator is one engine-side sine oscillator. Generators are created
// silent; Start begins continuous sound production at the given frequency
// and amplitude, Stop silences immediately. Parameter setters take effect
// whether or not the generator is running.
type ToneGenerator interface {
	SetFrequency(hz float64)
	SetAmplitude(amplitude float64)
	SetPhase(phase float64)
	Start(hz, amplitude float64)
	Stop()
}

// OutputSink is a mixing destination of a ToneEngine. ChannelCount is at
// least 2; channel 0 is left and channel 1 is right.
type OutputSink interface {
	ChannelCount() int
}

// ToneEngine creates tone generators and routes them to an output sink. The
// Instrument drives the engine solely through this interface, so engines can
// be swapped for test doubles.
type ToneEngine interface {
	NewToneGenerator() ToneGenerator
	Output() OutputSink
	// Connect routes the generator's output to one channel of the sink.
	Connect(g ToneGenerator, sink OutputSink, channel int) error
	// Release detaches the generator from the engine; afterwards the
	// generator is inert and must not be reused.
	Release(g ToneGenerator)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
