package overtone_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wblanchett/overtone"
)

func TestPresetRoundTrip(t *testing.T) {
	assert := assert.New(t)
	e := newFakeEngine()
	ins, err := overtone.NewInstrument(e, 220, overtone.WithFundamentalAmplitude(0.8))
	assert.NoError(err)
	assert.NoError(ins.AddPartial(2, overtone.WithDetune(5), overtone.WithAmplitude(0.5)))
	assert.NoError(ins.AddPartial(3, overtone.WithAmplitude(0.25), overtone.WithPhase(0.1)))

	p := ins.Preset("test patch")
	data, err := p.Bytes()
	assert.NoError(err)
	parsed, err := overtone.ParsePreset(data)
	assert.NoError(err)
	assert.Equal(p, parsed)

	other, err := overtone.NewInstrument(newFakeEngine(), 100)
	assert.NoError(err)
	assert.NoError(other.AddPartial(7)) // gets replaced by the preset
	assert.NoError(parsed.Apply(other))
	assert.Equal([]int{2, 3}, other.PartialDegrees())
	assert.Equal(220.0, other.FundamentalFrequency())
	assert.Equal(0.8, other.FundamentalAmplitude())
	detune, _ := other.PartialDetune(2)
	assert.Equal(5.0, detune)
	amplitude, _ := other.PartialAmplitude(3)
	assert.Equal(0.25, amplitude)
	phase, _ := other.PartialPhase(3)
	assert.Equal(0.1, phase)
}

func TestParsePresetStrict(t *testing.T) {
	assert := assert.New(t)
	_, err := overtone.ParsePreset([]byte("fundamental: 220\nwaveform: square\n"))
	assert.Error(err, "unknown fields should be rejected")
	p, err := overtone.ParsePreset([]byte("name: thin\nfundamental: 220\namplitude: 0.5\n"))
	assert.NoError(err)
	assert.Equal("thin", p.Name)
	assert.Equal(220.0, p.Fundamental)
}

func TestPresetNotePrecedence(t *testing.T) {
	assert := assert.New(t)
	p := overtone.Preset{Note: "A4", Fundamental: 100, Amplitude: 0.5}
	hz, err := p.Frequency()
	assert.NoError(err)
	assert.InDelta(440, hz, 1e-9)

	bad := overtone.Preset{Note: "X0"}
	_, err = bad.Frequency()
	assert.True(errors.Is(err, overtone.ErrUnknownNoteName))
}

func TestPresetApplyDuplicateDegree(t *testing.T) {
	assert := assert.New(t)
	p := overtone.Preset{
		Fundamental: 220,
		Amplitude:   0.5,
		Partials: []overtone.PartialPreset{
			{Degree: 2, Amplitude: 0.5},
			{Degree: 2, Amplitude: 0.3},
		},
	}
	ins, err := overtone.NewInstrument(newFakeEngine(), 100)
	assert.NoError(err)
	assert.True(errors.Is(p.Apply(ins), overtone.ErrDuplicatePartial))
}

func TestLoadPresetsFactory(t *testing.T) {
	assert := assert.New(t)
	presets := overtone.LoadPresets()
	names := make(map[string]overtone.Preset)
	for _, p := range presets {
		names[p.Name] = p
	}
	for _, name := range []string{"organ", "bell", "saw", "sine"} {
		assert.Contains(names, name)
	}
	assert.Equal(5, len(names["organ"].Partials))
	assert.Equal("C3", names["organ"].Note)
	assert.Equal(88.0, names["bell"].Partials[0].Detune)

	p, ok := overtone.FindPreset("ORGAN")
	assert.True(ok, "FindPreset should be case-insensitive")
	assert.Equal("organ", p.Name)
	_, ok = overtone.FindPreset("does not exist")
	assert.False(ok)
}
