// Package spectrum computes power spectra and spectral peaks of interleaved
// stereo audio.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/viterin/vek/vek32"
)

// Analyzer turns windows of interleaved stereo audio into power spectra.
// It reuses its scratch buffers between calls and is not safe for
// concurrent use.
type Analyzer struct {
	plan       *algofft.Plan[complex128]
	size       int
	sampleRate int
	window     []float32
	normFactor float32
	tmp1, tmp2 []float32
	tmpC, outC []complex128
}

// Peak is a local maximum of a power spectrum.
type Peak struct {
	Frequency float64 // Hz, refined between bins
	Level     float32 // dB
}

// NewAnalyzer returns an analyzer with the given FFT size, which must be a
// power of two.
func NewAnalyzer(size, sampleRate int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("analyzer size %d is not a power of two", size)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("cannot create FFT plan: %w", err)
	}
	a := &Analyzer{
		plan:       plan,
		size:       size,
		sampleRate: sampleRate,
		window:     make([]float32, size),
		tmp1:       make([]float32, size),
		tmp2:       make([]float32, size),
		tmpC:       make([]complex128, size),
		outC:       make([]complex128, size),
	}
	for i := range a.window {
		// Hanning window
		w := float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1))))
		a.window[i] = w
		a.normFactor += w
	}
	return a, nil
}

// Size returns the FFT size in frames.
func (a *Analyzer) Size() int { return a.size }

// BinWidth returns the width of one frequency bin in Hz.
func (a *Analyzer) BinWidth() float64 { return float64(a.sampleRate) / float64(a.size) }

// Analyze computes the power spectrum of one channel of an interleaved
// stereo buffer in decibels. buf must hold at least Size frames. The
// returned Size/2 values cover bin 1 up to the Nyquist frequency; DC is
// excluded.
func (a *Analyzer) Analyze(buf []float32, channel int) ([]float32, error) {
	power, err := a.power(buf, channel)
	if err != nil {
		return nil, err
	}
	ret := make([]float32, len(power))
	copy(ret, power)
	// convert to decibels
	vek32.Log10_Inplace(ret)
	vek32.MulNumber_Inplace(ret, 10)
	return ret, nil
}

// Peaks finds the count loudest local maxima of the power spectrum of one
// channel, sorted by frequency. Each peak frequency is refined with a
// parabolic fit through the bin and its neighbours.
func (a *Analyzer) Peaks(buf []float32, channel, count int) ([]Peak, error) {
	power, err := a.power(buf, channel)
	if err != nil {
		return nil, err
	}
	var maxima []int
	for i := 1; i < len(power)-1; i++ {
		if power[i] > power[i-1] && power[i] >= power[i+1] && power[i] > 0 {
			maxima = append(maxima, i)
		}
	}
	sort.Slice(maxima, func(i, j int) bool { return power[maxima[i]] > power[maxima[j]] })
	if count < len(maxima) {
		maxima = maxima[:max(count, 0)]
	}
	peaks := make([]Peak, 0, len(maxima))
	for _, i := range maxima {
		yc := 10 * math.Log10(float64(power[i]))
		// power index 0 holds FFT bin 1
		peak := Peak{Frequency: float64(i+1) * a.BinWidth(), Level: float32(yc)}
		if power[i-1] > 0 && power[i+1] > 0 {
			// parabolic fit through the bin and its neighbours
			yl := 10 * math.Log10(float64(power[i-1]))
			yr := 10 * math.Log10(float64(power[i+1]))
			if d := yl - 2*yc + yr; d != 0 {
				delta := 0.5 * (yl - yr) / d
				peak.Frequency = (float64(i+1) + delta) * a.BinWidth()
				peak.Level = float32(yc - 0.25*(yl-yr)*delta)
			}
		}
		peaks = append(peaks, peak)
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Frequency < peaks[j].Frequency })
	return peaks, nil
}

// power computes the linear power spectrum into a scratch buffer that stays
// valid until the next call.
func (a *Analyzer) power(buf []float32, channel int) ([]float32, error) {
	if channel < 0 || channel >= 2 {
		return nil, fmt.Errorf("channel %d out of range", channel)
	}
	if len(buf) < a.size*2 {
		return nil, fmt.Errorf("buffer holds %d frames, analyzer needs %d", len(buf)/2, a.size)
	}
	for i := 0; i < a.size; i++ { // de-interleave
		a.tmp1[i] = buf[i*2+channel]
	}
	vek32.Mul_Inplace(a.tmp1, a.window) // apply windowing
	for i, v := range a.tmp1 {
		a.tmpC[i] = complex(float64(v), 0)
	}
	if err := a.plan.Forward(a.outC, a.tmpC); err != nil {
		return nil, fmt.Errorf("cannot transform buffer: %w", err)
	}
	// take absolute values of the first half, including the Nyquist
	// frequency but excluding DC
	m := a.size / 2
	t1 := a.tmp1[:m]
	t2 := a.tmp2[:m]
	for i := 0; i < m; i++ {
		t1[i] = float32(cmplx.Abs(a.outC[1+i]))
	}
	// square the amplitudes to get power
	vek32.Mul_Into(t2, t1, t1)
	vek32.DivNumber_Inplace(t2, a.normFactor*a.normFactor) // normalize for windowing
	// real-valued input, so double everything except Nyquist to fold the
	// negative frequencies in
	vek32.MulNumber_Inplace(t2[:m-1], 2)
	return t2, nil
}
