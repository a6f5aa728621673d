package monitor

import (
	"fmt"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-audio/audio/graph"
)

// Spectral extends Monitor with a frequency-domain view: each block it
// averages the window across channels, applies the analysis window
// function, runs a forward FFT, and publishes the polar magnitudes of
// the lower half of the spectrum, discarding phase.
type Spectral struct {
	Monitor

	winType    window.Type
	coeffs     []float64
	coherent   float64
	plan       *algofft.Plan[complex128]
	fftIn      []complex128
	fftOut     []complex128
	mono       []float64
	re, im     []float64
	magPool    [3][]float64
	magPoolIdx int
	mags       atomic.Pointer[[]float64]
	sampleRate int
}

// NewSpectral returns a spectral monitor. WithWindowSize doubles as
// the FFT size here.
func NewSpectral(opts ...Option) *Spectral {
	cfg := config{winType: window.TypeHann}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Spectral{winType: cfg.winType}
	s.requested = cfg.windowSize
	s.SetChannelMode(graph.ChannelsMatchInputs)
	s.SetCycleTolerant(true)
	return s
}

// FFTSize returns the transform length, equal to the resolved window
// size. Zero before the owning context configures the graph.
func (s *Spectral) FFTSize() int { return s.WindowSize() }

// Init prepares the FFT plan and analysis window for the resolved size.
func (s *Spectral) Init(cfg graph.Config) error {
	if err := s.Monitor.Init(cfg); err != nil {
		return err
	}
	n := s.WindowSize()
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return fmt.Errorf("monitor: fft plan: %w", err)
	}
	s.plan = plan
	s.coeffs = window.Generate(s.winType, n, window.WithPeriodic())
	sum := vecmath.Sum(s.coeffs)
	s.coherent = sum / float64(n)
	s.fftIn = make([]complex128, n)
	s.fftOut = make([]complex128, n)
	s.mono = make([]float64, n)
	s.re = make([]float64, n/2)
	s.im = make([]float64, n/2)
	for i := range s.magPool {
		s.magPool[i] = make([]float64, n/2)
	}
	empty := make([]float64, n/2)
	s.mags.Store(&empty)
	s.sampleRate = cfg.SampleRate
	return nil
}

func (s *Spectral) Process(buf *graph.Block) {
	s.Monitor.Process(buf)

	snap := s.Buffer()
	n := s.WindowSize()

	// average across channels, then window
	channels := snap.Channels()
	copy(s.mono, snap.Channel(0))
	for ch := 1; ch < channels; ch++ {
		vecmath.AddBlockInPlace(s.mono, snap.Channel(ch))
	}
	if channels > 1 {
		vecmath.ScaleBlockInPlace(s.mono, 1/float64(channels))
	}
	for i := 0; i < n; i++ {
		s.fftIn[i] = complex(s.mono[i]*s.coeffs[i], 0)
	}

	if err := s.plan.Forward(s.fftOut, s.fftIn); err != nil {
		return // keep the previous spectrum
	}

	norm := float64(n) * s.coherent
	if norm == 0 {
		norm = float64(n)
	}
	scale := 2 / norm
	for k := 0; k < n/2; k++ {
		s.re[k] = real(s.fftOut[k])
		s.im[k] = imag(s.fftOut[k])
	}
	out := s.magPool[s.magPoolIdx]
	s.magPoolIdx = (s.magPoolIdx + 1) % len(s.magPool)
	vecmath.Magnitude(out, s.re, s.im)
	vecmath.ScaleBlockInPlace(out, scale)
	out[0] /= 2 // DC carries no mirrored half
	s.mags.Store(&out)
}

// MagSpectrum returns the latest magnitude bins, WindowSize()/2 long.
// Safe from any thread under the same reuse contract as Buffer.
func (s *Spectral) MagSpectrum() []float64 {
	return *s.mags.Load()
}

// FreqForBin returns the center frequency in Hz of magnitude bin i.
func (s *Spectral) FreqForBin(i int) float64 {
	n := s.FFTSize()
	if n == 0 {
		return 0
	}
	return float64(i) * float64(s.sampleRate) / float64(n)
}
