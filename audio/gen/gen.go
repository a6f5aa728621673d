// Package gen provides signal-generating nodes: deterministic sources
// for synthesis, testing, and measurement. Generators have no inputs;
// their channel count is fixed at construction (default mono) and the
// same signal is written to every channel.
package gen

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-audio/audio/graph"
	"github.com/cwbudde/algo-audio/audio/param"
)

// Option configures a generator node.
type Option func(*config)

type config struct {
	channels int
	rng      *rand.Rand
}

func defaultConfig() config {
	return config{channels: 1}
}

// WithChannels sets the generator's channel count.
func WithChannels(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.channels = n
		}
	}
}

// WithRNG sets the noise source's random generator, for reproducible
// output in tests.
func WithRNG(rng *rand.Rand) Option {
	return func(c *config) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// Sine is a sine oscillator with sample-accurate frequency automation.
type Sine struct {
	graph.NodeCore
	Freq *param.Param

	phase   float64
	rate    float64
	freqBuf []float64
}

// NewSine returns a sine oscillator at the given frequency in Hz.
func NewSine(freqHz float64, opts ...Option) *Sine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Sine{Freq: param.New(freqHz)}
	s.SetChannels(cfg.channels)
	return s
}

// Params exposes the frequency control to the owning context.
func (s *Sine) Params() []*param.Param { return []*param.Param{s.Freq} }

// Init sizes the per-block frequency scratch.
func (s *Sine) Init(cfg graph.Config) error {
	s.rate = float64(cfg.SampleRate)
	s.freqBuf = make([]float64, cfg.FramesPerBlock)
	return nil
}

func (s *Sine) Process(buf *graph.Block) {
	frames := buf.Frames()
	out := buf.Channel(0)
	s.Freq.Eval(s.freqBuf[:frames])
	phase := s.phase
	for i := 0; i < frames; i++ {
		out[i] = math.Sin(2 * math.Pi * phase)
		phase += s.freqBuf[i] / s.rate
		if phase >= 1 {
			phase -= 1
		}
	}
	s.phase = phase
	for ch := 1; ch < buf.Channels(); ch++ {
		copy(buf.Channel(ch), out)
	}
}

// Phasor generates a naive sawtooth ramp in [0, 1), useful as a phase
// driver for wavetable-style processing.
type Phasor struct {
	graph.NodeCore
	Freq *param.Param

	phase   float64
	rate    float64
	freqBuf []float64
}

// NewPhasor returns a phasor at the given frequency in Hz.
func NewPhasor(freqHz float64, opts ...Option) *Phasor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Phasor{Freq: param.New(freqHz)}
	p.SetChannels(cfg.channels)
	return p
}

// Params exposes the frequency control to the owning context.
func (p *Phasor) Params() []*param.Param { return []*param.Param{p.Freq} }

// Init sizes the per-block frequency scratch.
func (p *Phasor) Init(cfg graph.Config) error {
	p.rate = float64(cfg.SampleRate)
	p.freqBuf = make([]float64, cfg.FramesPerBlock)
	return nil
}

func (p *Phasor) Process(buf *graph.Block) {
	frames := buf.Frames()
	out := buf.Channel(0)
	p.Freq.Eval(p.freqBuf[:frames])
	phase := p.phase
	for i := 0; i < frames; i++ {
		out[i] = phase
		phase += p.freqBuf[i] / p.rate
		if phase >= 1 {
			phase -= 1
		}
	}
	p.phase = phase
	for ch := 1; ch < buf.Channels(); ch++ {
		copy(buf.Channel(ch), out)
	}
}

// Noise generates uniform white noise in [-1, 1).
type Noise struct {
	graph.NodeCore
	rng *rand.Rand
}

// NewNoise returns a white noise source.
func NewNoise(opts ...Option) *Noise {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	n := &Noise{rng: cfg.rng}
	n.SetChannels(cfg.channels)
	return n
}

func (n *Noise) Process(buf *graph.Block) {
	out := buf.Channel(0)
	for i := range out {
		out[i] = 2*n.rng.Float64() - 1
	}
	for ch := 1; ch < buf.Channels(); ch++ {
		copy(buf.Channel(ch), out)
	}
}
