package monitor_test

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/gen"
	"github.com/cwbudde/algo-audio/audio/graph"
	"github.com/cwbudde/algo-audio/audio/monitor"
)

// dc emits a constant level on every frame.
type dc struct {
	graph.NodeCore
	level float64
}

func newDC(level float64) *dc {
	n := &dc{level: level}
	n.SetChannels(1)
	return n
}

func (n *dc) Process(buf *graph.Block) {
	for ch := 0; ch < buf.Channels(); ch++ {
		s := buf.Channel(ch)
		for i := range s {
			s[i] = n.level
		}
	}
}

// tap wires src into m and registers m for auto-pull, alongside a
// silent output so the context has an endpoint.
func tap(t *testing.T, c *graph.Context, src, m graph.Node) {
	t.Helper()
	out := graph.NewOutput(1)
	for _, n := range []graph.Node{out, src, m} {
		if err := c.AddNode(n); err != nil {
			t.Fatalf("AddNode() = %v", err)
		}
	}
	if err := c.SetOutput(out); err != nil {
		t.Fatalf("SetOutput() = %v", err)
	}
	if err := c.Connect(src, out); err != nil {
		t.Fatalf("Connect(src, out) = %v", err)
	}
	if err := c.Connect(src, m); err != nil {
		t.Fatalf("Connect(src, monitor) = %v", err)
	}
	if err := c.AddAutoPulled(m); err != nil {
		t.Fatalf("AddAutoPulled() = %v", err)
	}
	if err := c.Enable(); err != nil {
		t.Fatalf("Enable() = %v", err)
	}
}

func render(c *graph.Context, blocks int) {
	dst := buffer.New[float64](c.FramesPerBlock(), 1)
	for i := 0; i < blocks; i++ {
		c.RenderBlock(dst)
	}
}

func TestWindowSizeRoundsUpToPowerOfTwo(t *testing.T) {
	c := graph.New()
	m := monitor.New(monitor.WithWindowSize(1000))
	tap(t, c, newDC(0), m)
	if got := m.WindowSize(); got != 1024 {
		t.Fatalf("WindowSize() = %d, want 1024", got)
	}
}

func TestWindowSizeDefaultsToBlockSize(t *testing.T) {
	c := graph.New(graph.WithFramesPerBlock(500))
	m := monitor.New()
	tap(t, c, newDC(0), m)
	if got := m.WindowSize(); got != 512 {
		t.Fatalf("WindowSize() = %d, want 512", got)
	}
}

func TestBufferCapturesRecentInput(t *testing.T) {
	c := graph.New()
	m := monitor.New(monitor.WithWindowSize(1024))
	tap(t, c, newDC(0.5), m)

	// two blocks fill the 1024-frame window at 512 frames each
	render(c, 3)
	snap := m.Buffer()
	if snap.Frames() != 1024 {
		t.Fatalf("Buffer().Frames() = %d, want 1024", snap.Frames())
	}
	for i, v := range snap.Channel(0) {
		if v != 0.5 {
			t.Fatalf("Buffer()[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestVolumeReportsRMS(t *testing.T) {
	c := graph.New()
	m := monitor.New(monitor.WithWindowSize(1024))
	tap(t, c, newDC(0.5), m)

	render(c, 3)
	if got := m.Volume(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Volume() = %v, want 0.5", got)
	}
}

func TestGenerationAdvancesPerBlock(t *testing.T) {
	c := graph.New()
	m := monitor.New()
	tap(t, c, newDC(0), m)

	before := m.Generation()
	render(c, 4)
	if got := m.Generation(); got != before+4 {
		t.Fatalf("Generation() = %d, want %d", got, before+4)
	}
}

func TestSpectralPeakMatchesToneFrequency(t *testing.T) {
	const (
		sampleRate = 44100
		fftSize    = 1024
		toneHz     = 1000.0
	)
	c := graph.New(graph.WithSampleRate(sampleRate))
	m := monitor.NewSpectral(monitor.WithWindowSize(fftSize))
	tap(t, c, gen.NewSine(toneHz), m)

	render(c, 4)
	mags := m.MagSpectrum()
	if len(mags) != fftSize/2 {
		t.Fatalf("len(MagSpectrum()) = %d, want %d", len(mags), fftSize/2)
	}
	peak := 0
	for i, v := range mags {
		if v > mags[peak] {
			peak = i
		}
	}
	binWidth := float64(sampleRate) / fftSize
	if got := m.FreqForBin(peak); math.Abs(got-toneHz) > binWidth {
		t.Fatalf("FreqForBin(%d) = %v Hz, want within %v of %v", peak, got, binWidth, toneHz)
	}
}

func TestSpectralDCBin(t *testing.T) {
	c := graph.New()
	m := monitor.NewSpectral(monitor.WithWindowSize(1024))
	tap(t, c, newDC(0.25), m)

	render(c, 3)
	mags := m.MagSpectrum()
	if got := mags[0]; math.Abs(got-0.25) > 1e-6 {
		t.Fatalf("MagSpectrum()[0] = %v, want 0.25", got)
	}
}
