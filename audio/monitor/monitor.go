// Package monitor provides nodes that expose live graph data to
// non-real-time consumers: a time-domain monitor snapshotting its input
// window, and a spectral monitor additionally publishing a magnitude
// spectrum. Both are cycle tolerant, intended for the context's
// auto-pull set, and safe to read from any thread: the render role
// publishes complete windows through an atomically swapped buffer
// handle, so readers observe either the previous or the current
// snapshot, never a torn one.
package monitor

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/graph"
)

// Option configures a monitor node.
type Option func(*config)

type config struct {
	windowSize int
	winType    window.Type
}

// WithWindowSize requests the snapshot window length in frames. Sizes
// that are not a power of two round up to the next one (1000 becomes
// 1024). Zero, the default, resolves to the context's frames-per-block
// rounded the same way.
func WithWindowSize(frames int) Option {
	return func(c *config) {
		if frames > 0 {
			c.windowSize = frames
		}
	}
}

// WithWindowType selects the analysis window function applied before
// the transform. Only spectral monitors use it; the default is Hann.
func WithWindowType(t window.Type) Option {
	return func(c *config) { c.winType = t }
}

// Monitor snapshots its input each block without contributing audibly
// to the graph output.
type Monitor struct {
	graph.NodeCore

	requested int
	window    int

	ring  *buffer.Buffer[float64] // render-side accumulation ring
	write int
	// publish targets rotate so a control-role reader is never handed
	// the buffer the render role assembles next
	pool    [3]*buffer.Buffer[float64]
	poolIdx int
	snap    atomic.Pointer[buffer.Buffer[float64]]
	seq     atomic.Uint64 // snapshot freshness counter
}

// New returns a time-domain monitor.
func New(opts ...Option) *Monitor {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Monitor{requested: cfg.windowSize}
	m.SetChannelMode(graph.ChannelsMatchInputs)
	m.SetCycleTolerant(true)
	return m
}

// nextPow2 rounds n up to the nearest power of two.
func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// WindowSize returns the resolved window length in frames. Zero before
// the owning context configures the graph.
func (m *Monitor) WindowSize() int { return m.window }

// Init sizes the window to the resolved power of two and resets the
// snapshot.
func (m *Monitor) Init(cfg graph.Config) error {
	requested := m.requested
	if requested == 0 {
		requested = cfg.FramesPerBlock
	}
	m.window = nextPow2(requested)
	m.ring = buffer.New[float64](m.window, cfg.Channels)
	m.write = 0
	for i := range m.pool {
		m.pool[i] = buffer.New[float64](m.window, cfg.Channels)
	}
	m.poolIdx = 0
	m.snap.Store(m.pool[len(m.pool)-1])
	return nil
}

func (m *Monitor) Process(buf *graph.Block) {
	frames := buf.Frames()
	channels := min(buf.Channels(), m.ring.Channels())

	// Accumulate the block into the ring, then assemble the latest
	// window in time order and publish it with a pointer swap.
	for ch := 0; ch < channels; ch++ {
		in := buf.Channel(ch)
		ring := m.ring.Channel(ch)
		w := m.write
		for i := 0; i < frames; i++ {
			ring[w] = in[i]
			w++
			if w >= m.window {
				w = 0
			}
		}
	}
	m.write = (m.write + frames) % m.window

	back := m.pool[m.poolIdx]
	m.poolIdx = (m.poolIdx + 1) % len(m.pool)
	for ch := 0; ch < channels; ch++ {
		ring := m.ring.Channel(ch)
		out := back.Channel(ch)
		n := copy(out, ring[m.write:])
		copy(out[n:], ring[:m.write])
	}
	m.snap.Store(back)
	m.seq.Add(1)
}

// Buffer returns the latest complete snapshot window. Safe from any
// thread; the returned buffer stays untouched for at least two further
// blocks, so callers wanting to hold data longer should Clone it.
func (m *Monitor) Buffer() *buffer.Buffer[float64] {
	return m.snap.Load()
}

// Generation returns a counter incremented on every published
// snapshot, letting pollers skip stale data.
func (m *Monitor) Generation() uint64 { return m.seq.Load() }

// Volume returns the RMS of the current window across all channels,
// clamped to [0, 1].
func (m *Monitor) Volume() float64 {
	snap := m.Buffer()
	if snap == nil || snap.Frames() == 0 {
		return 0
	}
	sum := 0.0
	for ch := 0; ch < snap.Channels(); ch++ {
		data := snap.Channel(ch)
		sum += vecmath.DotProduct(data, data)
	}
	rms := math.Sqrt(sum / float64(snap.Frames()*snap.Channels()))
	if rms > 1 {
		return 1
	}
	return rms
}
