// Package param implements sample-accurate parameter automation for
// graph nodes. A Param holds a current value and an ordered queue of
// scheduled ramp events; the owning node evaluates it once per block on
// the render thread, producing one value per sample frame.
//
// Scheduling calls (ApplyRamp, AppendRamp, SetValue) may originate on
// any thread. Scheduled events become visible to the render thread at a
// block boundary, never mid-block, and are consumed in the chronological
// order they were scheduled. Given an identical event queue and elapsed
// frame count, evaluation is bit-for-bit reproducible.
package param

import (
	"math"
	"sync"
	"sync/atomic"
)

// DefaultSampleRate is assumed until the owning node attaches the Param
// to a context.
const DefaultSampleRate = 44100

type event struct {
	start  uint64 // absolute frame at which the ramp begins
	frames uint64 // ramp duration in frames; 0 snaps at start
	from   float64
	to     float64
	fn     RampFunc
	snap   bool // discard queued events and jump to the target
	began  bool // from has been captured
}

// Param is a single automatable control value.
type Param struct {
	valueBits  atomic.Uint64 // math.Float64bits of the current value
	sampleRate atomic.Int64
	cursor     atomic.Uint64 // elapsed frames, advanced only by Eval

	mu      sync.Mutex
	pending []event
	lastEnd uint64 // end frame of the latest scheduled event

	active   []event // render-thread private; active[activeAt:] are live
	activeAt int
}

// eventQueueDepth is the initial capacity of both event queues. Eval
// recycles their backing arrays, so evaluation allocates only if more
// events than the high-water capacity are queued at once.
const eventQueueDepth = 16

// New returns a Param holding the given initial value.
func New(initial float64) *Param {
	p := &Param{
		pending: make([]event, 0, eventQueueDepth),
		active:  make([]event, 0, eventQueueDepth),
	}
	p.valueBits.Store(math.Float64bits(initial))
	p.sampleRate.Store(DefaultSampleRate)
	return p
}

// Value returns the most recently evaluated value. Safe from any thread.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.valueBits.Load())
}

// SetSampleRate updates the rate used to convert scheduling times to
// frames. The owning node calls this when its context is configured.
func (p *Param) SetSampleRate(rate int) {
	if rate > 0 {
		p.sampleRate.Store(int64(rate))
	}
}

// Elapsed returns the number of frames this Param has been evaluated
// for. It does not advance while the owning context is disabled.
func (p *Param) Elapsed() uint64 { return p.cursor.Load() }

// Option configures a scheduled ramp.
type Option func(*rampConfig)

type rampConfig struct {
	delay float64
	fn    RampFunc
}

// WithDelay postpones the ramp start by the given number of seconds.
func WithDelay(seconds float64) Option {
	return func(c *rampConfig) {
		if seconds > 0 {
			c.delay = seconds
		}
	}
}

// WithRamp selects the interpolation function. Default is Linear.
func WithRamp(fn RampFunc) Option {
	return func(c *rampConfig) {
		if fn != nil {
			c.fn = fn
		}
	}
}

// ApplyRamp schedules an interpolation toward target lasting duration
// seconds, starting now (or after WithDelay). A non-positive duration
// snaps to the target at the start time.
func (p *Param) ApplyRamp(target, duration float64, opts ...Option) {
	cfg := rampConfig{fn: Linear}
	for _, opt := range opts {
		opt(&cfg)
	}
	rate := float64(p.sampleRate.Load())
	start := p.cursor.Load() + uint64(cfg.delay*rate)
	p.schedule(target, duration, start, cfg.fn)
}

// AppendRamp schedules an interpolation that begins immediately after
// the end of the latest queued event, chaining ramps back to back. With
// an empty queue it behaves like ApplyRamp.
func (p *Param) AppendRamp(target, duration float64, opts ...Option) {
	cfg := rampConfig{fn: Linear}
	for _, opt := range opts {
		opt(&cfg)
	}
	rate := float64(p.sampleRate.Load())

	p.mu.Lock()
	start := p.lastEnd
	now := p.cursor.Load()
	if start < now {
		start = now
	}
	start += uint64(cfg.delay * rate)
	p.enqueueLocked(event{
		start:  start,
		frames: durationFrames(duration, rate),
		to:     target,
		fn:     cfg.fn,
	})
	p.mu.Unlock()
}

// SetValue discards all pending events and snaps to v. The snap is
// immediately visible through Value; the render thread picks it up at
// its next block boundary.
func (p *Param) SetValue(v float64) {
	p.mu.Lock()
	p.pending = append(p.pending[:0], event{to: v, snap: true})
	p.lastEnd = p.cursor.Load()
	p.valueBits.Store(math.Float64bits(v))
	p.mu.Unlock()
}

func (p *Param) schedule(target, duration float64, start uint64, fn RampFunc) {
	rate := float64(p.sampleRate.Load())
	p.mu.Lock()
	p.enqueueLocked(event{
		start:  start,
		frames: durationFrames(duration, rate),
		to:     target,
		fn:     fn,
	})
	p.mu.Unlock()
}

func (p *Param) enqueueLocked(e event) {
	p.pending = append(p.pending, e)
	if end := e.start + e.frames; end > p.lastEnd {
		p.lastEnd = end
	}
}

func durationFrames(duration, rate float64) uint64 {
	if duration <= 0 {
		return 0
	}
	return uint64(math.Ceil(duration * rate))
}

// Eval fills dst with one value per sample frame and advances the
// evaluation cursor by len(dst). Render thread only. Newly scheduled
// events are drained with a non-blocking acquire: if a scheduling call
// holds the queue lock this very moment, the events simply arrive one
// block later. The drain swaps or compacts in place rather than
// growing, keeping steady-state evaluation free of allocation.
func (p *Param) Eval(dst []float64) {
	if p.mu.TryLock() {
		if len(p.pending) > 0 {
			if p.activeAt == len(p.active) {
				p.active, p.pending = p.pending, p.active[:0]
			} else {
				if p.activeAt > 0 {
					n := copy(p.active, p.active[p.activeAt:])
					p.active = p.active[:n]
				}
				for _, e := range p.pending {
					if e.snap {
						p.active = p.active[:0]
					}
					p.active = append(p.active, e)
				}
				p.pending = p.pending[:0]
			}
			p.activeAt = 0
		}
		p.mu.Unlock()
	}

	cur := math.Float64frombits(p.valueBits.Load())
	base := p.cursor.Load()
	for i := range dst {
		frame := base + uint64(i)
		for p.activeAt < len(p.active) {
			e := &p.active[p.activeAt]
			if e.snap {
				cur = e.to
				p.activeAt++
				continue
			}
			if frame >= e.start+e.frames {
				cur = e.to
				p.activeAt++
				continue
			}
			break
		}
		if p.activeAt < len(p.active) {
			e := &p.active[p.activeAt]
			if frame >= e.start {
				if !e.began {
					e.from = cur
					e.began = true
				}
				t := float64(frame-e.start) / float64(e.frames)
				cur = e.from + (e.to-e.from)*e.fn(t)
			}
		}
		dst[i] = cur
	}
	p.cursor.Store(base + uint64(len(dst)))
	p.valueBits.Store(math.Float64bits(cur))
}

// Animating reports whether any events are queued or in flight. Render
// thread callers use it to skip per-sample evaluation for static values.
func (p *Param) Animating() bool {
	if p.activeAt < len(p.active) {
		return true
	}
	if !p.mu.TryLock() {
		return true
	}
	n := len(p.pending)
	p.mu.Unlock()
	return n > 0
}
