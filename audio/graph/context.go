package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

const (
	// DefaultSampleRate is used when no option overrides it.
	DefaultSampleRate = 44100
	// DefaultFramesPerBlock is used when no option overrides it.
	DefaultFramesPerBlock = 512

	faultQueueSize = 16
)

// Context owns a node graph: it is the factory and registry for nodes,
// the authority for samplerate and frames-per-block, and the driver of
// the pull traversal. All nodes owned by one context share its
// processing parameters at every instant.
type Context struct {
	mu sync.Mutex // graph lock; render role only ever TryLocks it

	sampleRate     int
	framesPerBlock int

	enabled   atomic.Bool
	rendering atomic.Bool
	frames    atomic.Uint64 // elapsed audio time in frames

	nodes      map[string]Node
	autoPulled map[string]Node
	output     Node

	tick       uint64
	configured bool

	faults chan error
}

// Option configures a new Context.
type Option func(*Context)

// WithSampleRate sets the initial samplerate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *Context) {
		if rate > 0 {
			c.sampleRate = rate
		}
	}
}

// WithFramesPerBlock sets the initial block size in frames.
func WithFramesPerBlock(frames int) Option {
	return func(c *Context) {
		if frames > 0 {
			c.framesPerBlock = frames
		}
	}
}

// New returns a context with no nodes. The context starts disabled;
// Enable starts audio time.
func New(opts ...Option) *Context {
	c := &Context{
		sampleRate:     DefaultSampleRate,
		framesPerBlock: DefaultFramesPerBlock,
		nodes:          make(map[string]Node),
		autoPulled:     make(map[string]Node),
		faults:         make(chan error, faultQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SampleRate returns the current samplerate in Hz.
func (c *Context) SampleRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate
}

// FramesPerBlock returns the current block size in frames.
func (c *Context) FramesPerBlock() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framesPerBlock
}

// ElapsedFrames returns the number of frames rendered since the context
// was created. It does not advance while the context is disabled.
func (c *Context) ElapsedFrames() uint64 { return c.frames.Load() }

// Enabled reports whether the traversal runs.
func (c *Context) Enabled() bool { return c.enabled.Load() }

// Enable resumes the pull traversal, configuring the graph first if a
// topology or parameter change is outstanding.
func (c *Context) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured {
		if err := c.configureLocked(); err != nil {
			return err
		}
	}
	c.enabled.Store(true)
	return nil
}

// Disable suspends the traversal. Audio time halts: no node processes
// and no param advances until Enable.
func (c *Context) Disable() { c.enabled.Store(false) }

// AddNode registers a node with this context and assigns it a stable
// identifier. The node starts enabled; it becomes part of the traversal
// once connected or auto-pulled. A fresh node has no edges, so a
// running configuration stays valid: the node is configured when it
// first joins the traversal.
func (c *Context) AddNode(n Node) error {
	nc := n.core()
	if !nc.ctx.CompareAndSwap(nil, c) {
		if nc.ctx.Load() == c {
			return nil
		}
		return fmt.Errorf("%w: already owned elsewhere", ErrNotOwned)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	nc.id = xid.New().String()
	nc.enabled.Store(true)
	if len(nc.inputs) == 0 {
		nc.inputs = make([]inputBus, 1)
	}
	c.nodes[nc.id] = n
	return nil
}

// RemoveNode disconnects the node from every neighbor and releases it
// from the registry. On an enabled context the remaining graph is
// reconfigured immediately so rendering continues without a gap.
func (c *Context) RemoveNode(n Node) error {
	nc := n.core()
	if nc.ctx.Load() != c {
		return ErrNotOwned
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectAllLocked(n)
	delete(c.nodes, nc.id)
	delete(c.autoPulled, nc.id)
	if c.output == n {
		c.output = nil
	}
	if d, ok := n.(Deinitializer); ok && nc.initialized {
		d.Deinit()
	}
	nc.initialized = false
	nc.ctx.Store(nil)
	nc.channels = 0
	c.configured = false
	if c.enabled.Load() {
		return c.configureLocked()
	}
	return nil
}

// SetOutput designates the node whose pull drives the traversal. The
// output endpoint is hardware-facing: RenderBlock copies its block into
// the destination.
func (c *Context) SetOutput(n Node) error {
	if n != nil && n.core().ctx.Load() != c {
		return ErrNotOwned
	}
	if c.rendering.Load() {
		return ErrInsideCallback
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = n
	c.configured = false
	return c.configureLocked()
}

// Output returns the designated output node, or nil.
func (c *Context) Output() Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// AddAutoPulled registers a node to be pulled once per block even when
// it is not reachable from the output endpoint. Monitors and recorders
// rely on this to run without contributing audibly.
func (c *Context) AddAutoPulled(n Node) error {
	nc := n.core()
	if nc.ctx.Load() != c {
		return ErrNotOwned
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoPulled[nc.id] = n
	c.configured = false
	if c.enabled.Load() {
		return c.configureLocked()
	}
	return nil
}

// RemoveAutoPulled removes the node from the auto-pull set.
func (c *Context) RemoveAutoPulled(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.autoPulled, n.core().id)
}

// SetSampleRate changes the samplerate for every owned node. This is an
// atomic graph-wide operation: the traversal is quiesced, every node is
// deinitialized and reinitialized with the new rate, then the traversal
// resumes. Must not be called from within a render callback.
func (c *Context) SetSampleRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("graph: sample rate must be > 0: %d", rate)
	}
	if c.rendering.Load() {
		return ErrInsideCallback
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleRate = rate
	c.configured = false
	return c.configureLocked()
}

// SetFramesPerBlock changes the block size for every owned node, with
// the same atomic semantics as SetSampleRate.
func (c *Context) SetFramesPerBlock(frames int) error {
	if frames <= 0 {
		return fmt.Errorf("graph: frames per block must be > 0: %d", frames)
	}
	if c.rendering.Load() {
		return ErrInsideCallback
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesPerBlock = frames
	c.configured = false
	return c.configureLocked()
}

// ReportFault queues an asynchronous fault for the control role. The
// render role calls this instead of propagating errors; when the queue
// is full the fault is dropped rather than blocking.
func (c *Context) ReportFault(err error) {
	if err == nil {
		return
	}
	select {
	case c.faults <- err:
	default:
	}
}

// Faults exposes the asynchronous fault queue. Runtime faults (device
// dropouts, substituted silence) arrive here for recovery decisions.
func (c *Context) Faults() <-chan error { return c.faults }
