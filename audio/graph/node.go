package graph

import (
	"sync/atomic"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/param"
)

// Block is the planar sample container nodes process. Its dimensions are
// managed by the owning Context: frames-per-block frames, the node's
// negotiated channel count.
type Block = buffer.Dynamic[float64]

// ChannelMode declares how a node resolves its working channel count at
// configuration time.
type ChannelMode int

const (
	// ChannelsSpecified uses the count supplied at construction.
	ChannelsSpecified ChannelMode = iota
	// ChannelsMatchInputs resolves to the widest connected input.
	ChannelsMatchInputs
	// ChannelsMatchOutput resolves to the count its connected output
	// destination expects.
	ChannelsMatchOutput
)

// Node is the processing unit of the graph. Concrete nodes embed
// NodeCore and implement Process, which runs on the render thread once
// per block with the node's inputs already summed into buf. Process
// must not block or allocate.
type Node interface {
	Process(buf *Block)
	core() *nodeCore
}

// Initializer is an optional node capability, invoked whenever the
// owning context (re)configures the graph: after channel negotiation,
// with final buffer sizes in place. Nodes allocate internal state here
// rather than on the render path.
type Initializer interface {
	Init(cfg Config) error
}

// Deinitializer is the optional counterpart to Initializer, invoked
// before a node is reinitialized or its context is torn down.
type Deinitializer interface {
	Deinit()
}

// ParamCarrier is an optional node capability exposing the node's
// automatable parameters, letting the context keep their sample rate in
// step during reconfiguration.
type ParamCarrier interface {
	Params() []*param.Param
}

// Config carries the context-wide processing parameters handed to nodes
// at initialization.
type Config struct {
	SampleRate     int
	FramesPerBlock int
	Channels       int
}

// nodeCore is the graph-managed state shared by every node. Concrete
// nodes obtain it by embedding NodeCore.
type nodeCore struct {
	id      string
	ctx     atomic.Pointer[Context] // owning context, claimed by CAS so two contexts cannot both adopt
	enabled atomic.Bool

	mode          ChannelMode
	wantChannels  int // construction-time request, ChannelsSpecified only
	channels      int // negotiated
	cycleTolerant bool

	inputs []inputBus // index = input bus
	outs   []Node     // downstream consumers, duplicates allowed (multigraph)

	// render state, guarded by the context's graph lock
	tick     uint64 // last tick this node was processed
	pulling  bool   // traversal currently inside this node
	out      *Block // internal processing buffer
	cur      *Block // buffer holding this tick's output (out, or upstream when in place)
	prev        *Block // previous block's output, kept only for nodes on a cycle
	inCycle     bool
	initialized bool // Init has run and no Deinit has followed
}

type inputBus struct {
	sources []Node
}

// NodeCore provides the embeddable implementation of the graph-facing
// half of a Node. A zero NodeCore is ready to use: one input bus,
// channel mode ChannelsMatchInputs, enabled once added to a context.
type NodeCore struct {
	nc nodeCore
}

func (c *NodeCore) core() *nodeCore { return &c.nc }

// SetChannelMode declares the channel negotiation mode. Call before the
// node is added to a context; changing it afterwards takes effect at
// the next graph configuration.
func (c *NodeCore) SetChannelMode(m ChannelMode) { c.nc.mode = m }

// ChannelMode returns the declared negotiation mode.
func (c *NodeCore) ChannelMode() ChannelMode { return c.nc.mode }

// SetChannels requests a fixed channel count and switches the node to
// ChannelsSpecified.
func (c *NodeCore) SetChannels(n int) {
	c.nc.mode = ChannelsSpecified
	c.nc.wantChannels = n
}

// Channels returns the negotiated channel count. Zero until the owning
// context has configured the graph.
func (c *NodeCore) Channels() int { return c.nc.channels }

// SetCycleTolerant declares that this node may participate in feedback
// cycles by supplying the previous block's output on the cyclic edge.
func (c *NodeCore) SetCycleTolerant(v bool) { c.nc.cycleTolerant = v }

// CycleTolerant reports the declared cycle tolerance.
func (c *NodeCore) CycleTolerant() bool { return c.nc.cycleTolerant }

// Enable makes the node process its inputs. A disabled node forwards
// its summed input unchanged (aside from channel matching).
func (c *NodeCore) Enable() { c.nc.enabled.Store(true) }

// Disable turns the node into a transparent pass-through.
func (c *NodeCore) Disable() { c.nc.enabled.Store(false) }

// Enabled reports whether the node processes its inputs.
func (c *NodeCore) Enabled() bool { return c.nc.enabled.Load() }

// ID returns the stable identifier assigned when the node was added to
// a context. Empty before that.
func (c *NodeCore) ID() string { return c.nc.id }

// Context returns the owning context, or nil.
func (c *NodeCore) Context() *Context { return c.nc.ctx.Load() }

// LastOutput returns the node's most recently produced block, or nil if
// the node has not been processed yet. Render thread only; monitors use
// it to snapshot upstream data.
func (c *NodeCore) LastOutput() *Block { return c.nc.cur }
