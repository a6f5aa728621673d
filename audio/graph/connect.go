package graph

import "fmt"

// ConnectOption selects the buses a connection attaches to.
type ConnectOption func(*connectConfig)

type connectConfig struct {
	inputBus  int
	outputBus int
}

// WithInputBus routes the connection into the destination's input bus i.
// Bus 0 is the default; higher buses are created on demand.
func WithInputBus(i int) ConnectOption {
	return func(c *connectConfig) {
		if i > 0 {
			c.inputBus = i
		}
	}
}

// WithOutputBus tags the connection with the source's output bus i.
// The engine produces one signal per node; the bus index is kept for
// symmetric disconnection.
func WithOutputBus(i int) ConnectOption {
	return func(c *connectConfig) {
		if i > 0 {
			c.outputBus = i
		}
	}
}

// Connect registers src as a contributor to dst's input. Additional
// sources on the same bus are summed after channel matching, never
// replaced. Safe to call while the graph is processing: the change
// becomes visible at a block boundary.
func (c *Context) Connect(src, dst Node, opts ...ConnectOption) error {
	if src == dst {
		return ErrSelfConnection
	}
	sc, dc := src.core(), dst.core()
	if sc.ctx.Load() != c || dc.ctx.Load() != c {
		return ErrNotOwned
	}
	cfg := connectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if closesIntolerantCycle(src, dst) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, sc.id, dc.id)
	}

	for len(dc.inputs) <= cfg.inputBus {
		dc.inputs = append(dc.inputs, inputBus{})
	}
	dc.inputs[cfg.inputBus].sources = append(dc.inputs[cfg.inputBus].sources, src)
	sc.outs = append(sc.outs, dst)

	c.configured = false
	if c.enabled.Load() {
		return c.configureLocked()
	}
	return nil
}

// Disconnect removes one src -> dst edge. Symmetric to Connect and safe
// at any time, including while the graph is processing.
func (c *Context) Disconnect(src, dst Node, opts ...ConnectOption) error {
	sc, dc := src.core(), dst.core()
	if sc.ctx.Load() != c || dc.ctx.Load() != c {
		return ErrNotOwned
	}
	cfg := connectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.inputBus >= len(dc.inputs) || !removeNode(&dc.inputs[cfg.inputBus].sources, src) {
		return ErrNotConnected
	}
	removeNode(&sc.outs, dst)

	c.configured = false
	if c.enabled.Load() {
		return c.configureLocked()
	}
	return nil
}

func (c *Context) disconnectAllLocked(n Node) {
	nc := n.core()
	for bi := range nc.inputs {
		for _, src := range nc.inputs[bi].sources {
			removeNode(&src.core().outs, n)
		}
		nc.inputs[bi].sources = nil
	}
	for _, dst := range nc.outs {
		dc := dst.core()
		for bi := range dc.inputs {
			for removeNode(&dc.inputs[bi].sources, n) {
			}
		}
	}
	nc.outs = nil
}

func removeNode(list *[]Node, n Node) bool {
	for i, e := range *list {
		if e == n {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// closesIntolerantCycle reports whether adding src -> dst would close a
// cycle on which no node declares cycle tolerance. Such a cycle exists
// exactly when dst reaches src downstream through intolerant nodes only
// and neither endpoint is tolerant itself.
func closesIntolerantCycle(src, dst Node) bool {
	sc, dc := src.core(), dst.core()
	if sc.cycleTolerant || dc.cycleTolerant {
		return false
	}
	seen := map[*nodeCore]bool{}
	var walk func(n Node) bool
	walk = func(n Node) bool {
		nc := n.core()
		if nc == sc {
			return true
		}
		if seen[nc] || (nc.cycleTolerant && nc != dc) {
			return false
		}
		seen[nc] = true
		for _, next := range nc.outs {
			if walk(next) {
				return true
			}
		}
		return false
	}
	return walk(dst)
}

// configureLocked runs channel negotiation, sizes every node's buffers,
// and gives every owned node a deinitialize/initialize cycle. Called
// with the graph lock held; the traversal never observes an
// intermediate state.
func (c *Context) configureLocked() error {
	if err := c.negotiateLocked(); err != nil {
		return err
	}

	cfgBase := Config{
		SampleRate:     c.sampleRate,
		FramesPerBlock: c.framesPerBlock,
	}
	for _, n := range c.nodes {
		nc := n.core()
		if nc.channels == 0 {
			// Detached node sitting out negotiation. It keeps whatever
			// state it has until it joins the traversal.
			continue
		}
		if d, ok := n.(Deinitializer); ok && nc.initialized {
			d.Deinit()
		}
		if nc.out == nil {
			nc.out = &Block{}
		}
		nc.out.Resize(c.framesPerBlock, nc.channels)
		nc.cur = nil
		nc.tick = 0
		nc.pulling = false

		nc.inCycle = onCycle(n)
		if nc.inCycle {
			if nc.prev == nil {
				nc.prev = &Block{}
			}
			nc.prev.Resize(c.framesPerBlock, nc.channels)
		} else {
			nc.prev = nil
		}

		if pc, ok := n.(ParamCarrier); ok {
			for _, p := range pc.Params() {
				p.SetSampleRate(c.sampleRate)
			}
		}
		if ini, ok := n.(Initializer); ok {
			cfg := cfgBase
			cfg.Channels = nc.channels
			if err := ini.Init(cfg); err != nil {
				return fmt.Errorf("graph: init node %s: %w", nc.id, err)
			}
		}
		nc.initialized = true
	}
	c.configured = true
	return nil
}

// negotiateLocked resolves every node's channel count from its declared
// mode. Nodes with no edges that are neither the output endpoint nor
// auto-pulled take no part in the traversal and sit out negotiation
// entirely. Resolution iterates to a fixpoint: specified counts seed
// the first pass, derived modes resolve once every neighbor they depend
// on has. When a strict pass stalls (a feedback cycle of derived
// modes), a single node binds to its widest already-resolved input and
// strict iteration resumes. The relaxed node is the unresolved
// candidate with the lowest id, so the widths chosen on a cycle are the
// same on every configuration of the same graph.
func (c *Context) negotiateLocked() error {
	detached := make(map[*nodeCore]bool)
	remaining := 0
	for _, n := range c.nodes {
		nc := n.core()
		nc.channels = 0
		if c.detachedLocked(n) {
			detached[nc] = true
			continue
		}
		remaining++
	}
	for pass := 0; pass <= 2*len(c.nodes)+2 && remaining > 0; pass++ {
		progressed := false
		for _, n := range c.nodes {
			nc := n.core()
			if nc.channels != 0 || detached[nc] {
				continue
			}
			if ch := resolveChannels(nc, true); ch > 0 {
				nc.channels = ch
				remaining--
				progressed = true
			}
		}
		if progressed {
			continue
		}
		var pick *nodeCore
		for _, n := range c.nodes {
			nc := n.core()
			if nc.channels != 0 || detached[nc] {
				continue
			}
			if resolveChannels(nc, false) > 0 && (pick == nil || nc.id < pick.id) {
				pick = nc
			}
		}
		if pick == nil {
			break
		}
		pick.channels = resolveChannels(pick, false)
		remaining--
	}
	if remaining > 0 {
		for _, n := range c.nodes {
			nc := n.core()
			if nc.channels == 0 && !detached[nc] {
				return fmt.Errorf("%w: node %s (mode %d)", ErrChannelNegotiation, nc.id, nc.mode)
			}
		}
	}
	return nil
}

// detachedLocked reports whether n takes no part in the traversal: no
// edge in either direction, not the output endpoint, not auto-pulled.
func (c *Context) detachedLocked(n Node) bool {
	if c.output == n {
		return false
	}
	nc := n.core()
	if _, ok := c.autoPulled[nc.id]; ok {
		return false
	}
	if len(nc.outs) > 0 {
		return false
	}
	for bi := range nc.inputs {
		if len(nc.inputs[bi].sources) > 0 {
			return false
		}
	}
	return true
}

func resolveChannels(nc *nodeCore, strict bool) int {
	switch nc.mode {
	case ChannelsSpecified:
		if nc.wantChannels <= 0 {
			return 0
		}
		return nc.wantChannels
	case ChannelsMatchInputs:
		widest := 0
		for bi := range nc.inputs {
			for _, src := range nc.inputs[bi].sources {
				ch := src.core().channels
				if ch == 0 {
					if strict {
						return 0
					}
					continue
				}
				if ch > widest {
					widest = ch
				}
			}
		}
		return widest
	case ChannelsMatchOutput:
		for _, dst := range nc.outs {
			if ch := dst.core().channels; ch > 0 {
				return ch
			}
		}
		return 0
	}
	return 0
}

// onCycle reports whether n can reach itself downstream. Only such
// nodes keep a previous-block copy for the traversal to read when a
// cyclic edge re-enters them.
func onCycle(n Node) bool {
	start := n.core()
	seen := map[*nodeCore]bool{}
	var walk func(m Node) bool
	walk = func(m Node) bool {
		mc := m.core()
		if seen[mc] {
			return false
		}
		seen[mc] = true
		for _, next := range mc.outs {
			if next.core() == start || walk(next) {
				return true
			}
		}
		return false
	}
	return walk(n)
}
