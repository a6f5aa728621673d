package graph

import (
	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-vecmath"
)

// RenderBlock runs one pull traversal and writes the output endpoint's
// block into dst, channel-matched. It is the per-callback entry point:
// hardware endpoints call it from their data callback, tests and
// offline renderers call it directly. dst may be nil when only
// auto-pulled nodes matter (pure analysis or recording graphs.)
//
// RenderBlock never blocks. A disabled context, an unconfigured graph,
// or a graph lock held by the control role all yield one block of
// silence; audio time advances only when the traversal actually runs.
func (c *Context) RenderBlock(dst *buffer.Buffer[float64]) {
	if dst != nil {
		dst.Zero()
	}
	if !c.enabled.Load() {
		return
	}
	if !c.mu.TryLock() {
		return
	}
	defer c.mu.Unlock()
	if !c.configured {
		return
	}

	c.rendering.Store(true)
	defer c.rendering.Store(false)

	c.tick++
	if c.output != nil {
		out := pull(c.output, c.tick)
		if dst != nil {
			remixCopy(dst, &out.Buffer)
		}
	}
	for _, n := range c.autoPulled {
		pull(n, c.tick)
	}
	c.frames.Add(uint64(c.framesPerBlock))
}

// pull produces node n's block for the given tick, recursively pulling
// its inputs first. Each node processes exactly once per tick; later
// arrivals via other paths (fan-out) reuse the memoized block. A cyclic
// re-entry returns the previous tick's output instead of recursing.
func pull(n Node, tick uint64) *Block {
	nc := n.core()
	if nc.pulling {
		if nc.prev != nil {
			return nc.prev
		}
		return nc.out
	}
	if nc.tick == tick {
		return nc.cur
	}
	nc.pulling = true

	buf := nc.out
	if single := singleSource(nc); single != nil {
		src := pull(single, tick)
		sc := single.core()
		if src.Channels() == nc.channels && len(sc.outs) == 1 && src != sc.prev {
			// lone matching input with a lone consumer: mutate in place
			buf = src
		} else {
			nc.out.Zero()
			sumInto(nc.out, src)
		}
	} else {
		nc.out.Zero()
		for bi := range nc.inputs {
			for _, s := range nc.inputs[bi].sources {
				sumInto(nc.out, pull(s, tick))
			}
		}
	}

	if nc.enabled.Load() {
		n.Process(buf)
	}
	nc.cur = buf
	nc.tick = tick
	nc.pulling = false
	if nc.prev != nil {
		nc.prev.CopyFrom(&buf.Buffer)
	}
	return buf
}

func singleSource(nc *nodeCore) Node {
	var single Node
	for bi := range nc.inputs {
		for _, s := range nc.inputs[bi].sources {
			if single != nil {
				return nil
			}
			single = s
		}
	}
	return single
}

// sumInto accumulates src into dst after channel matching: equal counts
// add channel-wise, mono upmixes by replication, wider sources downmix
// to mono by averaging, and otherwise the overlapping channels add.
func sumInto(dst, src *Block) {
	frames := min(dst.Frames(), src.Frames())
	sn, dn := src.Channels(), dst.Channels()
	switch {
	case sn == 0 || dn == 0:
	case sn == dn:
		for ch := 0; ch < dn; ch++ {
			vecmath.AddBlockInPlace(dst.Channel(ch)[:frames], src.Channel(ch)[:frames])
		}
	case sn == 1:
		for ch := 0; ch < dn; ch++ {
			vecmath.AddBlockInPlace(dst.Channel(ch)[:frames], src.Channel(0)[:frames])
		}
	case dn == 1:
		out := dst.Channel(0)[:frames]
		gain := 1 / float64(sn)
		for ch := 0; ch < sn; ch++ {
			in := src.Channel(ch)
			for i := range out {
				out[i] += in[i] * gain
			}
		}
	default:
		for ch := 0; ch < min(sn, dn); ch++ {
			vecmath.AddBlockInPlace(dst.Channel(ch)[:frames], src.Channel(ch)[:frames])
		}
	}
}

// remixCopy overwrites dst with src under the same channel-matching
// rules as sumInto, without accumulation.
func remixCopy(dst, src *buffer.Buffer[float64]) {
	frames := min(dst.Frames(), src.Frames())
	sn, dn := src.Channels(), dst.Channels()
	switch {
	case sn == 0 || dn == 0:
	case sn == 1:
		for ch := 0; ch < dn; ch++ {
			copy(dst.Channel(ch)[:frames], src.Channel(0)[:frames])
		}
	case dn == 1:
		out := dst.Channel(0)[:frames]
		gain := 1 / float64(sn)
		vecmath.ScaleBlock(out, src.Channel(0)[:frames], gain)
		for ch := 1; ch < sn; ch++ {
			in := src.Channel(ch)
			for i := range out {
				out[i] += in[i] * gain
			}
		}
	default:
		for ch := 0; ch < min(sn, dn); ch++ {
			copy(dst.Channel(ch)[:frames], src.Channel(ch)[:frames])
		}
	}
}
