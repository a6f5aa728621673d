// Package fx provides effect nodes operating on their summed input:
// parameter-driven gain, equal-power stereo panning, and a fixed delay
// suitable for building feedback loops.
package fx

import (
	"math"

	"github.com/cwbudde/algo-audio/audio/graph"
	"github.com/cwbudde/algo-audio/audio/param"
	"github.com/cwbudde/algo-vecmath"
)

// Gain scales its input by an automatable level. Level is evaluated
// once per sample frame, so ramps apply sample-accurately across the
// block.
type Gain struct {
	graph.NodeCore
	Level *param.Param

	levelBuf []float64
}

// NewGain returns a gain node at the given initial level.
func NewGain(level float64) *Gain {
	g := &Gain{Level: param.New(level)}
	g.SetChannelMode(graph.ChannelsMatchInputs)
	return g
}

// Params exposes the level control to the owning context.
func (g *Gain) Params() []*param.Param { return []*param.Param{g.Level} }

// Init sizes the per-block level scratch.
func (g *Gain) Init(cfg graph.Config) error {
	g.levelBuf = make([]float64, cfg.FramesPerBlock)
	return nil
}

func (g *Gain) Process(buf *graph.Block) {
	frames := buf.Frames()
	g.Level.Eval(g.levelBuf[:frames])
	for ch := 0; ch < buf.Channels(); ch++ {
		vecmath.MulBlockInPlace(buf.Channel(ch)[:frames], g.levelBuf[:frames])
	}
}

// Pan positions its input in a stereo field with an equal-power law.
// Pos ranges from -1 (hard left) through 0 (center) to 1 (hard right).
// The node always produces two channels.
type Pan struct {
	graph.NodeCore
	Pos *param.Param

	posBuf []float64
}

// NewPan returns a pan node at the given initial position.
func NewPan(pos float64) *Pan {
	p := &Pan{Pos: param.New(pos)}
	p.SetChannels(2)
	return p
}

// Params exposes the position control to the owning context.
func (p *Pan) Params() []*param.Param { return []*param.Param{p.Pos} }

// Init sizes the per-block position scratch.
func (p *Pan) Init(cfg graph.Config) error {
	p.posBuf = make([]float64, cfg.FramesPerBlock)
	return nil
}

func (p *Pan) Process(buf *graph.Block) {
	frames := buf.Frames()
	p.Pos.Eval(p.posBuf[:frames])
	left, right := buf.Channel(0), buf.Channel(1)
	for i := 0; i < frames; i++ {
		angle := (p.posBuf[i] + 1) * (math.Pi / 4)
		left[i] *= math.Cos(angle)
		right[i] *= math.Sin(angle)
	}
}
