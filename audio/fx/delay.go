package fx

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/delay"

	"github.com/cwbudde/algo-audio/audio/graph"
)

// Delay postpones its input by a fixed time. It declares cycle
// tolerance: because its output depends only on past input, it can sit
// on a feedback edge and supply delayed samples instead of requesting a
// new pull, breaking the recursion.
type Delay struct {
	graph.NodeCore

	seconds float64
	lines   []*delay.Line
}

// NewDelay returns a delay of the given length in seconds.
func NewDelay(seconds float64) *Delay {
	d := &Delay{seconds: seconds}
	d.SetChannelMode(graph.ChannelsMatchInputs)
	d.SetCycleTolerant(true)
	return d
}

// Seconds returns the configured delay time.
func (d *Delay) Seconds() float64 { return d.seconds }

// Init allocates one delay line per negotiated channel.
func (d *Delay) Init(cfg graph.Config) error {
	frames := int(d.seconds * float64(cfg.SampleRate))
	if frames < 1 {
		frames = 1
	}
	d.lines = make([]*delay.Line, cfg.Channels)
	for ch := range d.lines {
		line, err := delay.New(frames)
		if err != nil {
			return fmt.Errorf("fx: delay line: %w", err)
		}
		d.lines[ch] = line
	}
	return nil
}

// Deinit drops the delay lines; Init rebuilds them at the new rate.
func (d *Delay) Deinit() { d.lines = nil }

func (d *Delay) Process(buf *graph.Block) {
	for ch := 0; ch < buf.Channels() && ch < len(d.lines); ch++ {
		line := d.lines[ch]
		n := line.Len()
		data := buf.Channel(ch)
		for i := range data {
			in := data[i]
			data[i] = line.Read(n)
			line.Write(in)
		}
	}
}
