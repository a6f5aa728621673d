package file

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/graph"
)

// Recorder captures its input into preallocated memory. Register it in
// the context's auto-pull set so it runs without contributing to the
// audible output; once stopped, WriteTo persists the take through a
// Target on the control role.
type Recorder struct {
	graph.NodeCore

	seconds float64
	rate    int

	take      *buffer.Buffer[float64]
	recording atomic.Bool
	written   atomic.Int64
}

// NewRecorder returns a recorder holding up to seconds of audio.
// Capacity is allocated when the owning context configures the graph.
func NewRecorder(seconds float64) *Recorder {
	r := &Recorder{seconds: seconds}
	r.SetChannelMode(graph.ChannelsMatchInputs)
	r.SetCycleTolerant(true)
	return r
}

func (r *Recorder) Init(cfg graph.Config) error {
	frames := int(r.seconds * float64(cfg.SampleRate))
	if frames < cfg.FramesPerBlock {
		frames = cfg.FramesPerBlock
	}
	r.take = buffer.New[float64](frames, cfg.Channels)
	r.rate = cfg.SampleRate
	r.written.Store(0)
	return nil
}

// Start begins capturing at the current write position.
func (r *Recorder) Start() { r.recording.Store(true) }

// Stop ends capturing. The take stays in place for WriteTo.
func (r *Recorder) Stop() { r.recording.Store(false) }

// Reset discards the take and rewinds the write position.
func (r *Recorder) Reset() { r.written.Store(0) }

// Recording reports whether the recorder is capturing.
func (r *Recorder) Recording() bool { return r.recording.Load() }

// RecordedFrames returns how many frames have been captured.
func (r *Recorder) RecordedFrames() int { return int(r.written.Load()) }

func (r *Recorder) Process(buf *graph.Block) {
	if !r.recording.Load() {
		return
	}
	at := int(r.written.Load())
	n := min(buf.Frames(), r.take.Frames()-at)
	if n <= 0 {
		r.recording.Store(false)
		return
	}
	channels := min(buf.Channels(), r.take.Channels())
	for ch := 0; ch < channels; ch++ {
		copy(r.take.Channel(ch)[at:at+n], buf.Channel(ch)[:n])
	}
	r.written.Store(int64(at + n))
}

// WriteTo encodes the captured frames through t. Call it with the
// recorder stopped; it does not close t.
func (r *Recorder) WriteTo(t Target) error {
	if r.recording.Load() {
		return fmt.Errorf("file: recorder still running")
	}
	frames := int(r.written.Load())
	if frames == 0 || r.take == nil {
		return nil
	}
	if err := t.WriteFrames(r.take, 0, frames); err != nil {
		return fmt.Errorf("file: write take: %w", err)
	}
	return nil
}
