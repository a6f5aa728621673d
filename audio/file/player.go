package file

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/graph"
)

// Player plays back a fully preloaded Source. The entire stream is
// decoded once at construction, so the render path only copies.
type Player struct {
	graph.NodeCore

	samples *buffer.Buffer[float64]
	rate    int

	playing atomic.Bool
	loop    atomic.Bool
	head    atomic.Int64
}

// NewPlayer decodes all of src into memory. The caller keeps ownership
// of src and may close it afterwards.
func NewPlayer(src Source) (*Player, error) {
	if err := src.SeekFrame(0); err != nil {
		return nil, err
	}
	samples, err := ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("file: preload: %w", err)
	}
	p := &Player{samples: samples, rate: src.SampleRate()}
	p.SetChannels(samples.Channels())
	return p, nil
}

// Start begins playback from the current position.
func (p *Player) Start() { p.playing.Store(true) }

// Stop pauses playback, keeping the position.
func (p *Player) Stop() { p.playing.Store(false) }

// SetLoop toggles wrap-around at the end of the stream.
func (p *Player) SetLoop(loop bool) { p.loop.Store(loop) }

// Seek repositions playback. Takes effect at the next block boundary.
func (p *Player) Seek(frame int) error {
	if frame < 0 || frame > p.samples.Frames() {
		return fmt.Errorf("%w: frame %d of %d", ErrSeekOutOfRange, frame, p.samples.Frames())
	}
	p.head.Store(int64(frame))
	return nil
}

// Position returns the playback position in frames.
func (p *Player) Position() int { return int(p.head.Load()) }

// Playing reports whether the player is producing samples.
func (p *Player) Playing() bool { return p.playing.Load() }

// SourceSampleRate returns the native rate of the preloaded stream.
// Playback does not resample; a mismatch with the context rate shifts
// pitch accordingly.
func (p *Player) SourceSampleRate() int { return p.rate }

func (p *Player) Process(buf *graph.Block) {
	buf.Zero()
	if !p.playing.Load() {
		return
	}
	head := int(p.head.Load())
	total := p.samples.Frames()
	channels := min(buf.Channels(), p.samples.Channels())
	at := 0
	for at < buf.Frames() {
		if head >= total {
			if !p.loop.Load() {
				p.playing.Store(false)
				break
			}
			head = 0
		}
		n := min(buf.Frames()-at, total-head)
		for ch := 0; ch < channels; ch++ {
			copy(buf.Channel(ch)[at:at+n], p.samples.Channel(ch)[head:head+n])
		}
		at += n
		head += n
	}
	p.head.Store(int64(head))
}
