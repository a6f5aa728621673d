package file

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/graph"
)

// streamDepth is how many decoded blocks the refill goroutine keeps
// ahead of the render role.
const streamDepth = 4

// chunk is one decoded block handed from the refill goroutine to the
// render role. last marks the final chunk before the stream ends.
// Buffers cycle through a free list so steady-state streaming does not
// allocate.
type chunk struct {
	buf    *buffer.Buffer[float64]
	frames int
	epoch  uint64
	last   bool
}

// StreamPlayer plays a Source of arbitrary length through a small
// prefetch queue refilled by a background goroutine. The render role
// only performs non-blocking channel operations; if the queue runs dry
// it substitutes silence and reports the underrun as a fault.
type StreamPlayer struct {
	graph.NodeCore

	src Source

	playing   atomic.Bool
	loop      atomic.Bool
	epoch     atomic.Uint64
	underruns atomic.Uint64

	chunks chan chunk
	free   chan *buffer.Buffer[float64]
	seekCh chan seekReq
	stop   chan struct{}
	done   chan struct{}

	// render-side remainder of a partially consumed chunk
	pend   chunk
	pendAt int
}

// NewStreamPlayer wraps src for streamed playback. The player owns src
// until Deinit; do not call Source methods concurrently.
func NewStreamPlayer(src Source) *StreamPlayer {
	s := &StreamPlayer{src: src}
	s.SetChannels(src.Channels())
	return s
}

func (s *StreamPlayer) Start()            { s.playing.Store(true) }
func (s *StreamPlayer) Stop()             { s.playing.Store(false) }
func (s *StreamPlayer) SetLoop(loop bool) { s.loop.Store(loop) }
func (s *StreamPlayer) Playing() bool     { return s.playing.Load() }

// Underruns returns how many blocks rendered silence because the
// prefetch queue was empty.
func (s *StreamPlayer) Underruns() uint64 { return s.underruns.Load() }

// seekReq carries a seek position together with the epoch it starts.
// The refill goroutine only tags chunks with a new epoch after it has
// repositioned the source, so pre-seek data never reaches the render
// role under the new epoch.
type seekReq struct {
	frame int
	epoch uint64
}

// Seek repositions the stream. Blocks decoded before the seek are
// discarded; the new position is audible after the prefetch queue
// turns over.
func (s *StreamPlayer) Seek(frame int) error {
	if frame < 0 || (s.src.Frames() > 0 && frame > s.src.Frames()) {
		return fmt.Errorf("%w: frame %d", ErrSeekOutOfRange, frame)
	}
	e := s.epoch.Add(1)
	if s.seekCh == nil {
		// not initialized yet, position the source directly
		return s.src.SeekFrame(frame)
	}
	// replace any not-yet-consumed seek request
	select {
	case <-s.seekCh:
	default:
	}
	s.seekCh <- seekReq{frame: frame, epoch: e}
	return nil
}

func (s *StreamPlayer) Init(cfg graph.Config) error {
	s.chunks = make(chan chunk, streamDepth)
	s.free = make(chan *buffer.Buffer[float64], streamDepth+1)
	for i := 0; i < streamDepth+1; i++ {
		s.free <- buffer.New[float64](cfg.FramesPerBlock, cfg.Channels)
	}
	s.seekCh = make(chan seekReq, 1)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.pend = chunk{}
	s.pendAt = 0
	go s.refill(cfg.FramesPerBlock)
	return nil
}

func (s *StreamPlayer) Deinit() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.seekCh = nil
}

// refill decodes ahead of the render role until stopped.
func (s *StreamPlayer) refill(framesPerBlock int) {
	defer close(s.done)
	var epoch uint64
	ended := false
	seek := func(req seekReq) {
		if err := s.src.SeekFrame(req.frame); err != nil {
			s.fault(fmt.Errorf("file: stream seek: %w", err))
		}
		epoch = req.epoch
		ended = false
	}
	for {
		var buf *buffer.Buffer[float64]
		select {
		case <-s.stop:
			return
		case req := <-s.seekCh:
			seek(req)
			continue
		case buf = <-s.free:
		}
		if ended {
			// hold the buffer until a seek restarts decoding
			select {
			case <-s.stop:
				return
			case req := <-s.seekCh:
				seek(req)
			}
		}
		// a seek may have raced the free-buffer receive
		select {
		case req := <-s.seekCh:
			seek(req)
		default:
		}
		read, err := s.src.ReadFrames(buf, 0, framesPerBlock)
		if err != nil {
			s.fault(fmt.Errorf("file: stream decode: %w", err))
			read = 0
		}
		if read < framesPerBlock {
			if s.loop.Load() && err == nil {
				if serr := s.src.SeekFrame(0); serr != nil {
					s.fault(fmt.Errorf("file: stream loop: %w", serr))
					ended = true
				}
			} else {
				ended = true
			}
		}
		select {
		case <-s.stop:
			return
		case s.chunks <- chunk{buf: buf, frames: read, epoch: epoch, last: ended}:
		}
	}
}

func (s *StreamPlayer) fault(err error) {
	if ctx := s.Context(); ctx != nil {
		ctx.ReportFault(err)
	}
}

func (s *StreamPlayer) Process(buf *graph.Block) {
	buf.Zero()
	if !s.playing.Load() {
		return
	}
	epoch := s.epoch.Load()
	channels := buf.Channels()
	at := 0
	for at < buf.Frames() {
		if s.pend.buf == nil || s.pend.epoch != epoch {
			s.release()
			if !s.next(epoch) {
				break
			}
		}
		n := min(buf.Frames()-at, s.pend.frames-s.pendAt)
		for ch := 0; ch < min(channels, s.pend.buf.Channels()); ch++ {
			copy(buf.Channel(ch)[at:at+n], s.pend.buf.Channel(ch)[s.pendAt:s.pendAt+n])
		}
		at += n
		s.pendAt += n
		if s.pendAt >= s.pend.frames {
			if s.pend.last {
				s.playing.Store(false)
				s.release()
				return
			}
			s.release()
		}
	}
	if at < buf.Frames() && s.playing.Load() {
		s.underruns.Add(1)
		s.fault(fmt.Errorf("file: stream underrun at frame %d", at))
	}
}

// next pops the next chunk of the current epoch without blocking.
func (s *StreamPlayer) next(epoch uint64) bool {
	for {
		select {
		case c := <-s.chunks:
			if c.epoch != epoch {
				s.free <- c.buf
				continue
			}
			s.pend = c
			s.pendAt = 0
			return true
		default:
			return false
		}
	}
}

func (s *StreamPlayer) release() {
	if s.pend.buf != nil {
		s.free <- s.pend.buf
		s.pend = chunk{}
	}
	s.pendAt = 0
}
