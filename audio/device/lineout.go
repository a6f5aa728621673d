package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/graph"
	"github.com/cwbudde/algo-audio/internal/log"
)

// Option configures a LineOut.
type Option func(*LineOut)

// WithDevice routes output to the endpoint with the given Info.ID
// instead of the system default.
func WithDevice(id string) Option {
	return func(l *LineOut) { l.deviceID = id }
}

// WithChannels overrides the hardware channel count. Default is the
// channel count of the context's output endpoint, or stereo.
func WithChannels(channels int) Option {
	return func(l *LineOut) {
		if channels > 0 {
			l.channels = channels
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger log.Logger) Option {
	return func(l *LineOut) { l.logger = logger }
}

// LineOut owns a hardware playback device and drives the context's
// render traversal from its data callback. The hardware period size
// need not match the context block size; a carry buffer bridges the
// two.
type LineOut struct {
	gctx     *graph.Context
	logger   log.Logger
	deviceID string
	channels int

	mctx *malgo.AllocatedContext
	dev  *malgo.Device

	mu      sync.Mutex
	running bool
	active  atomic.Bool // readable from callback threads

	block *buffer.Buffer[float64]
	at    int // frames of block already delivered
	have  int // valid frames in block
}

// NewLineOut binds gctx to a playback device. Call Start to open the
// hardware.
func NewLineOut(gctx *graph.Context, opts ...Option) *LineOut {
	l := &LineOut{gctx: gctx}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.New()
	}
	if l.channels == 0 {
		if out := gctx.Output(); out != nil {
			if c, ok := out.(interface{ Channels() int }); ok {
				l.channels = c.Channels()
			}
		}
	}
	if l.channels == 0 {
		l.channels = 2
	}
	return l
}

// Start opens the device and begins pulling blocks from the context.
func (l *LineOut) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		l.logger.Debugf("miniaudio: %s", message)
	})
	if err != nil {
		return fmt.Errorf("device: init context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(l.channels)
	cfg.SampleRate = uint32(l.gctx.SampleRate())
	cfg.PeriodSizeInFrames = uint32(l.gctx.FramesPerBlock())
	cfg.Alsa.NoMMap = 1

	if l.deviceID != "" {
		infos, err := mctx.Devices(malgo.Playback)
		if err != nil {
			uninit(mctx)
			return fmt.Errorf("device: enumerate: %w", err)
		}
		found := false
		for _, info := range infos {
			if decodeID(info.ID.String()) == l.deviceID {
				cfg.Playback.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			uninit(mctx)
			return fmt.Errorf("%w: %s", ErrNoDevice, l.deviceID)
		}
	}

	l.block = buffer.New[float64](l.gctx.FramesPerBlock(), l.channels)
	l.at = 0
	l.have = 0

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: l.data,
		Stop: l.stopped,
	})
	if err != nil {
		uninit(mctx)
		return fmt.Errorf("device: init device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		uninit(mctx)
		return fmt.Errorf("device: start: %w", err)
	}

	l.mctx = mctx
	l.dev = dev
	l.running = true
	l.active.Store(true)
	l.logger.Infof("device: playback started, %d ch @ %d Hz", l.channels, l.gctx.SampleRate())
	return nil
}

// Stop closes the device. The context itself stays enabled; rendering
// just no longer reaches hardware.
func (l *LineOut) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return nil
	}
	l.running = false
	l.active.Store(false)
	l.dev.Uninit()
	l.dev = nil
	uninit(l.mctx)
	l.mctx = nil
	l.logger.Infof("device: playback stopped")
	return nil
}

// Running reports whether the hardware device is open.
func (l *LineOut) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// data is the miniaudio callback. It must not block or allocate; any
// internal fault degrades to silence for the remainder of the period.
func (l *LineOut) data(pOutput, _ []byte, frameCount uint32) {
	defer func() {
		if r := recover(); r != nil {
			for i := range pOutput {
				pOutput[i] = 0
			}
			l.gctx.ReportFault(fmt.Errorf("device: render fault: %v", r))
		}
	}()

	const bytesPerSample = 4
	need := int(frameCount)
	off := 0
	for need > 0 {
		if l.at >= l.have {
			l.gctx.RenderBlock(l.block)
			l.at = 0
			l.have = l.block.Frames()
		}
		n := min(need, l.have-l.at)
		for i := 0; i < n; i++ {
			for ch := 0; ch < l.channels; ch++ {
				bits := math.Float32bits(float32(l.block.Channel(ch)[l.at+i]))
				binary.LittleEndian.PutUint32(pOutput[off:], bits)
				off += bytesPerSample
			}
		}
		l.at += n
		need -= n
	}
}

// stopped fires when the device halts. A deliberate Stop clears the
// active flag first, so only unexpected halts become faults.
func (l *LineOut) stopped() {
	if !l.active.Load() {
		return
	}
	l.gctx.ReportFault(fmt.Errorf("device: playback device stopped unexpectedly"))
	l.logger.Warnf("device: playback device stopped unexpectedly")
}

func uninit(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}
