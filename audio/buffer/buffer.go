package buffer

// Sample is the element type a buffer can hold.
type Sample interface {
	~float32 | ~float64
}

// Buffer is a fixed-size planar (non-interleaved) multi-channel sample
// container. Channel data is stored contiguously, one region per channel,
// regions concatenated in channel order. The size is immutable after
// construction; use Dynamic for a growable variant.
type Buffer[S Sample] struct {
	frames   int
	channels int
	data     []S
}

// New returns a zero-filled planar buffer with the given dimensions.
// Negative dimensions are treated as zero.
func New[S Sample](frames, channels int) *Buffer[S] {
	if frames < 0 {
		frames = 0
	}
	if channels < 0 {
		channels = 0
	}
	return &Buffer[S]{
		frames:   frames,
		channels: channels,
		data:     make([]S, frames*channels),
	}
}

// Frames returns the number of sample frames per channel.
func (b *Buffer[S]) Frames() int { return b.frames }

// Channels returns the number of channels.
func (b *Buffer[S]) Channels() int { return b.channels }

// Channel returns the contiguous sample region of channel ch.
// ch must be in [0, Channels()).
func (b *Buffer[S]) Channel(ch int) []S {
	offset := ch * b.frames
	return b.data[offset : offset+b.frames : offset+b.frames]
}

// Data returns the full backing storage, Frames()*Channels() samples long.
func (b *Buffer[S]) Data() []S { return b.data[:b.frames*b.channels] }

// Zero sets every sample to 0.
func (b *Buffer[S]) Zero() {
	data := b.Data()
	for i := range data {
		data[i] = 0
	}
}

// ZeroFrames sets frames [start, end) on every channel to 0.
// Indices are clamped to valid bounds.
func (b *Buffer[S]) ZeroFrames(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > b.frames {
		end = b.frames
	}
	if start >= end {
		return
	}
	for ch := 0; ch < b.channels; ch++ {
		data := b.Channel(ch)
		for i := start; i < end; i++ {
			data[i] = 0
		}
	}
}

// Clone returns a deep copy of the buffer. The copy shares no storage
// with the original, making it safe to hand across a thread boundary.
func (b *Buffer[S]) Clone() *Buffer[S] {
	c := New[S](b.frames, b.channels)
	copy(c.data, b.Data())
	return c
}

// CopyFrom copies sample data from src channel by channel. The overlap
// of both dimensions is copied; the remainder of b is left untouched.
// It returns the number of frames copied.
func (b *Buffer[S]) CopyFrom(src *Buffer[S]) int {
	frames := min(b.frames, src.frames)
	channels := min(b.channels, src.channels)
	for ch := 0; ch < channels; ch++ {
		copy(b.Channel(ch)[:frames], src.Channel(ch)[:frames])
	}
	return frames
}
