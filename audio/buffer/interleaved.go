package buffer

// Interleaved is a fixed-size multi-channel sample container with frame
// interleaving: the storage holds one sample per channel for frame 0,
// then frame 1, and so on. Hardware callbacks and file codecs commonly
// use this layout; the graph itself works on planar buffers.
type Interleaved[S Sample] struct {
	frames   int
	channels int
	data     []S
}

// NewInterleaved returns a zero-filled interleaved buffer with the given
// dimensions. Negative dimensions are treated as zero.
func NewInterleaved[S Sample](frames, channels int) *Interleaved[S] {
	if frames < 0 {
		frames = 0
	}
	if channels < 0 {
		channels = 0
	}
	return &Interleaved[S]{
		frames:   frames,
		channels: channels,
		data:     make([]S, frames*channels),
	}
}

// WrapInterleaved wraps an existing interleaved slice without copying.
// len(data) must equal frames*channels.
func WrapInterleaved[S Sample](data []S, channels int) *Interleaved[S] {
	if channels <= 0 {
		return &Interleaved[S]{}
	}
	return &Interleaved[S]{
		frames:   len(data) / channels,
		channels: channels,
		data:     data,
	}
}

// Frames returns the number of sample frames.
func (b *Interleaved[S]) Frames() int { return b.frames }

// Channels returns the number of channels.
func (b *Interleaved[S]) Channels() int { return b.channels }

// Frame returns the samples of frame i, one per channel.
func (b *Interleaved[S]) Frame(i int) []S {
	offset := i * b.channels
	return b.data[offset : offset+b.channels : offset+b.channels]
}

// Data returns the full backing storage.
func (b *Interleaved[S]) Data() []S { return b.data[:b.frames*b.channels] }

// Zero sets every sample to 0.
func (b *Interleaved[S]) Zero() {
	data := b.Data()
	for i := range data {
		data[i] = 0
	}
}

// Deinterleave copies src into dst, converting interleaved frames into
// planar channel regions. The overlap of both dimensions is copied.
func Deinterleave[S Sample](dst *Buffer[S], src *Interleaved[S]) {
	frames := min(dst.Frames(), src.frames)
	channels := min(dst.Channels(), src.channels)
	for ch := 0; ch < channels; ch++ {
		out := dst.Channel(ch)
		for i := 0; i < frames; i++ {
			out[i] = src.data[i*src.channels+ch]
		}
	}
}

// Interleave copies src into dst, converting planar channel regions into
// interleaved frames. The overlap of both dimensions is copied.
func Interleave[S Sample](dst *Interleaved[S], src *Buffer[S]) {
	frames := min(dst.frames, src.Frames())
	channels := min(dst.channels, src.Channels())
	for ch := 0; ch < channels; ch++ {
		in := src.Channel(ch)
		for i := 0; i < frames; i++ {
			dst.data[i*dst.channels+ch] = in[i]
		}
	}
}
