package file

import "github.com/cwbudde/algo-audio/audio/buffer"

// SampleFormat selects the persisted sample representation of a Target.
type SampleFormat int

const (
	SampleInt16 SampleFormat = iota
	SampleInt24
	SampleFloat32
)

// BitDepth returns the bits per sample of the format.
func (f SampleFormat) BitDepth() int {
	switch f {
	case SampleInt16:
		return 16
	case SampleInt24:
		return 24
	default:
		return 32
	}
}

// Source is a decoding collaborator. ReadFrames decodes up to frames
// frames into dst starting at frame offset dstOffset, returning how
// many frames were actually decoded; a short count signals the end of
// the stream. SeekFrame repositions the decode cursor.
//
// Sources are not safe for concurrent use.
type Source interface {
	ReadFrames(dst *buffer.Buffer[float64], dstOffset, frames int) (int, error)
	SeekFrame(frame int) error
	Frames() int
	Channels() int
	SampleRate() int
	Close() error
}

// Target is an encoding collaborator. WriteFrames encodes frames
// frames of src starting at frame offset srcOffset.
type Target interface {
	WriteFrames(src *buffer.Buffer[float64], srcOffset, frames int) error
	Channels() int
	SampleRate() int
	Close() error
}

// ReadAll drains src from its current position into a single buffer.
func ReadAll(src Source) (*buffer.Buffer[float64], error) {
	if n := src.Frames(); n > 0 {
		dst := buffer.New[float64](n, src.Channels())
		read, err := src.ReadFrames(dst, 0, n)
		if err != nil {
			return nil, err
		}
		if read < n {
			trimmed := buffer.New[float64](read, src.Channels())
			trimmed.CopyFrom(dst)
			return trimmed, nil
		}
		return dst, nil
	}

	// unknown length, grow in chunks
	const chunk = 8192
	channels := src.Channels()
	acc := make([][]float64, channels)
	tmp := buffer.New[float64](chunk, channels)
	total := 0
	for {
		read, err := src.ReadFrames(tmp, 0, chunk)
		if err != nil {
			return nil, err
		}
		if read == 0 {
			break
		}
		for ch := 0; ch < channels; ch++ {
			acc[ch] = append(acc[ch], tmp.Channel(ch)[:read]...)
		}
		total += read
		if read < chunk {
			break
		}
	}
	dst := buffer.New[float64](total, channels)
	for ch := 0; ch < channels; ch++ {
		copy(dst.Channel(ch), acc[ch])
	}
	return dst, nil
}
