package file

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-audio/audio/buffer"
)

// WAVSource decodes a RIFF/WAVE file sequentially. Backward seeks
// rewind the decoder and skip forward, which is acceptable on the
// control role where all Source calls happen.
type WAVSource struct {
	f        *os.File
	dec      *wav.Decoder
	channels int
	rate     int
	frames   int
	pos      int
	scale    float64
	ib       *audio.IntBuffer
	closed   bool
}

// OpenWAV opens path for decoding. 16, 24 and 32 bit PCM files are
// supported.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file: open %s: %w", path, err)
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("file: %s: %w", path, err)
	}
	depth := int(dec.SampleBitDepth())
	if depth != 16 && depth != 24 && depth != 32 {
		f.Close()
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedDepth, depth)
	}
	format := dec.Format()
	bytesPerSample := depth / 8
	frames := int(dec.PCMLen()) / bytesPerSample / format.NumChannels
	return &WAVSource{
		f:        f,
		dec:      dec,
		channels: format.NumChannels,
		rate:     format.SampleRate,
		frames:   frames,
		scale:    float64(int64(1) << (depth - 1)),
		ib: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: depth,
		},
	}, nil
}

func (s *WAVSource) Frames() int     { return s.frames }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) SampleRate() int { return s.rate }

func (s *WAVSource) ReadFrames(dst *buffer.Buffer[float64], dstOffset, frames int) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if frames > dst.Frames()-dstOffset {
		frames = dst.Frames() - dstOffset
	}
	if frames <= 0 {
		return 0, nil
	}
	need := frames * s.channels
	if cap(s.ib.Data) < need {
		s.ib.Data = make([]int, need)
	}
	s.ib.Data = s.ib.Data[:need]
	samples, err := s.dec.PCMBuffer(s.ib)
	if err != nil {
		return 0, fmt.Errorf("file: decode: %w", err)
	}
	read := samples / s.channels
	channels := min(s.channels, dst.Channels())
	for ch := 0; ch < channels; ch++ {
		out := dst.Channel(ch)
		for i := 0; i < read; i++ {
			out[dstOffset+i] = float64(s.ib.Data[i*s.channels+ch]) / s.scale
		}
	}
	s.pos += read
	return read, nil
}

func (s *WAVSource) SeekFrame(frame int) error {
	if s.closed {
		return ErrClosed
	}
	if frame < 0 || frame > s.frames {
		return fmt.Errorf("%w: frame %d of %d", ErrSeekOutOfRange, frame, s.frames)
	}
	if frame < s.pos {
		if err := s.dec.Rewind(); err != nil {
			return fmt.Errorf("file: rewind: %w", err)
		}
		if err := s.dec.FwdToPCM(); err != nil {
			return fmt.Errorf("file: rewind: %w", err)
		}
		s.pos = 0
	}
	scratch := buffer.New[float64](8192, s.channels)
	for s.pos < frame {
		step := min(frame-s.pos, scratch.Frames())
		read, err := s.ReadFrames(scratch, 0, step)
		if err != nil {
			return err
		}
		if read == 0 {
			break
		}
	}
	return nil
}

func (s *WAVSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// WAVTarget encodes frames to a RIFF/WAVE file.
type WAVTarget struct {
	f        *os.File
	enc      *wav.Encoder
	format   SampleFormat
	channels int
	rate     int
	ib       *audio.IntBuffer
	closed   bool
}

// CreateWAV creates (or truncates) path for encoding in the given
// sample format.
func CreateWAV(path string, sampleRate, channels int, format SampleFormat) (*WAVTarget, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("file: create %s: %w", path, err)
	}
	// wav audio format tag: 1 is integer PCM, 3 is IEEE float
	tag := 1
	if format == SampleFloat32 {
		tag = 3
	}
	enc := wav.NewEncoder(f, sampleRate, format.BitDepth(), channels, tag)
	return &WAVTarget{
		f:        f,
		enc:      enc,
		format:   format,
		channels: channels,
		rate:     sampleRate,
		ib: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: format.BitDepth(),
		},
	}, nil
}

func (t *WAVTarget) Channels() int   { return t.channels }
func (t *WAVTarget) SampleRate() int { return t.rate }

func (t *WAVTarget) WriteFrames(src *buffer.Buffer[float64], srcOffset, frames int) error {
	if t.closed {
		return ErrClosed
	}
	if frames > src.Frames()-srcOffset {
		frames = src.Frames() - srcOffset
	}
	if frames <= 0 {
		return nil
	}
	if t.format == SampleFloat32 {
		for i := 0; i < frames; i++ {
			for ch := 0; ch < t.channels; ch++ {
				v := sampleAt(src, srcOffset+i, ch)
				if err := t.enc.WriteFrame(float32(v)); err != nil {
					return fmt.Errorf("file: encode: %w", err)
				}
			}
		}
		return nil
	}

	scale := float64(int64(1)<<(t.format.BitDepth()-1)) - 1
	need := frames * t.channels
	if cap(t.ib.Data) < need {
		t.ib.Data = make([]int, need)
	}
	t.ib.Data = t.ib.Data[:need]
	for i := 0; i < frames; i++ {
		for ch := 0; ch < t.channels; ch++ {
			v := sampleAt(src, srcOffset+i, ch)
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			t.ib.Data[i*t.channels+ch] = int(v * scale)
		}
	}
	if err := t.enc.Write(t.ib); err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}
	return nil
}

// Close flushes the encoder and finalizes the RIFF header.
func (t *WAVTarget) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.enc.Close(); err != nil {
		t.f.Close()
		return fmt.Errorf("file: finalize: %w", err)
	}
	return t.f.Close()
}

// sampleAt reads frame i of channel ch, replicating the last channel
// when src has fewer channels than the target.
func sampleAt(src *buffer.Buffer[float64], i, ch int) float64 {
	if ch >= src.Channels() {
		ch = src.Channels() - 1
	}
	return src.Channel(ch)[i]
}
