package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-audio/audio/buffer"
	"github.com/cwbudde/algo-audio/audio/file"
)

// writeRamp encodes frames of a deterministic two-channel ramp and
// returns the path.
func writeRamp(t *testing.T, frames int, format file.SampleFormat) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ramp.wav")
	target, err := file.CreateWAV(path, 8000, 2, format)
	require.NoError(t, err)

	src := buffer.New[float64](frames, 2)
	for i := 0; i < frames; i++ {
		src.Channel(0)[i] = float64(i) / float64(frames)
		src.Channel(1)[i] = -float64(i) / float64(frames)
	}
	require.NoError(t, target.WriteFrames(src, 0, frames))
	require.NoError(t, target.Close())
	return path
}

func TestWAVRoundTripInt16(t *testing.T) {
	const frames = 64
	path := writeRamp(t, frames, file.SampleInt16)

	src, err := file.OpenWAV(path)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.Channels())
	require.Equal(t, 8000, src.SampleRate())
	require.Equal(t, frames, src.Frames())

	got, err := file.ReadAll(src)
	require.NoError(t, err)
	require.Equal(t, frames, got.Frames())
	for i := 0; i < frames; i++ {
		want := float64(i) / frames
		require.InDelta(t, want, got.Channel(0)[i], 1e-3, "frame %d left", i)
		require.InDelta(t, -want, got.Channel(1)[i], 1e-3, "frame %d right", i)
	}
}

func TestWAVRoundTripFloat32(t *testing.T) {
	const frames = 48
	path := writeRamp(t, frames, file.SampleFloat32)

	src, err := file.OpenWAV(path)
	require.NoError(t, err)
	defer src.Close()

	got, err := file.ReadAll(src)
	require.NoError(t, err)
	require.Equal(t, frames, got.Frames())
	for i := 0; i < frames; i++ {
		want := float64(i) / frames
		require.InDelta(t, want, got.Channel(0)[i], 1e-6, "frame %d", i)
	}
}

func TestWAVSeekFrame(t *testing.T) {
	const frames = 64
	path := writeRamp(t, frames, file.SampleInt16)

	src, err := file.OpenWAV(path)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.SeekFrame(32))
	dst := buffer.New[float64](frames, 2)
	read, err := src.ReadFrames(dst, 0, frames)
	require.NoError(t, err)
	require.Equal(t, 32, read)
	require.InDelta(t, 32.0/frames, dst.Channel(0)[0], 1e-3)

	// seeking backward rewinds the decoder
	require.NoError(t, src.SeekFrame(10))
	read, err = src.ReadFrames(dst, 0, 4)
	require.NoError(t, err)
	require.Equal(t, 4, read)
	require.InDelta(t, 10.0/frames, dst.Channel(0)[0], 1e-3)

	require.ErrorIs(t, src.SeekFrame(frames+1), file.ErrSeekOutOfRange)
}

func TestWAVTargetClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	target, err := file.CreateWAV(path, 8000, 1, file.SampleInt16)
	require.NoError(t, err)

	src := buffer.New[float64](4, 1)
	copy(src.Channel(0), []float64{2, -2, 0.5, -0.5})
	require.NoError(t, target.WriteFrames(src, 0, 4))
	require.NoError(t, target.Close())

	in, err := file.OpenWAV(path)
	require.NoError(t, err)
	defer in.Close()
	got, err := file.ReadAll(in)
	require.NoError(t, err)
	require.InDelta(t, 1, got.Channel(0)[0], 1e-3)
	require.InDelta(t, -1, got.Channel(0)[1], 1e-3)
	require.InDelta(t, 0.5, got.Channel(0)[2], 1e-3)
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o644))
	_, err := file.OpenWAV(path)
	require.ErrorIs(t, err, file.ErrInvalidFile)
}

func TestWAVClosedSource(t *testing.T) {
	path := writeRamp(t, 16, file.SampleInt16)
	src, err := file.OpenWAV(path)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	dst := buffer.New[float64](16, 2)
	_, err = src.ReadFrames(dst, 0, 16)
	require.ErrorIs(t, err, file.ErrClosed)
	require.ErrorIs(t, src.SeekFrame(0), file.ErrClosed)
}
