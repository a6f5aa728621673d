package file

import "errors"

var (
	// ErrInvalidFile is returned when a file cannot be parsed as the
	// expected container format.
	ErrInvalidFile = errors.New("file: invalid or unsupported container")

	// ErrUnsupportedDepth is returned for bit depths outside 16, 24
	// and 32 bits per sample.
	ErrUnsupportedDepth = errors.New("file: unsupported bit depth")

	// ErrClosed is returned when reading from or writing to a source
	// or target after Close.
	ErrClosed = errors.New("file: closed")

	// ErrSeekOutOfRange is returned when a seek position lies outside
	// the decoded stream.
	ErrSeekOutOfRange = errors.New("file: seek position out of range")
)
