// Package file defines the decoding and encoding collaborator contracts
// the graph's sample-playing and recording nodes drive, together with
// WAV implementations built on github.com/go-audio/wav.
//
// A Source delivers deinterleaved float64 frames at its native sample
// rate; a Target persists them in a chosen sample representation. Both
// are control-role objects: they may block on I/O and allocate. The
// nodes in this package bridge them to the render role, either ahead of
// time (Player preloads everything) or through a background refill
// goroutine (StreamPlayer).
package file
