// Package device bridges a graph context to audio hardware through
// miniaudio (github.com/gen2brain/malgo). It enumerates playback and
// capture devices and provides LineOut, which drives the context's
// render traversal from the hardware data callback.
//
// Hardware faults never propagate into the render traversal: the
// callback substitutes silence for the affected block and reports the
// fault asynchronously through the context's fault channel.
package device
