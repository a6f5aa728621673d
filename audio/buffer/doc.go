// Package buffer provides multi-channel sample containers for the audio
// graph. Two layouts are supported: planar (one contiguous region per
// channel, the engine's working format) and interleaved (one frame at a
// time, the common hardware and file format). Each layout comes in a
// fixed-size and a growable variant; the growable variant never
// reallocates unless the requested storage exceeds its current capacity,
// which keeps steady-state processing allocation-free.
//
// Buffers carry no sample rate. The consuming context supplies timing.
package buffer
