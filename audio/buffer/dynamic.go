package buffer

// Dynamic is a growable planar buffer. Storage only reallocates when the
// requested frames*channels exceeds the current capacity, and then to
// exactly the new requirement. A resize within capacity reuses the
// existing storage, so steady-state graph processing never allocates.
// ShrinkToFit is the only operation that reduces capacity.
//
// Any reshape zeroes the buffer: channel regions move when dimensions
// change, so stale content would be meaningless.
type Dynamic[S Sample] struct {
	Buffer[S]
}

// NewDynamic returns a zero-filled growable buffer with the given
// initial dimensions.
func NewDynamic[S Sample](frames, channels int) *Dynamic[S] {
	d := &Dynamic[S]{}
	d.Resize(frames, channels)
	return d
}

// Resize sets both dimensions at once, following the growth contract.
func (d *Dynamic[S]) Resize(frames, channels int) {
	if frames < 0 {
		frames = 0
	}
	if channels < 0 {
		channels = 0
	}
	need := frames * channels
	if need > cap(d.data) {
		d.data = make([]S, need)
	} else {
		d.data = d.data[:need]
		for i := range d.data {
			d.data[i] = 0
		}
	}
	d.frames = frames
	d.channels = channels
}

// SetFrames resizes the frame count, keeping the channel count.
func (d *Dynamic[S]) SetFrames(frames int) {
	d.Resize(frames, d.channels)
}

// SetChannels resizes the channel count, keeping the frame count.
func (d *Dynamic[S]) SetChannels(channels int) {
	d.Resize(d.frames, channels)
}

// Capacity returns the storage capacity in samples.
func (d *Dynamic[S]) Capacity() int { return cap(d.data) }

// ShrinkToFit reallocates storage down to exactly frames*channels,
// releasing any excess capacity accumulated from earlier growth.
func (d *Dynamic[S]) ShrinkToFit() {
	need := d.frames * d.channels
	if cap(d.data) == need {
		return
	}
	data := make([]S, need)
	copy(data, d.data)
	d.data = data
}
