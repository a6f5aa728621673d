package graph

// Output is a terminal endpoint node. It sums its inputs at a fixed
// channel count and hard-clips the result to [-1, 1], protecting
// whatever hardware or file sink consumes the rendered block. Hardware
// endpoints embed it and feed RenderBlock from their device callback.
type Output struct {
	NodeCore
}

// NewOutput returns an output endpoint with the given channel count.
func NewOutput(channels int) *Output {
	o := &Output{}
	o.SetChannels(channels)
	return o
}

// Process clips the summed block into the valid sample range.
func (o *Output) Process(buf *Block) {
	data := buf.Data()
	for i, v := range data {
		if v > 1 {
			data[i] = 1
		} else if v < -1 {
			data[i] = -1
		}
	}
}
