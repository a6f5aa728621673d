// Package graph implements the real-time audio processing graph: a
// Context that owns a set of processing Nodes connected into a directed
// multigraph, driven by a pull-based traversal once per hardware block.
//
// Two execution roles share a Context. The render role (the hardware
// callback, or any caller of RenderBlock) runs the traversal exactly
// once per block and never blocks, allocates, or waits: contended state
// degrades to one block of silence. The control role (any other
// goroutine) constructs, connects, enables, and reconfigures nodes;
// its mutations become visible to the render role at block boundaries.
//
// Feedback cycles are permitted only through nodes declaring cycle
// tolerance; such a node supplies the previous block's output on the
// cyclic edge instead of recursing forever.
package graph
