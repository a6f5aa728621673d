package graph

import "errors"

var (
	// ErrCycle is returned by Connect when the new edge would close a
	// cycle in which no participating node declares cycle tolerance.
	ErrCycle = errors.New("graph: cycle without a cycle-tolerant node")

	// ErrChannelNegotiation is returned when a node cannot resolve a
	// consistent channel count under its declared channel mode.
	ErrChannelNegotiation = errors.New("graph: unresolvable channel count")

	// ErrInsideCallback is returned when a graph-wide reconfiguration
	// is requested from within a live render callback.
	ErrInsideCallback = errors.New("graph: reconfiguration inside render callback")

	// ErrNotOwned is returned when an operation references a node that
	// was not added to this context.
	ErrNotOwned = errors.New("graph: node not owned by this context")

	// ErrSelfConnection is returned when source and destination of a
	// connection are the same node.
	ErrSelfConnection = errors.New("graph: node cannot connect to itself")

	// ErrNotConnected is returned by Disconnect when no matching edge
	// exists.
	ErrNotConnected = errors.New("graph: nodes are not connected")
)
