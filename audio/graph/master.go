package graph

import "sync"

var (
	masterMu  sync.Mutex
	masterCtx *Context
)

// Master returns the process-wide context, creating it with default
// parameters on first use. Applications that talk to one output device
// hang their entire graph off this instance; tests and multi-device
// setups create their own contexts with New.
func Master() *Context {
	masterMu.Lock()
	defer masterMu.Unlock()
	if masterCtx == nil {
		masterCtx = New()
	}
	return masterCtx
}

// ShutdownMaster disables and discards the process-wide context. The
// next Master call creates a fresh one. Intended for process teardown
// and test isolation.
func ShutdownMaster() {
	masterMu.Lock()
	defer masterMu.Unlock()
	if masterCtx != nil {
		masterCtx.Disable()
		masterCtx = nil
	}
}
