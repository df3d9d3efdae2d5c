package core

// TickHandler is invoked once per tick period from interrupt context
type TickHandler func()

// TickSource is the periodic timer the bit framer runs from.
// Implementations wrap a hardware timer overflow/alarm interrupt, a PIO
// state machine, or the software scheduler on the host.
type TickSource interface {
	// Configure sets the tick period (in ticks of the source's driving
	// clock) and the handler to call on every tick. The source must be
	// left stopped.
	Configure(period uint32, handler TickHandler) error

	// Start enables the periodic interrupt. The first tick fires one
	// full period after Start returns.
	Start()

	// Stop disables the periodic interrupt. Stopping a stopped source
	// is a no-op. Stop may be called from inside the handler.
	Stop()

	// Running reports whether the interrupt is currently enabled
	Running() bool
}

var tickSource TickSource

// SetTickSource is called by target-specific code to register its timer.
func SetTickSource(t TickSource) {
	tickSource = t
}

// MustTickSource returns the configured tick source or panics if missing.
func MustTickSource() TickSource {
	if tickSource == nil {
		panic("tick source not configured")
	}
	return tickSource
}
