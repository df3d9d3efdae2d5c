// Software UART transmitter
// Clocks 8-N-1 frames out of a GPIO pin, one bit per tick of a periodic timer
package core

import "sync/atomic"

// Frame positions of the bit framer
const (
	posStartBit = 0
	posStopBit  = 9
	posFinalize = 10
)

// SoftUARTConfig describes the transmit line. Fixed before Init.
type SoftUARTConfig struct {
	TxPin     GPIOPin // Transmit line
	Baud      uint32  // Bits per second
	ClockFreq uint32  // Frequency of the tick source's driving clock

	// Optional pin toggled once per emitted bit (scope trigger / LED)
	ActivityPin GPIOPin
	UseActivity bool
}

// Stats are running counters kept by the transmitter
type Stats struct {
	FramesStarted uint32 // SendByte calls that claimed the line
	FramesSent    uint32 // Frames whose stop bit completed
	Ticks         uint32 // Tick handler invocations
	SendWaits     uint32 // SendByte calls that had to wait for a previous frame
}

// Transmitter is a single soft-UART TX line.
//
// SendByte runs in the foreground; OnTick runs in the tick interrupt. The
// busy flag is the only field both contexts write. pending is written by
// the foreground only while it owns busy and before the tick source starts;
// pos is touched only by OnTick.
type Transmitter struct {
	cfg    SoftUARTConfig
	gpio   GPIODriver
	ticks  TickSource
	period uint32

	busy    atomic.Uint32
	pending uint8
	pos     uint8

	activity bool

	framesStarted atomic.Uint32
	framesSent    atomic.Uint32
	tickCount     atomic.Uint32
	sendWaits     atomic.Uint32
}

// NewTransmitter creates a transmitter bound to the given drivers.
// Init must be called before any other method.
func NewTransmitter(cfg SoftUARTConfig, gpio GPIODriver, ticks TickSource) *Transmitter {
	return &Transmitter{
		cfg:   cfg,
		gpio:  gpio,
		ticks: ticks,
	}
}

// Init drives the TX pin to the idle (high) level and configures the tick
// source with one bit period, leaving it stopped. Must be called exactly
// once, before SendByte, with the tick interrupt unable to fire.
// The baud rate is not validated; a period that does not fit the timer
// produces wrong bit timing rather than an error.
func (t *Transmitter) Init() error {
	if err := t.gpio.ConfigureOutput(t.cfg.TxPin); err != nil {
		return err
	}
	if err := t.gpio.SetPin(t.cfg.TxPin, true); err != nil {
		return err
	}

	if t.cfg.UseActivity {
		if err := t.gpio.ConfigureOutput(t.cfg.ActivityPin); err != nil {
			return err
		}
		if err := t.gpio.SetPin(t.cfg.ActivityPin, false); err != nil {
			return err
		}
	}

	t.period = BitPeriodTicks(t.cfg.ClockFreq, t.cfg.Baud)
	t.pos = posStartBit
	t.busy.Store(0)
	return t.ticks.Configure(t.period, t.OnTick)
}

// SendByte queues b for transmission and returns once the tick source has
// been started; it does not wait for the frame to go out.
//
// Only one byte is ever in flight. If a frame is still being clocked out,
// SendByte spins until the tick handler clears the busy flag. There is no
// timeout: the wait is bounded by one frame (FrameTicks bit periods).
func (t *Transmitter) SendByte(b byte) {
	if !t.busy.CompareAndSwap(0, 1) {
		t.sendWaits.Add(1)
		for !t.busy.CompareAndSwap(0, 1) {
			spinWait()
		}
	}
	t.pending = b
	t.framesStarted.Add(1)
	t.startTicks()
}

// OnTick advances the bit framer by one position. It is the tick source's
// handler and must finish well inside one bit period.
func (t *Transmitter) OnTick() {
	t.tickCount.Add(1)

	switch t.pos {
	case posStartBit:
		_ = t.gpio.SetPin(t.cfg.TxPin, false)
		RecordTiming(EvtFrameStart, t.pending, GetTime(), t.period, 0)
	case posStopBit:
		_ = t.gpio.SetPin(t.cfg.TxPin, true)
		RecordTiming(EvtStopBit, t.pending, GetTime(), 0, 0)
	case posFinalize:
		// Stop before releasing busy so a waiting SendByte cannot start
		// the next frame ahead of this stop.
		t.stopTicks()
		t.pos = posStartBit
		t.framesSent.Add(1)
		RecordTiming(EvtFrameEnd, t.pending, GetTime(), t.framesSent.Load(), 0)
		t.busy.Store(0)
		return
	default:
		_ = t.gpio.SetPin(t.cfg.TxPin, t.pending&(1<<(t.pos-1)) != 0)
	}

	t.pos++
	t.toggleActivity()
}

func (t *Transmitter) toggleActivity() {
	if !t.cfg.UseActivity {
		return
	}
	t.activity = !t.activity
	_ = t.gpio.SetPin(t.cfg.ActivityPin, t.activity)
}

// startTicks enables the tick interrupt
func (t *Transmitter) startTicks() {
	t.ticks.Start()
}

// stopTicks disables the tick interrupt; harmless when already stopped
func (t *Transmitter) stopTicks() {
	t.ticks.Stop()
}

// Busy reports whether a frame is in flight
func (t *Transmitter) Busy() bool {
	return t.busy.Load() != 0
}

// Period returns the bit period computed by Init, in tick-source ticks
func (t *Transmitter) Period() uint32 {
	return t.period
}

// Config returns the line configuration
func (t *Transmitter) Config() SoftUARTConfig {
	return t.cfg
}

// Stats returns a snapshot of the transmit counters
func (t *Transmitter) Stats() Stats {
	return Stats{
		FramesStarted: t.framesStarted.Load(),
		FramesSent:    t.framesSent.Load(),
		Ticks:         t.tickCount.Load(),
		SendWaits:     t.sendWaits.Load(),
	}
}

// WriteByte sends one byte. It never fails; the error satisfies io.ByteWriter.
func (t *Transmitter) WriteByte(c byte) error {
	t.SendByte(c)
	return nil
}

// Write implements io.Writer by sending p one byte at a time. It returns
// once the last byte has been latched, not when it has left the wire.
func (t *Transmitter) Write(p []byte) (int, error) {
	for _, b := range p {
		t.SendByte(b)
	}
	return len(p), nil
}

// Flush blocks until the in-flight frame, if any, has completed
func (t *Transmitter) Flush() error {
	for t.Busy() {
		spinWait()
	}
	return nil
}

// Global singleton used by target code.
var softUART *Transmitter

// SoftUARTInit creates and initializes the board's transmitter using the
// registered GPIO driver and tick source
func SoftUARTInit(cfg SoftUARTConfig) error {
	t := NewTransmitter(cfg, MustGPIO(), MustTickSource())
	if err := t.Init(); err != nil {
		return err
	}
	softUART = t
	return nil
}

// SoftUARTSendByte sends a byte on the board's transmitter
func SoftUARTSendByte(b byte) {
	MustSoftUART().SendByte(b)
}

// MustSoftUART returns the board's transmitter or panics before SoftUARTInit
func MustSoftUART() *Transmitter {
	if softUART == nil {
		panic("soft UART not initialized")
	}
	return softUART
}
