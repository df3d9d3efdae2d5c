package core

// Driving clock frequencies for supported MCUs
const (
	ClockFreqATmega328p = 16000000 // Timer1 at F_CPU, prescaler 1
	ClockFreqRP2040     = 1000000  // RP2040 TIMER runs at 1MHz
	TimerFreq           = 1000000  // Host scheduler: one tick per microsecond
)

// FrameBits is the number of bit periods on the wire per byte (8-N-1)
const FrameBits = 10

// FrameTicks is the number of tick interrupts one frame consumes,
// including the finalize tick after the stop bit.
const FrameTicks = FrameBits + 1

var bootTime uint64 // Time at boot for uptime calculation

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns 64-bit uptime in timer ticks
func GetUptime() uint64 {
	return uint64(GetTime()) - bootTime
}

// TimerInit initializes the system timer
func TimerInit() {
	bootTime = uint64(GetTime())
}

// ProcessTimers runs every software timer that is due at the current time
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}

// AdvanceClock moves the system clock forward without dispatching timers.
// Tick interrupts on targets without a free-running counter call it once per
// period so timing events carry usable timestamps.
func AdvanceClock(ticks uint32) uint32 {
	return addSystemTicks(ticks)
}

// AdvanceTime moves the system clock forward one tick at a time, dispatching
// due timers after each step. Host code uses it to emulate a free-running
// hardware counter.
func AdvanceTime(ticks uint32) {
	for i := uint32(0); i < ticks; i++ {
		SetTime(GetTime() + 1)
		ProcessTimers()
	}
}

// BitPeriodTicks returns the tick count of one bit period.
// Truncating integer division; a zero baud rate yields 0.
func BitPeriodTicks(clockFreq, baud uint32) uint32 {
	if baud == 0 {
		return 0
	}
	return clockFreq / baud
}

// ActualBaud returns the baud rate actually produced by a truncated period
func ActualBaud(clockFreq, period uint32) uint32 {
	if period == 0 {
		return 0
	}
	return clockFreq / period
}

// BaudErrorPPM returns the signed error of the produced baud rate relative
// to the requested one, in parts per million
func BaudErrorPPM(clockFreq, baud uint32) int32 {
	if baud == 0 {
		return 0
	}
	actual := ActualBaud(clockFreq, BitPeriodTicks(clockFreq, baud))
	return int32((int64(actual) - int64(baud)) * 1000000 / int64(baud))
}

// FrameDurationUS returns how long one full frame occupies the line
func FrameDurationUS(baud uint32) uint32 {
	if baud == 0 {
		return 0
	}
	return (FrameBits*1000000 + baud - 1) / baud
}
