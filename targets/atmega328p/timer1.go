//go:build atmega328p

package main

import (
	"device/avr"
	"runtime/interrupt"

	"softuart/core"
)

// Timer1Ticker drives the bit framer from the Timer1 overflow interrupt.
// Timer1 runs in fast PWM mode 14 (TOP = ICR1) with no output compare pins
// connected, so it overflows once per period. Timer0 stays with the TinyGo
// runtime for time.Sleep.
type Timer1Ticker struct {
	handler core.TickHandler
	period  uint32
}

var timer1 Timer1Ticker

// NewTimer1Ticker returns the Timer1 tick source. There is only one Timer1.
func NewTimer1Ticker() *Timer1Ticker {
	return &timer1
}

// Configure sets the overflow period in CPU clock ticks and leaves the timer
// stopped (no clock selected, overflow interrupt masked). Periods outside
// 1..65536 are not rejected; the low 16 bits of period-1 become TOP.
func (t *Timer1Ticker) Configure(period uint32, handler core.TickHandler) error {
	t.handler = handler
	t.period = period

	avr.TCCR1A.Set(avr.TCCR1A_WGM11)
	avr.TCCR1B.Set(avr.TCCR1B_WGM13 | avr.TCCR1B_WGM12) // CS12:10 = 0, stopped
	avr.TCCR1C.Set(0)
	avr.TIMSK1.Set(0)

	top := period - 1
	// 16-bit register: high byte goes through the TEMP latch first
	avr.ICR1H.Set(uint8(top >> 8))
	avr.ICR1L.Set(uint8(top))

	interrupt.New(avr.IRQ_TIMER1_OVF, timer1Overflow)
	return nil
}

// Start clears the counter and any stale overflow flag, then enables the
// interrupt and the undivided clock, so the first overflow comes one full
// period later.
func (t *Timer1Ticker) Start() {
	state := interrupt.Disable()
	avr.TCNT1H.Set(0)
	avr.TCNT1L.Set(0)
	avr.TIFR1.Set(avr.TIFR1_TOV1) // write-one-to-clear
	avr.TIMSK1.SetBits(avr.TIMSK1_TOIE1)
	avr.TCCR1B.SetBits(avr.TCCR1B_CS10)
	interrupt.Restore(state)
}

// Stop masks the overflow interrupt and removes the clock. Idempotent.
func (t *Timer1Ticker) Stop() {
	avr.TIMSK1.ClearBits(avr.TIMSK1_TOIE1)
	avr.TCCR1B.ClearBits(avr.TCCR1B_CS10)
}

// Running reports whether the overflow interrupt is enabled
func (t *Timer1Ticker) Running() bool {
	return avr.TIMSK1.HasBits(avr.TIMSK1_TOIE1)
}

// Timer0 belongs to the runtime, so the core clock counts Timer1 clocks:
// it advances one period per overflow and stands still between frames.
func timer1Overflow(interrupt.Interrupt) {
	core.AdvanceClock(timer1.period)
	if timer1.handler != nil {
		timer1.handler()
	}
}
