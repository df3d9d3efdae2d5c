//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"softuart/core"
)

// RP2040 TIMER peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14
	timerARMED    = timerBase + 0x20
	timerTIMERAWL = timerBase + 0x28
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38

	alarmNum  = 1 // ALARM0 belongs to the TinyGo runtime's sleep timer
	alarmMask = 1 << alarmNum
)

var (
	alarm1Reg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	armedReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	rawLReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	intrReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	inteReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// AlarmTicker drives the bit framer from TIMER alarm 1. The 1MHz timer
// gives 1us resolution: 9600 baud is 104 ticks (+0.16%). Each tick re-arms
// at an absolute target time, so interrupt latency does not accumulate.
type AlarmTicker struct {
	handler core.TickHandler
	period  uint32
	next    uint32
	running volatile.Register8
	intr    interrupt.Interrupt
}

var alarmTicker AlarmTicker

// NewAlarmTicker returns the alarm-1 tick source
func NewAlarmTicker() *AlarmTicker {
	return &alarmTicker
}

// Configure sets the period in microseconds and leaves the alarm disarmed
func (a *AlarmTicker) Configure(period uint32, handler core.TickHandler) error {
	a.Stop()
	a.handler = handler
	a.period = period

	a.intr = interrupt.New(rp.IRQ_TIMER_IRQ_1, alarmIRQ)
	a.intr.SetPriority(0x00)
	a.intr.Enable()
	return nil
}

// Start arms the first tick one full period from now
func (a *AlarmTicker) Start() {
	state := interrupt.Disable()
	a.running.Set(1)
	intrReg.Set(alarmMask)
	a.next = rawLReg.Get() + a.period
	alarm1Reg.Set(a.next) // writing the target arms the alarm
	inteReg.SetBits(alarmMask)
	interrupt.Restore(state)
}

// Stop disarms the alarm and masks its interrupt. Idempotent.
func (a *AlarmTicker) Stop() {
	a.running.Set(0)
	inteReg.ClearBits(alarmMask)
	armedReg.Set(alarmMask) // write-one-to-disarm
	intrReg.Set(alarmMask)
}

// Running reports whether ticks are being delivered
func (a *AlarmTicker) Running() bool {
	return a.running.Get() != 0
}

func alarmIRQ(interrupt.Interrupt) {
	intrReg.Set(alarmMask)
	a := &alarmTicker
	if a.running.Get() == 0 {
		return
	}
	// Re-arm before running the handler; a Stop inside it disarms again
	a.next += a.period
	alarm1Reg.Set(a.next)
	UpdateSystemTime()
	a.handler()
}
