//go:build atmega328p

// Soft UART demo for the ATmega328p (Arduino Uno/Nano).
// TX on PD3 (Arduino D3) at 9600 baud, 8-N-1. The on-board LED on PB5
// (D13) toggles once per transmitted bit. Sends '1', '2', '3', ... once per
// second; watch it with softuart-monitor -mode raw.
package main

import (
	"machine"
	"runtime/interrupt"
	"time"

	"softuart/core"
)

const (
	txPin       = machine.PD3
	activityPin = machine.PB5
	baud        = 9600
)

func main() {
	core.SetGPIODriver(NewAVRGPIODriver())
	core.SetTickSource(NewTimer1Ticker())

	state := interrupt.Disable()
	err := core.SoftUARTInit(core.SoftUARTConfig{
		TxPin:       core.GPIOPin(txPin),
		Baud:        baud,
		ClockFreq:   machine.CPUFrequency(),
		ActivityPin: core.GPIOPin(activityPin),
		UseActivity: true,
	})
	interrupt.Restore(state)
	if err != nil {
		// No channel to report on; leave the line idle
		for {
			time.Sleep(time.Second)
		}
	}

	c := byte('1')
	for {
		core.SoftUARTSendByte(c)
		c++
		time.Sleep(time.Second)
	}
}
