//go:build rp2040

package main

import "softuart/core"

// GetHardwareTime returns the low 32 bits of the 1MHz microsecond counter
func GetHardwareTime() uint32 {
	return rawLReg.Get()
}

// UpdateSystemTime copies hardware time into the core clock.
// Called from the main loop and from the tick interrupt.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
