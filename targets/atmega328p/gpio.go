//go:build atmega328p

package main

import (
	"errors"
	"machine"

	"softuart/core"
)

var errInvalidPin = errors.New("pin out of range")

// AVRGPIODriver implements the GPIODriver interface for the ATmega328p.
// Pins are TinyGo machine.Pin numbers; a bitmask tracks configured outputs
// so SetPin stays cheap enough for the Timer1 interrupt.
type AVRGPIODriver struct {
	configured uint32
}

// NewAVRGPIODriver creates a new ATmega328p GPIO driver
func NewAVRGPIODriver() *AVRGPIODriver {
	return &AVRGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output
func (d *AVRGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= 32 {
		return errInvalidPin
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured |= 1 << pin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *AVRGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= 32 || d.configured&(1<<pin) == 0 {
		return errInvalidPin
	}
	machine.Pin(pin).Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *AVRGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if pin >= 32 {
		return false, errInvalidPin
	}
	return machine.Pin(pin).Get(), nil
}
