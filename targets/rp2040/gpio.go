//go:build rp2040

package main

import (
	"errors"
	"machine"

	"softuart/core"
)

var (
	errPinRange         = errors.New("RP2040 has GPIO0-GPIO29 only")
	errPinNotConfigured = errors.New("pin not configured as output")
)

// RPGPIODriver implements the GPIODriver interface for RP2040.
// GPIO numbers map directly to machine.Pin.
type RPGPIODriver struct {
	// Track configured pins; fixed array so the tick interrupt never
	// touches a map
	configured [30]bool
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if int(pin) >= len(d.configured) {
		return errPinRange
	}
	if d.configured[pin] {
		// Already configured, this is OK
		return nil
	}

	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured[pin] = true
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if int(pin) >= len(d.configured) || !d.configured[pin] {
		return errPinNotConfigured
	}
	machine.Pin(pin).Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if int(pin) >= len(d.configured) || !d.configured[pin] {
		return false, errPinNotConfigured
	}
	return machine.Pin(pin).Get(), nil
}
