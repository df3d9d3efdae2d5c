//go:build tinygo

package core

// spinWait is empty on hardware: the tick interrupt preempts the spin loop
func spinWait() {}
