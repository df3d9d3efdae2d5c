//go:build !tinygo

package core

import "runtime"

// spinWait lets the goroutine driving the tick source make progress while
// the foreground busy-waits
func spinWait() {
	runtime.Gosched()
}
