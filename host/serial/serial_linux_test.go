//go:build linux

package serial

import (
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpenConfigures8N1(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port, err := Open(&Config{Device: slave.Name(), Baud: 9600, ReadTimeout: 100})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	termios, err := unix.IoctlGetTermios(int(slave.Fd()), unix.TCGETS)
	require.NoError(t, err)

	require.Equal(t, uint32(unix.CS8), termios.Cflag&unix.CSIZE, "8 data bits")
	require.Zero(t, termios.Cflag&unix.PARENB, "no parity")
	require.Zero(t, termios.Cflag&unix.CSTOPB, "one stop bit")

	// 100ms read timeout becomes VMIN=0, VTIME=1 decisecond
	require.Equal(t, uint8(0), termios.Cc[unix.VMIN])
	require.Equal(t, uint8(1), termios.Cc[unix.VTIME])
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(&Config{Device: "/dev/softuart-does-not-exist", Baud: 9600})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open serial port")
}
