// Package monitor decodes the byte stream a soft UART transmitter produces,
// as received by a host serial port
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"softuart/protocol"
)

// Mode selects how received bytes are interpreted
type Mode int

const (
	// ModeRaw prints each byte and checks the demo's incrementing counter
	ModeRaw Mode = iota
	// ModeFramed decodes telemetry frames
	ModeFramed
)

// ParseMode converts a flag value to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw":
		return ModeRaw, nil
	case "framed":
		return ModeFramed, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want raw or framed)", s)
	}
}

// Stats summarises a monitoring session
type Stats struct {
	Bytes          uint64 // Bytes received
	SequenceBreaks uint64 // Raw mode: bytes that did not follow the previous one
	Messages       uint64 // Framed mode: telemetry messages decoded
	DecodeErrors   uint64 // Framed mode: frame bodies that failed to decode
	Parser         protocol.ParserStats
}

// Monitor reads from a port and reports what the transmitter sent
type Monitor struct {
	src  io.Reader
	out  io.Writer
	mode Mode

	mu       sync.Mutex
	stats    Stats
	lastByte byte
	haveLast bool

	fifo   *protocol.FifoBuffer
	parser *protocol.FrameParser
}

// New creates a monitor reading src and writing a line per event to out
func New(src io.Reader, out io.Writer, mode Mode) *Monitor {
	m := &Monitor{
		src:  src,
		out:  out,
		mode: mode,
		fifo: protocol.NewFifoBuffer(4 * protocol.MessageLengthMax),
	}
	m.parser = protocol.NewFrameParser(m.handleFrame)
	return m
}

// Run reads until ctx is cancelled or the source fails. Read timeouts
// (io.EOF with no data) are treated as idle line, not as the end.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := m.src.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read failed: %w", err)
		}
	}
}

// Feed processes bytes as if they had been read from the port
func (m *Monitor) Feed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Bytes += uint64(len(data))
	switch m.mode {
	case ModeRaw:
		for _, b := range data {
			m.handleRawByte(b)
		}
	case ModeFramed:
		for len(data) > 0 {
			n := m.fifo.Write(data)
			data = data[n:]
			m.parser.Receive(m.fifo)
			if n == 0 && m.fifo.Free() == 0 {
				// Parser is waiting on a frame longer than the buffer
				m.fifo.Reset()
			}
		}
		m.stats.Parser = m.parser.Stats()
	}
}

// Stats returns the session counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Monitor) handleRawByte(b byte) {
	marker := ""
	if m.haveLast && b != m.lastByte+1 {
		m.stats.SequenceBreaks++
		marker = " (sequence break)"
	}
	m.lastByte = b
	m.haveLast = true

	fmt.Fprintf(m.out, "0x%02X %s%s\n", b, printable(b), marker)
}

func (m *Monitor) handleFrame(block *protocol.MessageBlock) {
	msgs, err := protocol.DecodeMessages(block.Data)
	for _, msg := range msgs {
		m.stats.Messages++
		switch {
		case msg.Hello != nil:
			fmt.Fprintf(m.out, "[%X] hello version=%s baud=%d\n", block.Sequence, msg.Hello.Version, msg.Hello.Baud)
		case msg.Sample != nil:
			s := msg.Sample
			fmt.Fprintf(m.out, "[%X] accel seq=%d x=%d y=%d z=%d\n", block.Sequence, s.Seq, s.X, s.Y, s.Z)
		default:
			fmt.Fprintf(m.out, "[%X] text %q\n", block.Sequence, msg.Text)
		}
	}
	if err != nil {
		m.stats.DecodeErrors++
		fmt.Fprintf(m.out, "[%X] decode error: %v\n", block.Sequence, err)
	}
}

func printable(b byte) string {
	if b >= 0x20 && b < 0x7F {
		return fmt.Sprintf("'%c'", b)
	}
	return "."
}
