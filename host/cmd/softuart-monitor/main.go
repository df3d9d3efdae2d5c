package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"softuart/host/monitor"
	"softuart/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device wired to the soft UART TX pin")
	baud    = flag.Int("baud", 9600, "Baud rate configured in the firmware")
	mode    = flag.String("mode", "raw", "Stream format: raw or framed")
	timeout = flag.Int("timeout", 100, "Read timeout in milliseconds")
)

func main() {
	flag.Parse()

	m, err := monitor.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = *timeout

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	fmt.Printf("Monitoring %s at %d baud (8-N-1, %s mode), Ctrl-C to stop\n", cfg.Device, cfg.Baud, *mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(port, os.Stdout, m)
	runErr := mon.Run(ctx)

	printStats(mon.Stats(), m)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func printStats(s monitor.Stats, m monitor.Mode) {
	fmt.Println()
	fmt.Printf("Bytes received:   %d\n", s.Bytes)
	switch m {
	case monitor.ModeRaw:
		fmt.Printf("Sequence breaks:  %d\n", s.SequenceBreaks)
	case monitor.ModeFramed:
		fmt.Printf("Frames:           %d\n", s.Parser.Frames)
		fmt.Printf("Messages:         %d\n", s.Messages)
		fmt.Printf("CRC errors:       %d\n", s.Parser.CRCErrors)
		fmt.Printf("Sync errors:      %d\n", s.Parser.SyncErrors)
		fmt.Printf("Sequence gaps:    %d\n", s.Parser.SequenceGaps)
		fmt.Printf("Bytes discarded:  %d\n", s.Parser.Discarded)
		fmt.Printf("Decode errors:    %d\n", s.DecodeErrors)
	}
}
