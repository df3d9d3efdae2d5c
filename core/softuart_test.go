package core

import (
	"sync"
	"testing"
	"time"
)

// mockGPIODriver records every level driven on each pin
type mockGPIODriver struct {
	mu         sync.Mutex
	configured map[GPIOPin]bool
	levels     map[GPIOPin]bool
	history    map[GPIOPin][]bool
}

func newMockGPIODriver() *mockGPIODriver {
	return &mockGPIODriver{
		configured: make(map[GPIOPin]bool),
		levels:     make(map[GPIOPin]bool),
		history:    make(map[GPIOPin][]bool),
	}
}

func (m *mockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[pin] = true
	return nil
}

func (m *mockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = value
	m.history[pin] = append(m.history[pin], value)
	return nil
}

func (m *mockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *mockGPIODriver) level(pin GPIOPin) bool {
	v, _ := m.GetPin(pin)
	return v
}

func (m *mockGPIODriver) take(pin GPIOPin) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[pin]
	m.history[pin] = nil
	return h
}

const (
	testTxPin       = GPIOPin(3)
	testActivityPin = GPIOPin(13)
	testBaud        = 100000 // 10 ticks per bit at TimerFreq
)

func newTestTransmitter(t *testing.T, useActivity bool) (*Transmitter, *mockGPIODriver, *SchedTicker) {
	t.Helper()
	ResetTimers()
	SetTime(0)

	gpio := newMockGPIODriver()
	ticker := NewSchedTicker()
	tx := NewTransmitter(SoftUARTConfig{
		TxPin:       testTxPin,
		Baud:        testBaud,
		ClockFreq:   TimerFreq,
		ActivityPin: testActivityPin,
		UseActivity: useActivity,
	}, gpio, ticker)

	if err := tx.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	gpio.take(testTxPin)
	gpio.take(testActivityPin)
	return tx, gpio, ticker
}

// expectedFrame returns the line levels of one 8-N-1 frame
func expectedFrame(b byte) []bool {
	frame := []bool{false}
	for i := 0; i < 8; i++ {
		frame = append(frame, b&(1<<i) != 0)
	}
	return append(frame, true)
}

func equalLevels(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInitIdleHigh(t *testing.T) {
	ResetTimers()
	gpio := newMockGPIODriver()
	ticker := NewSchedTicker()
	tx := NewTransmitter(SoftUARTConfig{TxPin: testTxPin, Baud: 9600, ClockFreq: ClockFreqATmega328p}, gpio, ticker)

	if err := tx.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if !gpio.configured[testTxPin] {
		t.Error("TX pin not configured as output")
	}
	if !gpio.level(testTxPin) {
		t.Error("TX pin should idle high after Init")
	}
	if tx.Period() != 1666 {
		t.Errorf("Expected period 1666, got %d", tx.Period())
	}
	if ticker.Period() != 1666 {
		t.Errorf("Tick source period = %d, want 1666", ticker.Period())
	}
	if ticker.Running() {
		t.Error("Tick source must be stopped after Init")
	}
	if tx.Busy() {
		t.Error("Transmitter busy after Init")
	}
}

func TestSendByteAllValues(t *testing.T) {
	tx, gpio, ticker := newTestTransmitter(t, false)

	for v := 0; v < 256; v++ {
		b := byte(v)
		tx.SendByte(b)
		AdvanceTime(FrameTicks * tx.Period())

		got := gpio.take(testTxPin)
		if !equalLevels(got, expectedFrame(b)) {
			t.Fatalf("byte 0x%02X: got %v, want %v", b, got, expectedFrame(b))
		}
		if tx.Busy() {
			t.Fatalf("byte 0x%02X: still busy after frame", b)
		}
		if ticker.Running() {
			t.Fatalf("byte 0x%02X: tick source still running after frame", b)
		}
	}

	stats := tx.Stats()
	if stats.FramesSent != 256 || stats.FramesStarted != 256 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.Ticks != 256*FrameTicks {
		t.Errorf("Expected %d ticks, got %d", 256*FrameTicks, stats.Ticks)
	}
}

func TestSendByteScenario0x31(t *testing.T) {
	tx, gpio, _ := newTestTransmitter(t, false)

	tx.SendByte('1')
	if !tx.Busy() {
		t.Fatal("Busy should be set as soon as SendByte returns")
	}

	want := []bool{false, true, false, false, false, true, true, false, false, true}
	for tick := 0; tick < FrameBits; tick++ {
		AdvanceTime(tx.Period())
		if got := gpio.level(testTxPin); got != want[tick] {
			t.Errorf("tick %d: line=%v, want %v", tick, got, want[tick])
		}
		if !tx.Busy() {
			t.Errorf("tick %d: busy cleared too early", tick)
		}
	}

	AdvanceTime(tx.Period())
	if tx.Busy() {
		t.Error("Busy should clear on the finalize tick")
	}
	if !gpio.level(testTxPin) {
		t.Error("Line should rest at idle high")
	}
	if tx.pos != 0 {
		t.Errorf("Frame position should reset to 0, got %d", tx.pos)
	}
}

func TestSendAfterFrameDoesNotBlock(t *testing.T) {
	tx, gpio, _ := newTestTransmitter(t, false)

	tx.SendByte(0xA5)
	AdvanceTime(FrameTicks * tx.Period())

	done := make(chan struct{})
	go func() {
		tx.SendByte(0x5A)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendByte blocked on an idle line")
	}

	AdvanceTime(FrameTicks * tx.Period())
	got := gpio.take(testTxPin)
	want := append(expectedFrame(0xA5), expectedFrame(0x5A)...)
	if !equalLevels(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if tx.Stats().SendWaits != 0 {
		t.Errorf("Expected no waits, got %d", tx.Stats().SendWaits)
	}
}

func TestSendByteBlocksWhileBusy(t *testing.T) {
	tx, gpio, _ := newTestTransmitter(t, false)

	tx.SendByte(0x31)

	done := make(chan struct{})
	go func() {
		tx.SendByte(0x32)
		close(done)
	}()

	// Positions 0..9 of the first frame: the second call must still be waiting
	for tick := 0; tick < FrameBits; tick++ {
		AdvanceTime(tx.Period())
		select {
		case <-done:
			t.Fatalf("second SendByte returned at tick %d, before the first frame finished", tick)
		default:
		}
	}

	// Finalize tick releases the line
	AdvanceTime(tx.Period())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second SendByte never returned")
	}

	AdvanceTime(FrameTicks * tx.Period())

	got := gpio.take(testTxPin)
	want := append(expectedFrame(0x31), expectedFrame(0x32)...)
	if !equalLevels(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if tx.Busy() {
		t.Error("Transmitter still busy")
	}
}

func TestWriteSendsEveryByte(t *testing.T) {
	tx, gpio, _ := newTestTransmitter(t, false)
	msg := []byte("Hi!\n")

	done := make(chan int)
	go func() {
		n, _ := tx.Write(msg)
		_ = tx.Flush()
		done <- n
	}()

	var n int
	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case n = <-done:
			break loop
		case <-deadline:
			t.Fatal("Write did not complete")
		default:
			AdvanceTime(tx.Period())
		}
	}

	if n != len(msg) {
		t.Errorf("Write returned %d, want %d", n, len(msg))
	}

	var want []bool
	for _, b := range msg {
		want = append(want, expectedFrame(b)...)
	}
	if got := gpio.take(testTxPin); !equalLevels(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestActivityPinTogglesPerBit(t *testing.T) {
	tx, gpio, _ := newTestTransmitter(t, true)

	if !gpio.configured[testActivityPin] {
		t.Fatal("Activity pin not configured")
	}

	tx.SendByte(0xFF)
	AdvanceTime(FrameTicks * tx.Period())

	toggles := gpio.take(testActivityPin)
	if len(toggles) != FrameBits {
		t.Fatalf("Expected %d activity toggles, got %d", FrameBits, len(toggles))
	}
	for i, level := range toggles {
		if level != (i%2 == 0) {
			t.Errorf("toggle %d: level %v", i, level)
		}
	}
}

func TestStopTicksIdempotent(t *testing.T) {
	tx, _, ticker := newTestTransmitter(t, false)

	tx.stopTicks()
	tx.stopTicks()
	if ticker.Running() {
		t.Error("Ticker running after stop")
	}
	if timerPending() {
		t.Error("Stop left a timer scheduled")
	}

	// A full frame still works afterwards
	tx.SendByte(0x00)
	AdvanceTime(FrameTicks * tx.Period())
	tx.stopTicks()
	if tx.Busy() || ticker.Running() {
		t.Error("Unexpected state after frame and extra stop")
	}
}

func TestTimingRingRecordsFrames(t *testing.T) {
	ClearTimingRing()
	tx, _, _ := newTestTransmitter(t, false)

	tx.SendByte(0x42)
	AdvanceTime(FrameTicks * tx.Period())

	events := TimingEvents()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	kinds := []uint8{EvtFrameStart, EvtStopBit, EvtFrameEnd}
	for i, evt := range events {
		if evt.EventType != kinds[i] {
			t.Errorf("event %d: type %d, want %d", i, evt.EventType, kinds[i])
		}
		if evt.Data != 0x42 {
			t.Errorf("event %d: data 0x%02X", i, evt.Data)
		}
	}
	if events[0].Value1 != tx.Period() {
		t.Errorf("Start event should carry the period, got %d", events[0].Value1)
	}
}

func TestSoftUARTSingleton(t *testing.T) {
	ResetTimers()
	SetTime(0)
	gpio := newMockGPIODriver()
	ticker := NewSchedTicker()
	SetGPIODriver(gpio)
	SetTickSource(ticker)

	if err := SoftUARTInit(SoftUARTConfig{TxPin: testTxPin, Baud: testBaud, ClockFreq: TimerFreq}); err != nil {
		t.Fatalf("SoftUARTInit failed: %v", err)
	}
	gpio.take(testTxPin)

	SoftUARTSendByte('A')
	AdvanceTime(FrameTicks * MustSoftUART().Period())

	if got := gpio.take(testTxPin); !equalLevels(got, expectedFrame('A')) {
		t.Errorf("got %v", got)
	}
}

// isrTicker mimics a hardware overflow interrupt: each fire advances the
// system clock by one period, then runs the handler
type isrTicker struct {
	period  uint32
	handler TickHandler
	running bool
}

func (s *isrTicker) Configure(period uint32, handler TickHandler) error {
	s.period = period
	s.handler = handler
	s.running = false
	return nil
}

func (s *isrTicker) Start()        { s.running = true }
func (s *isrTicker) Stop()         { s.running = false }
func (s *isrTicker) Running() bool { return s.running }

func (s *isrTicker) fire() {
	if !s.running {
		return
	}
	AdvanceClock(s.period)
	s.handler()
}

func TestTimingRingClockFromTickInterrupt(t *testing.T) {
	ClearTimingRing()
	SetTime(1000)
	ticker := &isrTicker{}
	tx := NewTransmitter(SoftUARTConfig{
		TxPin:     1,
		Baud:      9600,
		ClockFreq: ClockFreqATmega328p,
	}, newMockGPIODriver(), ticker)
	if err := tx.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tx.SendByte(0x55)
	for i := 0; i < FrameTicks+3; i++ {
		ticker.fire()
	}
	if tx.Busy() || ticker.Running() {
		t.Fatal("Frame did not complete")
	}

	events := TimingEvents()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	p := tx.Period()
	want := []uint32{1000 + p, 1000 + 10*p, 1000 + 11*p}
	for i, evt := range events {
		if evt.Clock != want[i] {
			t.Errorf("%s clock = %d, want %d", timingEventName(evt.EventType), evt.Clock, want[i])
		}
	}
}
