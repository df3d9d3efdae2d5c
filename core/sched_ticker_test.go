package core

import "testing"

func TestSchedulerOrdering(t *testing.T) {
	ResetTimers()
	SetTime(0)

	var fired []uint32
	handler := func(tm *Timer) uint8 {
		fired = append(fired, tm.WakeTime)
		return SF_DONE
	}

	timers := []*Timer{
		{WakeTime: 30, Handler: handler},
		{WakeTime: 10, Handler: handler},
		{WakeTime: 20, Handler: handler},
	}
	for _, tm := range timers {
		ScheduleTimer(tm)
	}

	AdvanceTime(40)

	want := []uint32{10, 20, 30}
	if len(fired) != len(want) {
		t.Fatalf("Expected %d timers fired, got %d", len(want), len(fired))
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fire %d: WakeTime %d, want %d", i, fired[i], want[i])
		}
	}
}

func TestSchedulerWraparound(t *testing.T) {
	ResetTimers()
	SetTime(0xFFFFFFF0)

	var fired []string
	ScheduleTimer(&Timer{WakeTime: 0x00000008, Handler: func(*Timer) uint8 {
		fired = append(fired, "after-wrap")
		return SF_DONE
	}})
	ScheduleTimer(&Timer{WakeTime: 0xFFFFFFF8, Handler: func(*Timer) uint8 {
		fired = append(fired, "before-wrap")
		return SF_DONE
	}})

	AdvanceTime(0x20)

	if len(fired) != 2 || fired[0] != "before-wrap" || fired[1] != "after-wrap" {
		t.Errorf("Unexpected firing order across wrap: %v", fired)
	}
}

func TestCancelTimer(t *testing.T) {
	ResetTimers()
	SetTime(0)

	fired := false
	tm := &Timer{WakeTime: 5, Handler: func(*Timer) uint8 {
		fired = true
		return SF_DONE
	}}
	ScheduleTimer(tm)
	CancelTimer(tm)
	CancelTimer(tm)

	AdvanceTime(10)
	if fired {
		t.Error("Cancelled timer fired")
	}
}

func TestSchedTickerPeriod(t *testing.T) {
	ResetTimers()
	SetTime(100)

	var at []uint32
	ticker := NewSchedTicker()
	if err := ticker.Configure(25, func() { at = append(at, GetTime()) }); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if ticker.Running() {
		t.Fatal("Ticker running after Configure")
	}

	ticker.Start()
	ticker.Start() // already running, must not double-schedule
	AdvanceTime(100)
	ticker.Stop()

	want := []uint32{125, 150, 175, 200}
	if len(at) != len(want) {
		t.Fatalf("Expected %d ticks, got %v", len(want), at)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Errorf("tick %d at %d, want %d", i, at[i], want[i])
		}
	}
}

func TestSchedTickerStopFromHandler(t *testing.T) {
	ResetTimers()
	SetTime(0)

	ticker := NewSchedTicker()
	count := 0
	_ = ticker.Configure(10, func() {
		count++
		if count == 3 {
			ticker.Stop()
		}
	})

	ticker.Start()
	AdvanceTime(100)

	if count != 3 {
		t.Errorf("Expected 3 ticks before stop, got %d", count)
	}
	if ticker.Running() {
		t.Error("Ticker still running")
	}
	if timerPending() {
		t.Error("Timer left scheduled after stop")
	}
}

func TestSchedTickerRestartFullPeriod(t *testing.T) {
	ResetTimers()
	SetTime(0)

	var at []uint32
	ticker := NewSchedTicker()
	_ = ticker.Configure(10, func() { at = append(at, GetTime()) })

	ticker.Start()
	AdvanceTime(17) // one tick at 10, stop mid-period
	ticker.Stop()
	ticker.Stop()

	ticker.Start() // at 17: next tick must be a full period later
	AdvanceTime(10)
	ticker.Stop()

	if len(at) != 2 || at[0] != 10 || at[1] != 27 {
		t.Errorf("Unexpected tick times: %v", at)
	}
}

func TestSchedTickerZeroPeriod(t *testing.T) {
	ticker := NewSchedTicker()
	if err := ticker.Configure(0, func() {}); err != ErrZeroPeriod {
		t.Errorf("Expected ErrZeroPeriod, got %v", err)
	}
}
