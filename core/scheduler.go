package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	insertTimer(t)
}

// CancelTimer removes a timer from the schedule. Cancelling a timer that is
// not scheduled is a no-op.
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	removeTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || timerBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && timerBefore(current.Next.WakeTime, t.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// removeTimer unlinks t from the timer list
func removeTimer(t *Timer) {
	if timerList == nil {
		return
	}
	if timerList == t {
		timerList = t.Next
		t.Next = nil
		return
	}
	for current := timerList; current.Next != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// timerBefore compares wake times across 32-bit clock wraparound
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// timerPending reports whether any timer is scheduled
func timerPending() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return timerList != nil
}

// TimerDispatch processes due timers.
// Handlers run outside the critical section so they may schedule or cancel
// timers themselves.
func TimerDispatch() {
	for {
		state := disableInterrupts()
		if timerList == nil || timerBefore(currentTime, timerList.WakeTime) {
			restoreInterrupts(state)
			return
		}
		timer := timerList
		timerList = timer.Next
		timer.Next = nil
		restoreInterrupts(state)

		if timer.Handler(timer) == SF_RESCHEDULE {
			ScheduleTimer(timer)
		}
	}
}

// ResetTimers drops every scheduled timer (for testing)
func ResetTimers() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	timerList = nil
	currentTime = 0
}
