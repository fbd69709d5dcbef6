package core

// Timer is a scheduled callback kept on a list sorted by wake time.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer

	queued bool
}

// Handler results.
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *Timer

// ScheduleTimer inserts t in wake order. Scheduling an already queued timer
// moves it.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.queued {
		unlinkTimer(t)
	}
	insertTimer(t)
}

// CancelTimer removes t from the schedule if it is queued.
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.queued {
		unlinkTimer(t)
	}
}

// Scheduled reports whether t is waiting to fire.
func (t *Timer) Scheduled() bool {
	return t.queued
}

func insertTimer(t *Timer) {
	t.queued = true
	if timerList == nil || timeBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}
	cur := timerList
	for cur.Next != nil && !timeBefore(t.WakeTime, cur.Next.WakeTime) {
		cur = cur.Next
	}
	t.Next = cur.Next
	cur.Next = t
}

func unlinkTimer(t *Timer) {
	for p := &timerList; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			break
		}
	}
	t.Next = nil
	t.queued = false
}

func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// TimerDispatch runs every timer whose wake time is at or before now.
// Handlers returning SF_RESCHEDULE must have advanced WakeTime.
func TimerDispatch(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && timeReached(now, timerList.WakeTime) {
		t := timerList
		timerList = t.Next
		t.Next = nil
		t.queued = false

		if t.Handler(t) == SF_RESCHEDULE {
			insertTimer(t)
		}
	}
}

// resetTimers drops every scheduled timer.
func resetTimers() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for t := timerList; t != nil; {
		next := t.Next
		t.Next = nil
		t.queued = false
		t = next
	}
	timerList = nil
}
