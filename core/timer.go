package core

import "sync/atomic"

// TimerFreq is the rate of the system tick counter (1 MHz on RP2040).
const TimerFreq = 1000000

var (
	systemTicks uint32 // atomic
	uptimeHigh  uint32 // atomic, counts wraps of systemTicks
	bootTime    uint32
)

// GetTime returns the current system time in timer ticks.
func GetTime() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTime publishes the hardware tick counter. Targets call it once per
// main loop iteration; tests call it to drive time deterministically.
func SetTime(ticks uint32) {
	if prev := atomic.SwapUint32(&systemTicks, ticks); ticks < prev {
		atomic.AddUint32(&uptimeHigh, 1)
	}
}

// AdvanceTime moves the clock forward by ticks.
func AdvanceTime(ticks uint32) {
	SetTime(GetTime() + ticks)
}

// GetUptime returns the 64-bit tick count since the clock started.
func GetUptime() uint64 {
	return uint64(atomic.LoadUint32(&uptimeHigh))<<32 | uint64(GetTime())
}

// TimerFromUS converts microseconds to timer ticks.
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerFromMS converts milliseconds to timer ticks.
func TimerFromMS(ms uint32) uint32 {
	return ms * (TimerFreq / 1000)
}

// TimerToMS converts timer ticks to whole milliseconds.
func TimerToMS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000)
}

// timeReached reports whether now is at or past deadline, tolerating
// counter wraparound for deadlines less than half the counter range away.
func timeReached(now, deadline uint32) bool {
	return int32(now-deadline) >= 0
}

// TimerInit records the boot time.
func TimerInit() {
	bootTime = GetTime()
}

// ProcessTimers runs every scheduled timer that is due.
func ProcessTimers() {
	TimerDispatch(GetTime())
}
