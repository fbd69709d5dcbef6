package core

// Countdown is a restartable one-shot interval on the system tick clock.
// It never blocks: the main loop polls JustFinished, which reports the
// expiry exactly once.
type Countdown struct {
	start    uint32
	duration uint32 // ticks
	running  bool
}

// Start begins an interval of ms milliseconds from now, replacing any
// interval in progress.
func (c *Countdown) Start(ms uint32) {
	c.duration = TimerFromMS(ms)
	c.Restart()
}

// Restart begins a new interval of the last duration from now.
func (c *Countdown) Restart() {
	c.start = GetTime()
	c.running = true
}

// Stop abandons the interval without reporting it finished.
func (c *Countdown) Stop() {
	c.running = false
}

// IsRunning reports whether an interval is in progress.
func (c *Countdown) IsRunning() bool {
	return c.running
}

// JustFinished returns true on the first call after the interval elapses
// and false on every other call. It stops the countdown when it fires.
func (c *Countdown) JustFinished() bool {
	if !c.running || GetTime()-c.start < c.duration {
		return false
	}
	c.running = false
	return true
}

// Remaining returns the milliseconds left, or 0 when not running.
func (c *Countdown) Remaining() uint32 {
	if !c.running {
		return 0
	}
	elapsed := GetTime() - c.start
	if elapsed >= c.duration {
		return 0
	}
	return TimerToMS(c.duration - elapsed)
}

// Duration returns the length of the current or last interval in ms.
func (c *Countdown) Duration() uint32 {
	return TimerToMS(c.duration)
}
