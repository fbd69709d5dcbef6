//go:build !tinygo

package core

// State stands in for the saved interrupt mask on hosted builds, where
// there are no interrupts to mask.
type State uintptr

func disableInterrupts() State {
	return 0
}

func restoreInterrupts(State) {}
