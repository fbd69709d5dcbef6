//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts around scheduler list updates.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
