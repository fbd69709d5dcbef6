//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"cyclotron/core"
)

// RP2040 timer peripheral
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28 // raw low word, no latching
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock publishes the board constants. The RP2040 timer already
// counts microseconds, which is the core tick rate; wraps of the low word
// are counted by core.
func InitClock() {
	core.RegisterConstant("MCU", "rp2040")
	UpdateSystemTime()
}

// GetHardwareTime returns the low 32 bits of the microsecond counter.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime is called once per main loop iteration.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
