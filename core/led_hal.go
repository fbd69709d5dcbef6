package core

import "image/color"

// Kind distinguishes the two animated device types.
type Kind uint8

const (
	KindRing Kind = iota
	KindSegment
)

// Region is the part of the shared LED buffer owned by one device. Exactly
// one of Pixels and Elements is set, according to Kind.
type Region struct {
	ID       uint8
	Kind     Kind
	Device   DeviceID
	Pixels   []color.RGBA
	Elements []bool
	// Dirty is set when the region changed during the tick being flushed.
	Dirty bool
}

// LEDDriver pushes a finished frame to the hardware. Flush is called once
// per tick with every configured region, after all animators have run.
type LEDDriver interface {
	Flush(regions []Region) error
}

// LEDDriverFunc adapts a function to LEDDriver.
type LEDDriverFunc func(regions []Region) error

func (f LEDDriverFunc) Flush(regions []Region) error {
	return f(regions)
}

// Global singleton used by core code.
var ledDriver LEDDriver

// SetLEDDriver is called by target-specific code to register its driver.
func SetLEDDriver(d LEDDriver) {
	ledDriver = d
}

// MustLEDDriver returns the configured driver or panics if missing.
func MustLEDDriver() LEDDriver {
	if ledDriver == nil {
		panic(ErrNoLEDDriver)
	}
	return ledDriver
}
