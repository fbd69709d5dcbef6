// Package ht16k33 drives a 28 element bargraph wired to an HT16K33 LED
// controller over I2C.
package ht16k33

import (
	"errors"

	"tinygo.org/x/drivers"
)

const (
	DefaultAddress = 0x70

	cmdOscillatorOn = 0x21
	cmdDisplayOn    = 0x81 // display on, blink off
	cmdBrightness   = 0xE0
	ramSize         = 16

	MaxBrightness = 15
	MaxElements   = 28
)

var ErrTooManyElements = errors.New("more elements than the display has")

// ElementIndex maps bargraph element e (0 at the bottom) to the controller
// LED it is wired to. Elements run down the four rows of each column, so
// consecutive elements are 16 LEDs apart. An inverted display is addressed
// from the other end.
func ElementIndex(e, n int, inverted bool) int {
	if inverted {
		e = n - 1 - e
	}
	return (e%4)*16 + e/4
}

// Device is one HT16K33 bargraph.
type Device struct {
	bus      drivers.I2C
	Address  uint16
	Inverted bool

	ram     [ramSize]byte
	shown   [ramSize]byte
	written bool
}

// New returns a device on bus; call Configure before use.
func New(bus drivers.I2C, address uint16) *Device {
	if address == 0 {
		address = DefaultAddress
	}
	return &Device{bus: bus, Address: address}
}

// Configure starts the oscillator, blanks the display and switches it on.
func (d *Device) Configure(brightness uint8) error {
	if err := d.command(cmdOscillatorOn); err != nil {
		return err
	}
	if err := d.SetBrightness(brightness); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.command(cmdDisplayOn)
}

// SetBrightness sets the dimming level, 0 to MaxBrightness.
func (d *Device) SetBrightness(level uint8) error {
	return d.command(cmdBrightness | min(level, MaxBrightness))
}

// Clear turns every LED off.
func (d *Device) Clear() error {
	d.ram = [ramSize]byte{}
	d.written = false
	return d.flush()
}

// Show writes the element states to the display. Nothing is sent when the
// display already shows them.
func (d *Device) Show(elements []bool) error {
	n := len(elements)
	if n > MaxElements {
		return ErrTooManyElements
	}
	d.ram = [ramSize]byte{}
	for e, on := range elements {
		if on {
			led := ElementIndex(e, n, d.Inverted)
			d.ram[led/8] |= 1 << (led % 8)
		}
	}
	if d.written && d.ram == d.shown {
		return nil
	}
	return d.flush()
}

// flush writes display RAM from address 0.
func (d *Device) flush() error {
	var buf [ramSize + 1]byte
	copy(buf[1:], d.ram[:])
	if err := d.bus.Tx(d.Address, buf[:], nil); err != nil {
		return err
	}
	d.shown = d.ram
	d.written = true
	return nil
}

func (d *Device) command(c byte) error {
	return d.bus.Tx(d.Address, []byte{c}, nil)
}
