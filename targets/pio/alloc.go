// Package pio drives WS2812 LED strips from the RP2040's PIO blocks.
package pio

import (
	"errors"
	"image/color"
)

var ErrNoStateMachine = errors.New("no free PIO state machine")

// allocator hands out PIO state machines round-robin. The RP2040 has two
// PIO blocks with four state machines each.
type allocator struct {
	used   [2][4]bool
	nextPC uint8
	nextSM uint8
}

var machines allocator

// allocate reserves a free state machine.
// Returns (pioNum, smNum, ok)
func (a *allocator) allocate() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ {
		pioNum, smNum := a.nextPC, a.nextSM

		a.nextSM++
		if a.nextSM >= 4 {
			a.nextSM = 0
			a.nextPC = (a.nextPC + 1) % 2
		}

		if !a.used[pioNum][smNum] {
			a.used[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

func (a *allocator) release(pioNum, smNum uint8) {
	a.used[pioNum%2][smNum%4] = false
}

// Status returns the allocation table for debugging.
func Status() [2][4]bool {
	return machines.used
}

// grbWord packs a pixel into the 24 most significant bits of a FIFO word,
// in the green, red, blue order WS2812s shift in.
func grbWord(c color.RGBA) uint32 {
	return uint32(c.G)<<24 | uint32(c.R)<<16 | uint32(c.B)<<8
}
