package pio

import (
	"image/color"
	"testing"
)

func TestAllocate(t *testing.T) {
	var a allocator
	seen := map[[2]uint8]bool{}
	for i := 0; i < 8; i++ {
		p, s, ok := a.allocate()
		if !ok {
			t.Fatalf("allocation %d failed", i)
		}
		key := [2]uint8{p, s}
		if seen[key] {
			t.Fatalf("state machine %v handed out twice", key)
		}
		seen[key] = true
	}
	if _, _, ok := a.allocate(); ok {
		t.Error("ninth allocation should fail")
	}

	a.release(1, 2)
	p, s, ok := a.allocate()
	if !ok || p != 1 || s != 2 {
		t.Errorf("after release got (%d,%d,%v), want (1,2,true)", p, s, ok)
	}
}

func TestGRBWord(t *testing.T) {
	got := grbWord(color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF})
	if want := uint32(0x22113300); got != want {
		t.Errorf("grbWord = %#08x, want %#08x", got, want)
	}
}
