package ht16k33

import (
	"bytes"
	"errors"
	"testing"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeI2C)(nil)

type fakeI2C struct {
	writes [][]byte
	addrs  []uint16
	err    error
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.addrs = append(f.addrs, addr)
	f.writes = append(f.writes, append([]byte(nil), w...))
	return nil
}

func (f *fakeI2C) last() []byte {
	return f.writes[len(f.writes)-1]
}

func TestElementIndex(t *testing.T) {
	normal := []int{0, 16, 32, 48, 1, 17, 33, 49, 2, 18, 34, 50, 3, 19, 35, 51, 4, 20, 36, 52, 5, 21, 37, 53, 6, 22, 38, 54}
	inverted := []int{54, 38, 22, 6, 53, 37, 21, 5, 52, 36, 20, 4, 51, 35, 19, 3, 50, 34, 18, 2, 49, 33, 17, 1, 48, 32, 16, 0}

	for e := 0; e < MaxElements; e++ {
		if got := ElementIndex(e, MaxElements, false); got != normal[e] {
			t.Errorf("ElementIndex(%d) = %d, want %d", e, got, normal[e])
		}
		if got := ElementIndex(e, MaxElements, true); got != inverted[e] {
			t.Errorf("inverted ElementIndex(%d) = %d, want %d", e, got, inverted[e])
		}
	}
}

func TestConfigure(t *testing.T) {
	bus := &fakeI2C{}
	d := New(bus, 0)
	if err := d.Configure(20); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	want := [][]byte{
		{cmdOscillatorOn},
		{cmdBrightness | MaxBrightness},
		make([]byte, ramSize+1),
		{cmdDisplayOn},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("got %d writes, want %d", len(bus.writes), len(want))
	}
	for i := range want {
		if !bytes.Equal(bus.writes[i], want[i]) {
			t.Errorf("write %d = %x, want %x", i, bus.writes[i], want[i])
		}
		if bus.addrs[i] != DefaultAddress {
			t.Errorf("write %d to %#x", i, bus.addrs[i])
		}
	}
}

func TestShow(t *testing.T) {
	bus := &fakeI2C{}
	d := New(bus, 0x71)

	elements := make([]bool, MaxElements)
	elements[0] = true // LED 0: RAM byte 0 bit 0
	elements[1] = true // LED 16: RAM byte 2 bit 0
	elements[5] = true // LED 17: RAM byte 2 bit 1
	if err := d.Show(elements); err != nil {
		t.Fatalf("Show: %v", err)
	}

	got := bus.last()
	if got[0] != 0x00 {
		t.Errorf("RAM address = %#x, want 0", got[0])
	}
	ram := got[1:]
	if ram[0] != 0x01 || ram[2] != 0x03 {
		t.Errorf("ram = %x", ram)
	}

	n := len(bus.writes)
	if err := d.Show(elements); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(bus.writes) != n {
		t.Error("unchanged frame was written again")
	}

	d.Inverted = true
	if err := d.Show(elements); err != nil {
		t.Fatalf("Show: %v", err)
	}
	ram = bus.last()[1:]
	// element 0 inverted is LED 54: byte 6 bit 6
	if ram[6]&0x40 == 0 {
		t.Errorf("inverted ram = %x", ram)
	}
}

func TestShowErrors(t *testing.T) {
	bus := &fakeI2C{}
	d := New(bus, 0)
	if err := d.Show(make([]bool, MaxElements+1)); !errors.Is(err, ErrTooManyElements) {
		t.Errorf("Show(29) = %v", err)
	}

	bus.err = errors.New("nack")
	if err := d.Show(make([]bool, 4)); err == nil {
		t.Error("expected bus error")
	}
	// a failed write is retried on the next frame
	bus.err = nil
	if err := d.Show(make([]bool, 4)); err != nil || len(bus.writes) != 1 {
		t.Errorf("retry: err=%v writes=%d", err, len(bus.writes))
	}
}
