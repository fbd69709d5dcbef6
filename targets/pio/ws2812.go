//go:build rp2040

package pio

import (
	"image/color"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// ws2812Program is the standard 800 kHz WS2812 program, ten PIO cycles per
// bit with the data line on side-set:
//
//	bitloop: out x, 1       side 0 [2]
//	         jmp !x, zero   side 1 [1]
//	         jmp bitloop    side 1 [4]
//	zero:    nop            side 0 [4]
var ws2812Program = []uint16{
	0x6221,
	0x1123,
	0x1400,
	0xa442,
}

const (
	ws2812Origin    = 0 // jumps are absolute
	ws2812Freq      = 800000
	ws2812CyclesBit = 10
)

// programLoaded tracks which PIO blocks already hold the program.
var programLoaded [2]bool

// WS2812 is one strip driven by a PIO state machine.
type WS2812 struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	pioNum uint8
	smNum  uint8
}

// NewWS2812 claims a free state machine and starts it on pin.
func NewWS2812(pin machine.Pin) (*WS2812, error) {
	pioNum, smNum, ok := machines.allocate()
	if !ok {
		return nil, ErrNoStateMachine
	}
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	w := &WS2812{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pin:    pin,
		pioNum: pioNum,
		smNum:  smNum,
	}
	if err := w.init(); err != nil {
		machines.release(pioNum, smNum)
		return nil, err
	}
	return w, nil
}

func (w *WS2812) init() error {
	w.sm.TryClaim()

	if !programLoaded[w.pioNum] {
		if _, err := w.pio.AddProgram(ws2812Program, ws2812Origin); err != nil {
			return err
		}
		programLoaded[w.pioNum] = true
	}
	offset := uint8(ws2812Origin)

	whole, frac, err := rp2pio.ClkDivFromFrequency(ws2812Freq*ws2812CyclesBit, machine.CPUFrequency())
	if err != nil {
		return err
	}

	w.pin.Configure(machine.PinConfig{Mode: w.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(1, false, false)
	cfg.SetSidesetPins(w.pin)
	// Shift left so the pixel's MSB goes first; autopull every 24 bits.
	cfg.SetOutShift(false, true, 24)
	cfg.SetFIFOJoin(rp2pio.FifoJoinTx)
	cfg.SetWrap(offset+uint8(len(ws2812Program))-1, offset)
	cfg.SetClkDivIntFrac(whole, frac)

	w.sm.Init(offset, cfg)
	w.sm.SetPindirsConsecutive(w.pin, 1, true)
	w.sm.SetPinsConsecutive(w.pin, 1, false)
	w.sm.SetEnabled(true)
	return nil
}

// WriteColors shifts out one frame. The latch gap is left to the caller's
// tick period, which is far longer than the strip's reset time.
func (w *WS2812) WriteColors(buf []color.RGBA) error {
	for _, c := range buf {
		for w.sm.IsTxFIFOFull() {
			// Busy wait
		}
		w.sm.TxPut(grbWord(c))
	}
	return nil
}

// Close stops the state machine and returns it to the pool.
func (w *WS2812) Close() {
	w.sm.SetEnabled(false)
	w.sm.ClearFIFOs()
	machines.release(w.pioNum, w.smNum)
}
