package core

import "image/color"

// DeviceID names the hardware output a ring or segment display renders to.
type DeviceID uint8

// DeviceNone marks an instance with no output; it is never stepped.
const DeviceNone DeviceID = 0xFF

// Direction is the ring's sense of rotation.
type Direction uint8

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// RingState is one rotating ring: its configuration, its position, and the
// slice of the shared pixel buffer it owns.
//
// Configuration fields may be changed between ticks. Color and Direction
// take effect on the next lit pixel. LEDCount and StepCount should only be
// changed while the ring is idle; use Configure.
type RingState struct {
	ID     uint8
	Device DeviceID
	Active bool

	LEDCount         uint8
	StepCount        uint8 // 0 means one step per LED
	RevolutionTimeMs uint16
	Direction        Direction
	Color            color.RGBA
	Brightness       uint8 // 0 means full

	RampPhase  RampPhase
	RampTimeMs uint16
	RampStep   uint16

	CurrentIndex  uint8
	PreviousIndex uint8
	NextIndex     uint8

	Revolutions uint32
	Timer       Countdown

	pixels []color.RGBA
	delay  uint32
	moves  uint32
	lit    bool
	dirty  bool

	// rampDone is the ramp that ran to completion on the last step.
	rampDone RampPhase
}

// NewRing returns an idle ring rendering into pixels.
func NewRing(id uint8, device DeviceID, pixels []color.RGBA) *RingState {
	return &RingState{
		ID:       id,
		Device:   device,
		LEDCount: uint8(min(len(pixels), 255)),
		Color:    color.RGBA{R: 0xFF, A: 0xFF},
		pixels:   pixels,
	}
}

// Pixels returns the ring's slice of the shared buffer.
func (r *RingState) Pixels() []color.RGBA {
	return r.pixels
}

// size is the usable LED count, never more than the owned buffer.
func (r *RingState) size() int {
	return min(int(r.LEDCount), len(r.pixels))
}

// Delay returns the delay in ms of the interval currently being timed.
func (r *RingState) Delay() uint32 {
	return r.delay
}

// Running reports whether the ring has lit its first pixel and not since
// returned to idle.
func (r *RingState) Running() bool {
	return r.lit
}

// Step advances the animation if its interval has elapsed. It returns true
// only on the call that brings the lead pixel back around to LED 0.
func (r *RingState) Step() bool {
	n := r.size()
	if r.RevolutionTimeMs == 0 || n == 0 {
		r.Reset()
		return false
	}
	if r.StepCount == 0 {
		r.StepCount = uint8(n)
	}
	steps := uint32(r.StepCount)
	base := uint32(r.RevolutionTimeMs) / steps

	if !r.Timer.IsRunning() {
		r.delay = RampDelay(base, uint32(r.RampStep), steps, r.RampPhase)
		r.Timer.Start(r.delay)
	}
	if !r.Timer.JustFinished() {
		return false
	}

	// Ramps advance once per completed interval.
	if r.RampPhase != RampNone {
		r.RampStep++
		if uint32(r.RampStep) >= steps {
			if r.RampPhase == RampDown {
				r.Reset()
				r.rampDone = RampDown
				return false
			}
			r.rampDone = RampUp
			r.RampPhase = RampNone
			r.RampStep = 0
		}
	}
	r.delay = RampDelay(base, uint32(r.RampStep), steps, r.RampPhase)

	r.advance(n)
	r.Timer.Start(r.delay)

	// A single LED never moves, so each interval after the first one
	// counts as a revolution.
	if r.CurrentIndex == 0 && (r.CurrentIndex != r.PreviousIndex || n == 1 && r.moves > 1) {
		r.Revolutions++
		return true
	}
	return false
}

// advance renders one movement of the lead pixel and shifts the indices.
func (r *RingState) advance(n int) {
	lead := scaleColor(r.Color, r.Brightness)
	if r.PreviousIndex != r.CurrentIndex {
		r.pixels[r.PreviousIndex] = color.RGBA{}
	}
	r.pixels[r.CurrentIndex] = halfColor(lead)
	r.pixels[r.NextIndex] = lead

	r.PreviousIndex = r.CurrentIndex
	r.CurrentIndex = r.NextIndex
	r.NextIndex = r.neighbor(r.CurrentIndex, n)

	r.lit = true
	r.moves++
	r.dirty = true
}

// neighbor returns the index after i in the ring's direction.
func (r *RingState) neighbor(i uint8, n int) uint8 {
	if r.Direction == CounterClockwise {
		return uint8((int(i) - 1 + n) % n)
	}
	return uint8((int(i) + 1) % n)
}

// Reset returns the ring to idle: no ramp, indices at 0, timer stopped.
// Pixels the ring lit are cleared.
func (r *RingState) Reset() {
	if r.lit {
		clear(r.pixels)
		r.dirty = true
	}
	r.RampPhase = RampNone
	r.RampStep = 0
	r.CurrentIndex, r.PreviousIndex, r.NextIndex = 0, 0, 0
	r.Timer.Stop()
	r.delay = 0
	r.lit = false
	r.moves = 0
}

// Configure changes the LED and step counts. The ring is reset to idle
// first; ledCount may not exceed the buffer the ring was allocated.
func (r *RingState) Configure(ledCount, stepCount uint8) error {
	if ledCount == 0 || int(ledCount) > len(r.pixels) {
		return ErrInvalidLEDCount
	}
	r.Reset()
	clear(r.pixels)
	r.dirty = true
	r.LEDCount = ledCount
	r.StepCount = stepCount
	return nil
}

// Start sets the revolution time. The ring begins moving on the next step
// if it is active.
func (r *RingState) Start(revolutionMs uint16) {
	r.RevolutionTimeMs = revolutionMs
}

// Stop cancels the animation. The ring resets on its next step.
func (r *RingState) Stop() {
	r.RevolutionTimeMs = 0
}

// SetSpeed changes the revolution time. The interval already being timed
// is left alone; the new speed applies from the next pixel.
func (r *RingState) SetSpeed(revolutionMs uint16) {
	r.RevolutionTimeMs = revolutionMs
}

// SetColor changes the lead color and brightness.
func (r *RingState) SetColor(c color.RGBA, brightness uint8) {
	r.Color = c
	r.Brightness = brightness
}

// SetDirection changes the rotation. The pending next pixel is recomputed
// so the very next lit pixel already moves the new way.
func (r *RingState) SetDirection(d Direction) {
	r.Direction = d
	if n := r.size(); r.lit && n > 0 {
		r.NextIndex = r.neighbor(r.CurrentIndex, n)
	}
}

// RampUp eases the ring from standstill to full speed over one logical
// revolution. A running ring drops the interval it was timing, so the
// first eased interval is always the slowest one. rampMs is reported by
// query_ring.
func (r *RingState) RampUp(rampMs uint16) {
	r.RampPhase = RampUp
	r.RampStep = 0
	r.RampTimeMs = rampMs
	r.Timer.Stop()
}

// RampDown eases the ring to a stop over one logical revolution, after
// which it resets to idle. rampMs is reported by query_ring.
func (r *RingState) RampDown(rampMs uint16) {
	r.RampPhase = RampDown
	r.RampStep = 0
	r.RampTimeMs = rampMs
}

// takeRampDone reports and clears the ramp completed by the last step.
func (r *RingState) takeRampDone() RampPhase {
	p := r.rampDone
	r.rampDone = RampNone
	return p
}

// takeDirty reports and clears whether pixels changed since the last call.
func (r *RingState) takeDirty() bool {
	d := r.dirty
	r.dirty = false
	return d
}

// scaleColor applies an 8-bit brightness, where 0 means full scale.
func scaleColor(c color.RGBA, brightness uint8) color.RGBA {
	if brightness == 0 || brightness == 0xFF {
		return c
	}
	s := uint16(brightness) + 1
	return color.RGBA{
		R: uint8(uint16(c.R) * s >> 8),
		G: uint8(uint16(c.G) * s >> 8),
		B: uint8(uint16(c.B) * s >> 8),
		A: c.A,
	}
}

// halfColor blends c halfway toward off.
func halfColor(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R >> 1, G: c.G >> 1, B: c.B >> 1, A: c.A}
}
