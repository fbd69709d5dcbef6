package core

import (
	"image/color"

	"cyclotron/protocol"
)

// Global dispatcher driven by LEDTask and the animation commands.
var dispatcher *Dispatcher

// SetDispatcher is called by target code (or tests) before
// InitLEDCommands handlers can run.
func SetDispatcher(d *Dispatcher) {
	dispatcher = d
}

// MustDispatcher returns the configured dispatcher or panics if missing.
func MustDispatcher() *Dispatcher {
	if dispatcher == nil {
		panic("dispatcher not configured")
	}
	return dispatcher
}

// speedTimer applies a queued revolution time when its clock arrives.
type speedTimer struct {
	timer        Timer
	oid          uint8
	revolutionMs uint16
}

var speedTimers = make(map[uint8]*speedTimer)

// InitLEDCommands registers the ring and segment commands.
func InitLEDCommands() {
	RegisterCommand("config_ring", "oid=%c device=%c led_count=%c step_count=%c", handleConfigRing)
	RegisterCommand("config_segment", "oid=%c device=%c elements=%c levels=%c inverted=%c", handleConfigSegment)

	RegisterCommand("ring_start", "oid=%c revolution_ms=%hu", handleRingStart)
	RegisterCommand("ring_stop", "oid=%c", handleRingStop)
	RegisterCommand("ring_set_color", "oid=%c red=%c green=%c blue=%c brightness=%c", handleRingSetColor)
	RegisterCommand("ring_set_speed", "oid=%c revolution_ms=%hu", handleRingSetSpeed)
	RegisterCommand("ring_set_direction", "oid=%c clockwise=%c", handleRingSetDirection)
	RegisterCommand("ring_ramp", "oid=%c phase=%c ramp_ms=%hu", handleRingRamp)
	RegisterCommand("queue_ring_speed", "oid=%c clock=%u revolution_ms=%hu", handleQueueRingSpeed)
	RegisterCommand("query_ring", "oid=%c", handleQueryRing)

	RegisterCommand("segment_pattern", "oid=%c pattern=%c multiplier=%c", handleSegmentPattern)
	RegisterCommand("segment_level", "oid=%c level=%c", handleSegmentLevel)
	RegisterCommand("segment_bars", "oid=%c count=%c", handleSegmentBars)
	RegisterCommand("segment_stop", "oid=%c", handleSegmentStop)
	RegisterCommand("query_segment", "oid=%c", handleQuerySegment)

	RegisterResponse("ring_state", "oid=%c running=%c revolution_ms=%hu clockwise=%c phase=%c ramp_ms=%hu ramp_step=%hu current=%c revolutions=%u delay=%u")
	RegisterResponse("ring_revolution", "oid=%c count=%u")
	RegisterResponse("segment_state", "oid=%c pattern=%c display=%c current=%c level=%c")

	RegisterEnumeration("pattern", patternNames[:])
	RegisterEnumeration("phase", []string{RampNone.String(), RampUp.String(), RampDown.String()})
	RegisterEnumeration("display", []string{
		DisplayOff.String(), DisplayUnknown.String(), DisplayEmpty.String(),
		DisplayMid.String(), DisplayFull.String(), DisplayBars.String(),
	})
}

// decodeArgs reads one VLQ argument into each destination, in order.
func decodeArgs(data *[]byte, dst ...*uint32) error {
	for _, p := range dst {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func ringFor(oid uint32) (*RingState, error) {
	r, ok := MustDispatcher().Ring(uint8(oid))
	if !ok {
		return nil, ErrUnknownObject
	}
	return r, nil
}

func segmentFor(oid uint32) (*SegmentState, error) {
	s, ok := MustDispatcher().Segment(uint8(oid))
	if !ok {
		return nil, ErrUnknownObject
	}
	return s, nil
}

func handleConfigRing(data *[]byte) error {
	var oid, device, ledCount, stepCount uint32
	if err := decodeArgs(data, &oid, &device, &ledCount, &stepCount); err != nil {
		return err
	}
	if IsShutdown() {
		return ErrShutdown
	}
	r, err := MustDispatcher().AddRing(uint8(oid), DeviceID(device), int(ledCount))
	if err != nil {
		return err
	}
	r.StepCount = uint8(stepCount)
	r.Active = true
	return nil
}

func handleConfigSegment(data *[]byte) error {
	var oid, device, elements, levels, inverted uint32
	if err := decodeArgs(data, &oid, &device, &elements, &levels, &inverted); err != nil {
		return err
	}
	if IsShutdown() {
		return ErrShutdown
	}
	s, err := MustDispatcher().AddSegment(uint8(oid), DeviceID(device), int(elements))
	if err != nil {
		return err
	}
	s.Levels = uint8(levels)
	s.Inverted = inverted != 0
	s.Active = true
	s.Clear()
	return nil
}

func handleRingStart(data *[]byte) error {
	var oid, revolutionMs uint32
	if err := decodeArgs(data, &oid, &revolutionMs); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	if IsShutdown() {
		return ErrShutdown
	}
	r.Active = true
	r.Start(uint16(revolutionMs))
	RecordEvent(EvtRingStart, r.ID, revolutionMs, 0)
	return nil
}

func handleRingStop(data *[]byte) error {
	var oid uint32
	if err := decodeArgs(data, &oid); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	r.Stop()
	RecordEvent(EvtRingStop, r.ID, r.Revolutions, 0)
	return nil
}

func handleRingSetColor(data *[]byte) error {
	var oid, red, green, blue, brightness uint32
	if err := decodeArgs(data, &oid, &red, &green, &blue, &brightness); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	r.SetColor(color.RGBA{R: uint8(red), G: uint8(green), B: uint8(blue), A: 0xFF}, uint8(brightness))
	return nil
}

func handleRingSetSpeed(data *[]byte) error {
	var oid, revolutionMs uint32
	if err := decodeArgs(data, &oid, &revolutionMs); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	r.SetSpeed(uint16(revolutionMs))
	return nil
}

func handleRingSetDirection(data *[]byte) error {
	var oid, clockwise uint32
	if err := decodeArgs(data, &oid, &clockwise); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	if clockwise != 0 {
		r.SetDirection(Clockwise)
	} else {
		r.SetDirection(CounterClockwise)
	}
	return nil
}

// handleRingRamp starts a ramp. Ramping needs a revolution time to ease
// toward, so the ring must have been given one with ring_start or
// ring_set_speed.
func handleRingRamp(data *[]byte) error {
	var oid, phase, rampMs uint32
	if err := decodeArgs(data, &oid, &phase, &rampMs); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	switch RampPhase(phase) {
	case RampNone:
		r.RampPhase = RampNone
		r.RampStep = 0
		return nil
	case RampUp:
		if IsShutdown() {
			return ErrShutdown
		}
		if r.RevolutionTimeMs == 0 {
			return ErrInvalidArgument
		}
		r.Active = true
		r.RampUp(uint16(rampMs))
	case RampDown:
		r.RampDown(uint16(rampMs))
	default:
		return ErrInvalidArgument
	}
	RecordEvent(EvtRingStart, r.ID, uint32(r.RevolutionTimeMs), phase)
	return nil
}

// handleQueueRingSpeed applies a revolution time at a future MCU clock.
// A later request for the same ring replaces a pending one.
func handleQueueRingSpeed(data *[]byte) error {
	var oid, clock, revolutionMs uint32
	if err := decodeArgs(data, &oid, &clock, &revolutionMs); err != nil {
		return err
	}
	if _, err := ringFor(oid); err != nil {
		return err
	}
	if IsShutdown() {
		return ErrShutdown
	}
	st, ok := speedTimers[uint8(oid)]
	if !ok {
		st = &speedTimer{oid: uint8(oid)}
		st.timer.Handler = st.fire
		speedTimers[uint8(oid)] = st
	}
	st.revolutionMs = uint16(revolutionMs)
	st.timer.WakeTime = clock
	ScheduleTimer(&st.timer)
	return nil
}

func (st *speedTimer) fire(*Timer) uint8 {
	if dispatcher == nil {
		return SF_DONE
	}
	if r, ok := dispatcher.Ring(st.oid); ok {
		r.SetSpeed(st.revolutionMs)
		RecordEvent(EvtQueuedSpeed, st.oid, uint32(st.revolutionMs), 0)
	}
	return SF_DONE
}

func handleQueryRing(data *[]byte) error {
	var oid uint32
	if err := decodeArgs(data, &oid); err != nil {
		return err
	}
	r, err := ringFor(oid)
	if err != nil {
		return err
	}
	SendResponse("ring_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(r.ID))
		protocol.EncodeVLQUint(output, boolToUint(r.Running()))
		protocol.EncodeVLQUint(output, uint32(r.RevolutionTimeMs))
		protocol.EncodeVLQUint(output, boolToUint(r.Direction == Clockwise))
		protocol.EncodeVLQUint(output, uint32(r.RampPhase))
		protocol.EncodeVLQUint(output, uint32(r.RampTimeMs))
		protocol.EncodeVLQUint(output, uint32(r.RampStep))
		protocol.EncodeVLQUint(output, uint32(r.CurrentIndex))
		protocol.EncodeVLQUint(output, r.Revolutions)
		protocol.EncodeVLQUint(output, r.Delay())
	})
	return nil
}

func handleSegmentPattern(data *[]byte) error {
	var oid, pattern, multiplier uint32
	if err := decodeArgs(data, &oid, &pattern, &multiplier); err != nil {
		return err
	}
	s, err := segmentFor(oid)
	if err != nil {
		return err
	}
	if pattern >= uint32(patternCount) {
		return ErrInvalidArgument
	}
	if IsShutdown() {
		return ErrShutdown
	}
	s.Active = true
	s.SetPattern(Pattern(pattern), uint8(multiplier))
	RecordEvent(EvtSegmentPattern, s.ID, pattern, multiplier)
	return nil
}

func handleSegmentLevel(data *[]byte) error {
	var oid, level uint32
	if err := decodeArgs(data, &oid, &level); err != nil {
		return err
	}
	s, err := segmentFor(oid)
	if err != nil {
		return err
	}
	s.SetLevel(uint8(level))
	return nil
}

func handleSegmentBars(data *[]byte) error {
	var oid, count uint32
	if err := decodeArgs(data, &oid, &count); err != nil {
		return err
	}
	s, err := segmentFor(oid)
	if err != nil {
		return err
	}
	if IsShutdown() {
		return ErrShutdown
	}
	s.Active = true
	s.ShowBars(uint8(count))
	return nil
}

func handleSegmentStop(data *[]byte) error {
	var oid uint32
	if err := decodeArgs(data, &oid); err != nil {
		return err
	}
	s, err := segmentFor(oid)
	if err != nil {
		return err
	}
	s.Reset()
	return nil
}

func handleQuerySegment(data *[]byte) error {
	var oid uint32
	if err := decodeArgs(data, &oid); err != nil {
		return err
	}
	s, err := segmentFor(oid)
	if err != nil {
		return err
	}
	sendSegmentState(s)
	return nil
}

func sendSegmentState(s *SegmentState) {
	SendResponse("segment_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(s.ID))
		protocol.EncodeVLQUint(output, uint32(s.Pattern))
		protocol.EncodeVLQUint(output, uint32(s.Display))
		protocol.EncodeVLQUint(output, uint32(s.CurrentElement))
		protocol.EncodeVLQUint(output, uint32(s.Level))
	})
}

// LEDTask runs one dispatcher tick from the main loop and reports the
// boundaries it produced to the host.
func LEDTask() {
	d := dispatcher
	if d == nil || IsShutdown() {
		return
	}
	done, err := d.Tick()
	if err != nil {
		RecordEvent(EvtFlushError, 0, d.Ticks(), 0)
		DebugPrintln("[led] flush: " + err.Error())
	}
	for _, c := range done {
		switch c.Kind {
		case KindRing:
			r := d.rings[c.ID]
			RecordEvent(EvtRevolution, c.ID, r.Revolutions, 0)
			SendResponse("ring_revolution", func(output protocol.OutputBuffer) {
				protocol.EncodeVLQUint(output, uint32(r.ID))
				protocol.EncodeVLQUint(output, r.Revolutions)
			})
		case KindSegment:
			s := d.segments[c.ID]
			RecordEvent(EvtSegmentBoundary, c.ID, uint32(s.Display), 0)
			sendSegmentState(s)
		}
	}
}
