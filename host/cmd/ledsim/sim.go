package main

import (
	"fmt"

	"cyclotron/core"
	"cyclotron/profile"
)

const (
	minRevolutionMs = 100
	maxRevolutionMs = 10000
)

// patternCycle is the order p steps through.
var patternCycle = []core.Pattern{
	core.PatternRampUp,
	core.PatternRampDown,
	core.PatternPowerCheck,
	core.PatternOuterInner,
	core.PatternInnerPulse,
	core.PatternUpDown,
	core.PatternNone,
}

// Sim drives the first ring and first segment display of a profile from
// the keyboard.
type Sim struct {
	d    *core.Dispatcher
	ring *core.RingState
	seg  *core.SegmentState

	speed      uint16
	multiplier uint8
	revs       int
	boundaries int
}

// NewSim configures a dispatcher from p. Frames are computed but not
// flushed anywhere; Draw reads the buffers directly.
func NewSim(p *profile.Profile) (*Sim, error) {
	d := p.NewDispatcher(nil)
	if err := p.Apply(d); err != nil {
		return nil, err
	}
	s := &Sim{d: d, speed: profile.DefaultRevolutionMs, multiplier: 1}
	if len(p.Rings) > 0 {
		s.ring, _ = d.Ring(p.Rings[0].OID)
		s.speed = p.Rings[0].RevolutionMs
	}
	if len(p.Segments) > 0 {
		s.seg, _ = d.Segment(p.Segments[0].OID)
		s.multiplier = max(p.Segments[0].Multiplier, 1)
	}
	return s, nil
}

// Tick runs one dispatcher tick.
func (s *Sim) Tick() error {
	done, err := s.d.Tick()
	for _, c := range done {
		if c.Kind == core.KindRing {
			s.revs++
		} else {
			s.boundaries++
		}
	}
	return err
}

// HandleRune applies one key. It returns false when the simulator should
// exit.
func (s *Sim) HandleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		if s.ring != nil {
			if s.ring.RevolutionTimeMs > 0 {
				s.ring.Stop()
			} else {
				s.ring.Start(s.speed)
			}
		}
	case 'r':
		if s.ring != nil {
			s.ring.Start(s.speed)
			s.ring.RampUp(s.speed)
		}
	case 'd':
		if s.ring != nil && s.ring.RevolutionTimeMs > 0 {
			s.ring.RampDown(s.speed)
		}
	case 'c':
		if s.ring != nil {
			s.ring.SetDirection(core.Clockwise)
		}
	case 'x':
		if s.ring != nil {
			s.ring.SetDirection(core.CounterClockwise)
		}
	case '+', '=':
		s.setSpeed(max(s.speed-s.speed/10, minRevolutionMs))
	case '-', '_':
		s.setSpeed(min(s.speed/10*11+10, maxRevolutionMs))
	case '1', '2', '3', '4', '5':
		if s.seg != nil {
			s.seg.SetLevel(uint8(r - '1'))
		}
	case 'p':
		if s.seg != nil {
			s.seg.SetPattern(nextPattern(s.seg.Pattern), s.multiplier)
		}
	}
	return true
}

func (s *Sim) setSpeed(ms uint16) {
	s.speed = ms
	if s.ring != nil && s.ring.RevolutionTimeMs > 0 {
		s.ring.SetSpeed(ms)
	}
}

func nextPattern(p core.Pattern) core.Pattern {
	for i, q := range patternCycle {
		if q == p {
			return patternCycle[(i+1)%len(patternCycle)]
		}
	}
	return patternCycle[0]
}

// Status is the one-line summary shown under the animation.
func (s *Sim) Status() string {
	line := ""
	if r := s.ring; r != nil {
		line = fmt.Sprintf("ring %d: %dms %s ramp=%s revs=%d", r.ID, s.speed, r.Direction, r.RampPhase, s.revs)
	}
	if g := s.seg; g != nil {
		if line != "" {
			line += " | "
		}
		line += fmt.Sprintf("segment %d: %s %s level=%d", g.ID, g.Pattern, g.Display, g.Level+1)
	}
	return line
}
