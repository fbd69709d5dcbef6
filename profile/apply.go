package profile

import (
	"fmt"

	"cyclotron/core"
)

// NewDispatcher allocates a dispatcher sized for the profile's pools.
func (p *Profile) NewDispatcher(driver core.LEDDriver) *core.Dispatcher {
	return core.NewDispatcher(p.MaxPixels, p.MaxElements, driver)
}

// Apply configures every ring and segment of the profile on d, in profile
// order, and starts the ones marked to run at boot.
func (p *Profile) Apply(d *core.Dispatcher) error {
	for _, rc := range p.Rings {
		r, err := d.AddRing(rc.OID, core.DeviceID(rc.Device), int(rc.LEDCount))
		if err != nil {
			return fmt.Errorf("profile: ring %d: %w", rc.OID, err)
		}
		c, err := ParseColor(rc.Color)
		if err != nil {
			return fmt.Errorf("profile: ring %d: %w", rc.OID, err)
		}
		if err := r.Configure(rc.LEDCount, rc.StepCount); err != nil {
			return fmt.Errorf("profile: ring %d: %w", rc.OID, err)
		}
		r.SetColor(c, rc.Brightness)
		if rc.Clockwise != nil && !*rc.Clockwise {
			r.SetDirection(core.CounterClockwise)
		}
		r.Active = true
		if rc.Autostart {
			r.Start(rc.RevolutionMs)
		}
	}

	for _, sc := range p.Segments {
		s, err := d.AddSegment(sc.OID, core.DeviceID(sc.Device), int(sc.Elements))
		if err != nil {
			return fmt.Errorf("profile: segment %d: %w", sc.OID, err)
		}
		pattern, ok := core.ParsePattern(sc.Pattern)
		if !ok {
			return fmt.Errorf("profile: segment %d: %q: %w", sc.OID, sc.Pattern, ErrUnknownPattern)
		}
		s.Levels = sc.Levels
		s.Inverted = sc.Inverted
		s.SetLevel(sc.Level)
		s.Active = true
		s.Clear()
		if pattern != core.PatternNone {
			s.SetPattern(pattern, sc.Multiplier)
		}
	}
	return nil
}

// Ring returns the configuration of ring oid.
func (p *Profile) Ring(oid uint8) (RingConfig, bool) {
	for _, r := range p.Rings {
		if r.OID == oid {
			return r, true
		}
	}
	return RingConfig{}, false
}
