package core

import "image/color"

// PixelSink is an addressable strip, such as a WS2812 chain.
type PixelSink interface {
	WriteColors(buf []color.RGBA) error
}

// ElementSink is an on/off segment display, such as an HT16K33 bargraph.
type ElementSink interface {
	Show(elements []bool) error
}

// LEDRouter is an LEDDriver that sends each region to the sink attached to
// its device. Rings sharing a device are one daisy-chained strip, written
// in configuration order. Only devices with a dirty region are written.
type LEDRouter struct {
	strips    map[DeviceID]PixelSink
	bargraphs map[DeviceID]ElementSink
	frame     map[DeviceID][]color.RGBA
	dirty     map[DeviceID]bool
}

// NewLEDRouter returns a router with no outputs.
func NewLEDRouter() *LEDRouter {
	return &LEDRouter{
		strips:    make(map[DeviceID]PixelSink),
		bargraphs: make(map[DeviceID]ElementSink),
		frame:     make(map[DeviceID][]color.RGBA),
		dirty:     make(map[DeviceID]bool),
	}
}

// AttachStrip routes ring regions on device to s.
func (r *LEDRouter) AttachStrip(device DeviceID, s PixelSink) {
	r.strips[device] = s
}

// AttachBargraph routes segment regions on device to s.
func (r *LEDRouter) AttachBargraph(device DeviceID, s ElementSink) {
	r.bargraphs[device] = s
}

// Flush implements LEDDriver. Every failing sink is tried; the first
// error is returned.
func (r *LEDRouter) Flush(regions []Region) error {
	for dev := range r.frame {
		r.frame[dev] = r.frame[dev][:0]
	}
	clear(r.dirty)

	var first error
	for _, reg := range regions {
		switch reg.Kind {
		case KindRing:
			if _, ok := r.strips[reg.Device]; ok {
				r.frame[reg.Device] = append(r.frame[reg.Device], reg.Pixels...)
				r.dirty[reg.Device] = r.dirty[reg.Device] || reg.Dirty
			}
		case KindSegment:
			s, ok := r.bargraphs[reg.Device]
			if !ok || !reg.Dirty {
				continue
			}
			if err := s.Show(reg.Elements); err != nil && first == nil {
				first = err
			}
		}
	}

	for dev, buf := range r.frame {
		if !r.dirty[dev] {
			continue
		}
		if err := r.strips[dev].WriteColors(buf); err != nil && first == nil {
			first = err
		}
	}
	return first
}
