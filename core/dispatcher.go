package core

import "image/color"

// Completion reports one boundary reached during a tick: a ring revolution
// or a segment pattern boundary.
type Completion struct {
	ID   uint8
	Kind Kind
}

type animator struct {
	ring *RingState
	seg  *SegmentState
}

// Dispatcher owns the LED buffers and the ordered list of animators. Tick
// steps every active animator once, in registration order, then flushes the
// whole frame once.
type Dispatcher struct {
	pixels   []color.RGBA
	elements []bool
	usedPx   int
	usedEl   int

	order    []animator
	regions  []Region
	rings    map[uint8]*RingState
	segments map[uint8]*SegmentState

	driver LEDDriver
	done   []Completion
	ticks  uint32
}

// NewDispatcher allocates buffers for up to maxPixels ring pixels and
// maxElements segment elements. driver may be nil, in which case frames
// are computed but not flushed.
func NewDispatcher(maxPixels, maxElements int, driver LEDDriver) *Dispatcher {
	return &Dispatcher{
		pixels:   make([]color.RGBA, maxPixels),
		elements: make([]bool, maxElements),
		rings:    make(map[uint8]*RingState),
		segments: make(map[uint8]*SegmentState),
		driver:   driver,
	}
}

// SetDriver replaces the flush target.
func (d *Dispatcher) SetDriver(driver LEDDriver) {
	d.driver = driver
}

// AddRing carves ledCount pixels out of the buffer for a new ring. The ring
// starts inactive.
func (d *Dispatcher) AddRing(id uint8, device DeviceID, ledCount int) (*RingState, error) {
	if ledCount <= 0 || ledCount > 255 {
		return nil, ErrInvalidLEDCount
	}
	if _, ok := d.rings[id]; ok {
		return nil, ErrDuplicateObject
	}
	if d.usedPx+ledCount > len(d.pixels) {
		return nil, ErrBufferFull
	}
	px := d.pixels[d.usedPx : d.usedPx+ledCount : d.usedPx+ledCount]
	d.usedPx += ledCount

	r := NewRing(id, device, px)
	d.rings[id] = r
	d.order = append(d.order, animator{ring: r})
	d.regions = append(d.regions, Region{ID: id, Kind: KindRing, Device: device, Pixels: px})
	return r, nil
}

// AddSegment carves count elements out of the buffer for a new display.
func (d *Dispatcher) AddSegment(id uint8, device DeviceID, count int) (*SegmentState, error) {
	if count <= 0 || count > 255 {
		return nil, ErrInvalidLEDCount
	}
	if _, ok := d.segments[id]; ok {
		return nil, ErrDuplicateObject
	}
	if d.usedEl+count > len(d.elements) {
		return nil, ErrBufferFull
	}
	el := d.elements[d.usedEl : d.usedEl+count : d.usedEl+count]
	d.usedEl += count

	s := NewSegment(id, device, el)
	d.segments[id] = s
	d.order = append(d.order, animator{seg: s})
	d.regions = append(d.regions, Region{ID: id, Kind: KindSegment, Device: device, Elements: el})
	return s, nil
}

// Ring looks up a ring by id.
func (d *Dispatcher) Ring(id uint8) (*RingState, bool) {
	r, ok := d.rings[id]
	return r, ok
}

// Segment looks up a segment display by id.
func (d *Dispatcher) Segment(id uint8) (*SegmentState, bool) {
	s, ok := d.segments[id]
	return s, ok
}

// Lookup returns the buffer region of an animator.
func (d *Dispatcher) Lookup(kind Kind, id uint8) (Region, bool) {
	for _, r := range d.regions {
		if r.Kind == kind && r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// Regions returns the buffer regions in registration order.
func (d *Dispatcher) Regions() []Region {
	return d.regions
}

// Ticks returns how many times Tick has run.
func (d *Dispatcher) Ticks() uint32 {
	return d.ticks
}

// SetActive turns an animator on or off. Deactivating returns it to idle.
func (d *Dispatcher) SetActive(kind Kind, id uint8, active bool) error {
	switch kind {
	case KindRing:
		r, ok := d.rings[id]
		if !ok {
			return ErrUnknownObject
		}
		r.Active = active
		if !active {
			r.Reset()
		}
	case KindSegment:
		s, ok := d.segments[id]
		if !ok {
			return ErrUnknownObject
		}
		s.Active = active
		if !active {
			s.Off()
		}
	default:
		return ErrInvalidArgument
	}
	return nil
}

// Tick runs one pass: every active animator with an output device is
// stepped once, then the frame is flushed once. The returned completions
// are valid until the next call.
func (d *Dispatcher) Tick() ([]Completion, error) {
	d.ticks++
	d.done = d.done[:0]
	for i, a := range d.order {
		switch {
		case a.ring != nil:
			r := a.ring
			if r.Active && r.Device != DeviceNone && r.Step() {
				d.done = append(d.done, Completion{ID: r.ID, Kind: KindRing})
			}
			if phase := r.takeRampDone(); phase != RampNone {
				RecordEvent(EvtRampDone, r.ID, uint32(phase), 0)
			}
			d.regions[i].Dirty = r.takeDirty()
		case a.seg != nil:
			s := a.seg
			if s.Active && s.Device != DeviceNone && s.Step() {
				d.done = append(d.done, Completion{ID: s.ID, Kind: KindSegment})
			}
			d.regions[i].Dirty = s.takeDirty()
		}
	}
	if d.driver == nil {
		return d.done, nil
	}
	return d.done, d.driver.Flush(d.regions)
}

// StopAll returns every animator to idle and deactivates it.
func (d *Dispatcher) StopAll() {
	for _, a := range d.order {
		if a.ring != nil {
			a.ring.Active = false
			a.ring.Stop()
			a.ring.Reset()
		} else {
			a.seg.Active = false
			a.seg.Off()
		}
	}
}

// Flush pushes the current frame with every region marked dirty, outside
// the normal tick.
func (d *Dispatcher) Flush() error {
	if d.driver == nil || len(d.regions) == 0 {
		return nil
	}
	for i := range d.regions {
		d.regions[i].Dirty = true
	}
	return d.driver.Flush(d.regions)
}

// Reset stops every animator, pushes one blank frame so the hardware goes
// dark, then forgets all animators and frees the buffers.
func (d *Dispatcher) Reset() error {
	d.StopAll()
	err := d.Flush()
	clear(d.pixels)
	clear(d.elements)
	d.usedPx, d.usedEl = 0, 0
	d.order = d.order[:0]
	d.regions = d.regions[:0]
	clear(d.rings)
	clear(d.segments)
	return err
}
