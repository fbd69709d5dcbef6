package core

import (
	"errors"
	"image/color"
	"testing"
)

// recordingDriver counts flushes and remembers the last frame.
type recordingDriver struct {
	flushes int
	dirty   []bool
	pixels  [][]color.RGBA
	err     error
}

func (r *recordingDriver) Flush(regions []Region) error {
	r.flushes++
	r.dirty = r.dirty[:0]
	r.pixels = r.pixels[:0]
	for _, reg := range regions {
		r.dirty = append(r.dirty, reg.Dirty)
		r.pixels = append(r.pixels, append([]color.RGBA(nil), reg.Pixels...))
	}
	return r.err
}

func TestDispatcherFlushesOncePerTick(t *testing.T) {
	SetTime(0)
	drv := &recordingDriver{}
	d := NewDispatcher(32, 16, drv)

	r1, _ := d.AddRing(1, 0, 8)
	s, _ := d.AddSegment(2, 1, 10)
	r2, _ := d.AddRing(3, 2, 4)
	r1.Active, r2.Active, s.Active = true, true, true
	r1.Start(80)
	r2.Start(40)
	s.SetPattern(PatternUpDown, 1)

	for i := 0; i < 200; i++ {
		if _, err := d.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		AdvanceTime(TimerFromMS(1))
	}
	if drv.flushes != 200 {
		t.Errorf("flushes = %d, want 200", drv.flushes)
	}
	if d.Ticks() != 200 {
		t.Errorf("Ticks() = %d, want 200", d.Ticks())
	}
	if len(drv.dirty) != 3 {
		t.Errorf("flushed %d regions, want 3", len(drv.dirty))
	}
}

func TestDispatcherReportsCompletions(t *testing.T) {
	SetTime(0)
	d := NewDispatcher(16, 0, nil)
	r, _ := d.AddRing(5, 0, 4)
	r.Active = true
	r.Start(40) // 10ms per LED

	revolutions := 0
	for i := 0; i <= 100; i++ {
		done, err := d.Tick()
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range done {
			if c.ID != 5 || c.Kind != KindRing {
				t.Errorf("unexpected completion %+v", c)
			}
			revolutions++
		}
		AdvanceTime(TimerFromMS(1))
	}
	// LED 0 lights at 10ms; revolutions complete at 50ms and 90ms.
	if revolutions != 2 {
		t.Errorf("revolutions = %d, want 2", revolutions)
	}
	if r.Revolutions != 2 {
		t.Errorf("ring counted %d revolutions", r.Revolutions)
	}
}

func TestDispatcherSkipsInactiveAndUnattached(t *testing.T) {
	SetTime(0)
	d := NewDispatcher(16, 0, nil)
	idle, _ := d.AddRing(1, 0, 4)
	idle.Start(40)
	detached, _ := d.AddRing(2, DeviceNone, 4)
	detached.Active = true
	detached.Start(40)

	for i := 0; i < 50; i++ {
		d.Tick()
		AdvanceTime(TimerFromMS(1))
	}
	if idle.Timer.IsRunning() || idle.Running() {
		t.Error("inactive ring was stepped")
	}
	if detached.Timer.IsRunning() || detached.Running() {
		t.Error("ring without device was stepped")
	}
}

func TestDispatcherDirtyRegions(t *testing.T) {
	SetTime(0)
	drv := &recordingDriver{}
	d := NewDispatcher(16, 0, drv)
	a, _ := d.AddRing(1, 0, 4)
	b, _ := d.AddRing(2, 0, 4)
	a.Active = true
	a.Start(40)
	b.Active = true

	d.Tick() // arms a
	if drv.dirty[0] || drv.dirty[1] {
		t.Errorf("dirty before any pixel changed: %v", drv.dirty)
	}
	AdvanceTime(TimerFromMS(10))
	d.Tick()
	if !drv.dirty[0] || drv.dirty[1] {
		t.Errorf("dirty = %v, want only the moving ring", drv.dirty)
	}
	if drv.pixels[0][0] != a.Color {
		t.Errorf("flushed pixel = %v, want lead color", drv.pixels[0][0])
	}
	d.Tick()
	if drv.dirty[0] {
		t.Error("region stayed dirty without a change")
	}
}

func TestDispatcherAllocation(t *testing.T) {
	d := NewDispatcher(10, 8, nil)

	if _, err := d.AddRing(1, 0, 0); !errors.Is(err, ErrInvalidLEDCount) {
		t.Errorf("zero LEDs: %v", err)
	}
	if _, err := d.AddRing(1, 0, 6); err != nil {
		t.Fatalf("AddRing: %v", err)
	}
	if _, err := d.AddRing(1, 0, 2); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("duplicate id: %v", err)
	}
	if _, err := d.AddRing(2, 0, 5); !errors.Is(err, ErrBufferFull) {
		t.Errorf("over capacity: %v", err)
	}
	r2, err := d.AddRing(2, 0, 4)
	if err != nil {
		t.Fatalf("AddRing filling the pool: %v", err)
	}
	if _, err := d.AddSegment(1, 0, 9); !errors.Is(err, ErrBufferFull) {
		t.Errorf("segment over capacity: %v", err)
	}
	if _, err := d.AddSegment(1, 0, 8); err != nil {
		t.Errorf("segment ids are separate from ring ids: %v", err)
	}

	r1, _ := d.Ring(1)
	r1.Pixels()[5] = color.RGBA{R: 1}
	if r2.Pixels()[0] != (color.RGBA{}) {
		t.Error("ring regions overlap")
	}
	// Appending to a region must not spill into its neighbour.
	_ = append(r1.Pixels(), color.RGBA{G: 9})
	if r2.Pixels()[0] != (color.RGBA{}) {
		t.Error("region capacity reaches into the next ring")
	}

	if reg, ok := d.Lookup(KindSegment, 1); !ok || len(reg.Elements) != 8 {
		t.Errorf("Lookup segment 1 = %+v, %v", reg, ok)
	}
	if _, ok := d.Lookup(KindRing, 9); ok {
		t.Error("Lookup found an unknown ring")
	}
}

func TestDispatcherSetActive(t *testing.T) {
	SetTime(0)
	d := NewDispatcher(8, 8, nil)
	r, _ := d.AddRing(1, 0, 4)
	s, _ := d.AddSegment(1, 0, 4)
	if err := d.SetActive(KindRing, 1, true); err != nil {
		t.Fatal(err)
	}
	r.Start(40)
	for i := 0; i < 25; i++ {
		d.Tick()
		AdvanceTime(TimerFromMS(1))
	}
	if !r.Running() {
		t.Fatal("activated ring did not run")
	}

	if err := d.SetActive(KindRing, 1, false); err != nil {
		t.Fatal(err)
	}
	if r.Running() || r.CurrentIndex != 0 {
		t.Error("deactivated ring not reset")
	}
	s.Active = true
	s.Full()
	d.SetActive(KindSegment, 1, false)
	if s.Display != DisplayOff {
		t.Errorf("deactivated display = %s, want off", s.Display)
	}
	if err := d.SetActive(KindRing, 7, true); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("unknown ring: %v", err)
	}
}

func TestDispatcherResetBlanksAndForgets(t *testing.T) {
	SetTime(0)
	drv := &recordingDriver{}
	d := NewDispatcher(8, 0, drv)
	r, _ := d.AddRing(1, 0, 4)
	r.Active = true
	r.Start(40)
	for i := 0; i < 25; i++ {
		d.Tick()
		AdvanceTime(TimerFromMS(1))
	}

	before := drv.flushes
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if drv.flushes != before+1 {
		t.Fatalf("Reset flushed %d times", drv.flushes-before)
	}
	if !drv.dirty[0] {
		t.Error("blank frame not marked dirty")
	}
	for i, px := range drv.pixels[0] {
		if px != (color.RGBA{}) {
			t.Errorf("pixel %d = %v after reset", i, px)
		}
	}
	if _, ok := d.Ring(1); ok {
		t.Error("ring survived Reset")
	}
	if _, err := d.AddRing(1, 0, 8); err != nil {
		t.Errorf("pool not freed: %v", err)
	}
}

func TestDispatcherReturnsFlushError(t *testing.T) {
	drv := &recordingDriver{err: errors.New("bus fault")}
	d := NewDispatcher(4, 0, drv)
	d.AddRing(1, 0, 4)
	if _, err := d.Tick(); err == nil {
		t.Error("flush error not returned")
	}
}

// rampEvents returns the phases of the recorded ramp completions for oid.
func rampEvents(oid uint8) []uint32 {
	var phases []uint32
	for _, e := range Events() {
		if e.Type == EvtRampDone && e.OID == oid {
			phases = append(phases, e.Value1)
		}
	}
	return phases
}

func TestDispatcherRecordsCompletedRamps(t *testing.T) {
	SetTime(0)
	ClearEvents()
	d := NewDispatcher(8, 0, nil)
	r, _ := d.AddRing(1, 0, 8)
	r.Active = true

	tickUntil := func(done func() bool) {
		t.Helper()
		for i := 0; !done(); i++ {
			if i > 10000 {
				t.Fatal("condition never reached")
			}
			d.Tick()
			AdvanceTime(TimerFromMS(1))
		}
	}

	// Stopped part way through: nothing completed.
	r.Start(800)
	r.RampUp(0)
	tickUntil(r.Running)
	r.Stop()
	d.Tick()
	if got := rampEvents(1); len(got) != 0 {
		t.Fatalf("cancelled ramp recorded %v", got)
	}

	r.Start(800)
	r.RampUp(0)
	tickUntil(func() bool { return r.Running() && r.RampPhase == RampNone })
	if got := rampEvents(1); len(got) != 1 || got[0] != uint32(RampUp) {
		t.Fatalf("after ramp-up: %v", got)
	}

	r.RampDown(0)
	tickUntil(func() bool { return !r.Running() })
	got := rampEvents(1)
	if len(got) != 2 || got[1] != uint32(RampDown) {
		t.Errorf("after ramp-down: %v", got)
	}
}
