package core

import (
	"image/color"
	"testing"
)

func newTestRing(ledCount int, revolutionMs uint16) *RingState {
	r := NewRing(1, 0, make([]color.RGBA, ledCount))
	r.Active = true
	r.Start(revolutionMs)
	return r
}

// completeInterval arms the ring's timer if needed, lets the interval
// elapse and steps once more.
func completeInterval(r *RingState) bool {
	if !r.Timer.IsRunning() {
		r.Step()
	}
	AdvanceTime(TimerFromMS(r.Delay()))
	return r.Step()
}

func TestRingVisitsEveryLEDOnce(t *testing.T) {
	for _, dir := range []Direction{Clockwise, CounterClockwise} {
		for _, n := range []int{1, 2, 3, 8, 12, 24} {
			SetTime(0)
			r := newTestRing(n, uint16(n*10))
			r.SetDirection(dir)

			completeInterval(r) // lights LED 0
			seen := map[uint8]bool{0: true}
			want := uint8(0)
			for i := 1; ; i++ {
				if i > 2*n+2 {
					t.Fatalf("%s n=%d: no revolution", dir, n)
				}
				done := completeInterval(r)
				if n > 1 {
					if dir == Clockwise {
						want = uint8((int(want) + 1) % n)
					} else {
						want = uint8((int(want) - 1 + n) % n)
					}
				}
				if r.CurrentIndex != want {
					t.Fatalf("%s n=%d: index %d, want %d", dir, n, r.CurrentIndex, want)
				}
				if done {
					break
				}
				if seen[r.CurrentIndex] {
					t.Fatalf("%s n=%d: index %d repeated before wrap", dir, n, r.CurrentIndex)
				}
				seen[r.CurrentIndex] = true
			}
			if len(seen) != n {
				t.Errorf("%s n=%d: visited %d LEDs", dir, n, len(seen))
			}
		}
	}
}

func TestRingEightLEDScenario(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)

	if r.Step() {
		t.Fatal("first call returned true")
	}
	if r.StepCount != 8 {
		t.Errorf("StepCount = %d, want 8", r.StepCount)
	}
	if r.Delay() != 100 {
		t.Errorf("delay = %d, want 100", r.Delay())
	}

	// The first completed interval only lights LED 0; the revolution is
	// counted from there, so true arrives on the ninth completion overall.
	if completeInterval(r) {
		t.Fatal("lighting LED 0 returned true")
	}
	if r.pixels[0] != r.Color {
		t.Errorf("LED 0 = %v, want lead color", r.pixels[0])
	}

	for i := 1; i <= 8; i++ {
		done := completeInterval(r)
		if i < 8 && done {
			t.Fatalf("interval %d returned true", i)
		}
		if i == 8 && !done {
			t.Fatal("eighth interval did not complete the revolution")
		}
		if r.Delay() != 100 {
			t.Errorf("interval %d: delay %d, want 100", i, r.Delay())
		}
	}
	if r.CurrentIndex != 0 || r.PreviousIndex != 7 {
		t.Errorf("indices after revolution: current %d previous %d", r.CurrentIndex, r.PreviousIndex)
	}
	if r.Revolutions != 1 {
		t.Errorf("Revolutions = %d, want 1", r.Revolutions)
	}
}

func TestRingCounterClockwiseSequence(t *testing.T) {
	SetTime(0)
	r := newTestRing(4, 400)
	r.SetDirection(CounterClockwise)

	want := []uint8{0, 3, 2, 1, 0}
	for i, idx := range want {
		done := completeInterval(r)
		if r.CurrentIndex != idx {
			t.Fatalf("completion %d: index %d, want %d", i, r.CurrentIndex, idx)
		}
		if done != (i == len(want)-1) {
			t.Errorf("completion %d: returned %v", i, done)
		}
	}
}

func TestRingDoesNotStepBeforeTimer(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	completeInterval(r)
	completeInterval(r)

	idx := r.CurrentIndex
	AdvanceTime(TimerFromMS(99))
	for i := 0; i < 5; i++ {
		if r.Step() {
			t.Fatal("returned true before the interval elapsed")
		}
	}
	if r.CurrentIndex != idx {
		t.Errorf("index moved from %d to %d before the interval elapsed", idx, r.CurrentIndex)
	}
}

func TestRingZeroRevolutionResets(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	r.RampUp(500)
	for i := 0; i < 3; i++ {
		completeInterval(r)
	}

	r.Stop()
	if r.Step() {
		t.Fatal("stopped ring returned true")
	}
	if r.CurrentIndex != 0 || r.PreviousIndex != 0 || r.NextIndex != 0 {
		t.Errorf("indices not reset: %d %d %d", r.CurrentIndex, r.PreviousIndex, r.NextIndex)
	}
	if r.RampPhase != RampNone || r.RampStep != 0 {
		t.Errorf("ramp not reset: %s step %d", r.RampPhase, r.RampStep)
	}
	if r.Timer.IsRunning() {
		t.Error("timer still running")
	}
	for i, px := range r.pixels {
		if px != (color.RGBA{}) {
			t.Errorf("pixel %d still lit: %v", i, px)
		}
	}
}

func TestRingZeroLEDCountIsInactive(t *testing.T) {
	SetTime(0)
	r := NewRing(1, 0, nil)
	r.Start(800)
	if r.Step() {
		t.Error("empty ring returned true")
	}
	if r.Timer.IsRunning() {
		t.Error("empty ring started its timer")
	}
}

func TestRingRampUpDelaysNonIncreasing(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	r.RampUp(2000)

	r.Step()
	last := r.Delay()
	if last != 1000 {
		t.Errorf("first ramp-up delay = %d, want 1000", last)
	}
	for i := 0; r.RampPhase == RampUp; i++ {
		if i > 20 {
			t.Fatal("ramp-up never finished")
		}
		completeInterval(r)
		if r.Delay() > last {
			t.Fatalf("delay rose from %d to %d during ramp-up", last, r.Delay())
		}
		last = r.Delay()
	}
	if last != 100 {
		t.Errorf("delay after ramp-up = %d, want base 100", last)
	}
	if !r.Running() {
		t.Error("ring stopped after ramp-up")
	}
}

func TestRingRampUpWhileRunningStartsSlow(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	completeInterval(r)
	completeInterval(r)
	if r.Delay() != 100 {
		t.Fatalf("delay before ramp = %d, want 100", r.Delay())
	}

	r.RampUp(2000)
	if r.Timer.IsRunning() {
		t.Fatal("ramp-up kept the base interval running")
	}
	r.Step()
	if r.Delay() != 1000 {
		t.Errorf("first eased interval = %d, want 1000", r.Delay())
	}
	completeInterval(r)
	if r.Delay() != 750 {
		t.Errorf("second eased interval = %d, want 750", r.Delay())
	}
	if !r.Running() {
		t.Error("ring stopped by ramp-up")
	}
}

func TestRingRampDownStopsRing(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	completeInterval(r)
	completeInterval(r)

	r.RampDown(2000)
	last := r.Delay()
	for i := 0; ; i++ {
		if i > 20 {
			t.Fatal("ramp-down never finished")
		}
		wasRamping := r.RampPhase == RampDown
		done := completeInterval(r)
		if !r.Running() {
			if !wasRamping {
				t.Fatal("ring reset outside ramp-down")
			}
			if done {
				t.Error("terminating ramp-down step returned true")
			}
			break
		}
		if r.Delay() < last {
			t.Fatalf("delay fell from %d to %d during ramp-down", last, r.Delay())
		}
		last = r.Delay()
	}
	if r.RampPhase != RampNone || r.CurrentIndex != 0 || r.Timer.IsRunning() {
		t.Error("ring not idle after ramp-down")
	}
	if r.RampStep != 0 {
		t.Errorf("RampStep = %d after reset", r.RampStep)
	}
}

func TestRingTailAndClear(t *testing.T) {
	SetTime(0)
	r := newTestRing(6, 600)
	r.SetColor(color.RGBA{R: 200, G: 100, B: 50, A: 255}, 0)

	completeInterval(r) // LED 0
	completeInterval(r) // LED 1, tail on 0
	completeInterval(r) // LED 2, tail on 1, 0 cleared

	lead := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	tail := color.RGBA{R: 100, G: 50, B: 25, A: 255}
	if r.pixels[2] != lead {
		t.Errorf("lead = %v, want %v", r.pixels[2], lead)
	}
	if r.pixels[1] != tail {
		t.Errorf("tail = %v, want %v", r.pixels[1], tail)
	}
	if r.pixels[0] != (color.RGBA{}) {
		t.Errorf("LED 0 = %v, want off", r.pixels[0])
	}
}

func TestRingBrightness(t *testing.T) {
	c := color.RGBA{R: 255, G: 128, B: 0, A: 255}
	tests := []struct {
		brightness uint8
		want       color.RGBA
	}{
		{0, c},
		{255, c},
		{127, color.RGBA{R: 127, G: 64, B: 0, A: 255}},
		{63, color.RGBA{R: 63, G: 32, B: 0, A: 255}},
	}
	for _, tt := range tests {
		if got := scaleColor(c, tt.brightness); got != tt.want {
			t.Errorf("scaleColor(%d) = %v, want %v", tt.brightness, got, tt.want)
		}
	}
}

func TestRingDirectionChangeTakesEffectNextPixel(t *testing.T) {
	SetTime(0)
	r := newTestRing(8, 800)
	completeInterval(r) // 0
	completeInterval(r) // 1
	completeInterval(r) // 2

	r.SetDirection(CounterClockwise)
	if r.NextIndex != 1 {
		t.Errorf("NextIndex = %d, want 1", r.NextIndex)
	}
	completeInterval(r)
	if r.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", r.CurrentIndex)
	}
}

func TestRingSingleLEDCountsRevolutions(t *testing.T) {
	SetTime(0)
	r := newTestRing(1, 50)
	if completeInterval(r) {
		t.Error("lighting the only LED returned true")
	}
	for i := 0; i < 3; i++ {
		if !completeInterval(r) {
			t.Errorf("interval %d: no revolution", i)
		}
	}
	if r.Revolutions != 3 {
		t.Errorf("Revolutions = %d, want 3", r.Revolutions)
	}
}

func TestRingConfigure(t *testing.T) {
	r := NewRing(1, 0, make([]color.RGBA, 8))
	if err := r.Configure(9, 0); err != ErrInvalidLEDCount {
		t.Errorf("Configure past buffer = %v, want ErrInvalidLEDCount", err)
	}
	if err := r.Configure(0, 0); err != ErrInvalidLEDCount {
		t.Errorf("Configure(0) = %v, want ErrInvalidLEDCount", err)
	}
	if err := r.Configure(6, 3); err != nil {
		t.Fatalf("Configure(6, 3): %v", err)
	}

	SetTime(0)
	r.Start(300)
	r.Step()
	if r.Delay() != 100 {
		t.Errorf("delay with 3 steps over 300ms = %d, want 100", r.Delay())
	}
}
