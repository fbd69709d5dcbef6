package core

// Pattern is the animation a segment display runs.
type Pattern uint8

const (
	PatternNone Pattern = iota
	PatternRampUp
	PatternRampDown
	PatternPowerCheck
	PatternOuterInner
	PatternInnerPulse
	PatternUpDown
	patternCount
)

var patternNames = [patternCount]string{
	"none", "ramp-up", "ramp-down", "power-check", "outer-inner", "inner-pulse", "up-down",
}

func (p Pattern) String() string {
	if p < patternCount {
		return patternNames[p]
	}
	return "invalid"
}

// ParsePattern maps a pattern name back to its value.
func ParsePattern(name string) (Pattern, bool) {
	for i, n := range patternNames {
		if n == name {
			return Pattern(i), true
		}
	}
	return PatternNone, false
}

// DisplayState is the last known saturation of a segment display.
type DisplayState uint8

const (
	DisplayOff DisplayState = iota
	DisplayUnknown
	DisplayEmpty
	DisplayMid
	DisplayFull
	DisplayBars
)

func (d DisplayState) String() string {
	switch d {
	case DisplayOff:
		return "off"
	case DisplayUnknown:
		return "unknown"
	case DisplayEmpty:
		return "empty"
	case DisplayMid:
		return "mid"
	case DisplayFull:
		return "full"
	case DisplayBars:
		return "bars"
	}
	return "invalid"
}

const (
	SegmentUpdateDelayMs = 8
	SegmentMinDelayMs    = 2
	DefaultPowerLevels   = 5
)

// SegmentState is one linear segment display (bargraph). Elements are
// addressed from the bottom; Inverted mirrors them for displays mounted
// upside down.
type SegmentState struct {
	ID     uint8
	Device DeviceID
	Active bool

	ElementCount   uint8
	CurrentElement int
	Pattern        Pattern
	Display        DisplayState
	Inverted       bool
	Multiplier     uint8 // delay divisor, 0 behaves as 1
	Level          uint8 // power level, 0-based
	Levels         uint8 // 0 means DefaultPowerLevels

	Timer Countdown

	elements []bool
	delay    uint32
	frames   uint32
	rising   bool
	holding  bool
	fill     bool // elements [0, CurrentElement) are lit and nothing else
	dirty    bool
}

// NewSegment returns a segment display in the off state.
func NewSegment(id uint8, device DeviceID, elements []bool) *SegmentState {
	return &SegmentState{
		ID:           id,
		Device:       device,
		ElementCount: uint8(min(len(elements), 255)),
		elements:     elements,
		fill:         true,
	}
}

// Elements returns the display's slice of the shared element buffer.
func (s *SegmentState) Elements() []bool {
	return s.elements
}

func (s *SegmentState) size() int {
	return min(int(s.ElementCount), len(s.elements))
}

// Delay returns the delay in ms of the interval currently being timed.
func (s *SegmentState) Delay() uint32 {
	return s.delay
}

// Step advances the pattern if its interval has elapsed. It returns true on
// the call where the pattern reaches a boundary: full, empty, midpoint, or a
// power level target.
func (s *SegmentState) Step() bool {
	n := s.size()
	if n == 0 {
		s.Reset()
		return false
	}
	if s.Pattern == PatternNone {
		return false
	}
	if !s.Timer.IsRunning() {
		s.Timer.Start(s.delay)
	}
	if !s.Timer.JustFinished() {
		return false
	}

	var boundary bool
	switch s.Pattern {
	case PatternRampUp:
		boundary = s.stepRampUp(n)
	case PatternRampDown:
		boundary = s.stepRampDown()
	case PatternPowerCheck:
		boundary = s.stepPowerCheck(n)
	case PatternUpDown:
		boundary = s.stepUpDown(n)
	case PatternOuterInner, PatternInnerPulse:
		boundary = s.stepBilateral(n)
	}
	s.frames++
	if s.Pattern != PatternNone {
		s.Timer.Start(s.delay)
	}
	return boundary
}

func (s *SegmentState) stepRampUp(n int) bool {
	s.set(s.CurrentElement, true)
	s.CurrentElement++
	if s.CurrentElement >= n {
		s.Display = DisplayFull
		s.Pattern = PatternNone
		return true
	}
	s.Display = DisplayUnknown
	// ease out as the bar fills
	s.delay = s.baseDelay() + uint32(s.CurrentElement/2)
	return false
}

func (s *SegmentState) stepRampDown() bool {
	if s.CurrentElement > 0 {
		s.CurrentElement--
		s.set(s.CurrentElement, false)
	}
	if s.CurrentElement == 0 {
		s.Display = DisplayEmpty
		s.Pattern = PatternNone
		return true
	}
	s.Display = DisplayUnknown
	s.delay = s.baseDelay() * 4
	return false
}

func (s *SegmentState) stepPowerCheck(n int) bool {
	target := s.PowerTarget()
	rising := s.CurrentElement < target
	switch {
	case s.CurrentElement < target:
		s.set(s.CurrentElement, true)
		s.CurrentElement++
	case s.CurrentElement > target:
		s.CurrentElement--
		s.set(s.CurrentElement, false)
	}
	s.updateFillDisplay(n)

	base := s.baseDelay() + uint32(n-target)
	if s.CurrentElement == target {
		s.delay = base * 3
		if s.holding {
			return false
		}
		s.holding = true
		return true
	}
	s.holding = false
	if rising {
		s.delay = base + uint32(s.CurrentElement/2)
	} else {
		s.delay = base
	}
	return false
}

func (s *SegmentState) stepUpDown(n int) bool {
	if s.rising {
		s.set(s.CurrentElement, true)
		s.CurrentElement++
		if s.CurrentElement >= n {
			s.Display = DisplayFull
			s.rising = false
			s.delay = s.baseDelay() * 3
			return true
		}
		s.Display = DisplayUnknown
		s.delay = s.baseDelay() + uint32(s.CurrentElement/2)
		return false
	}
	if s.CurrentElement > 0 {
		s.CurrentElement--
		s.set(s.CurrentElement, false)
	}
	if s.CurrentElement == 0 {
		s.Display = DisplayEmpty
		s.rising = true
		s.delay = s.baseDelay() * 3
		return true
	}
	s.Display = DisplayUnknown
	s.delay = s.baseDelay()
	return false
}

// stepBilateral moves a mirrored pair between the ends and the middle.
// Outer-inner lights only the pair; inner-pulse lights everything between
// the pair. CurrentElement is the distance of the pair from the ends.
func (s *SegmentState) stepBilateral(n int) bool {
	mid := (n+1)/2 - 1
	step := s.CurrentElement

	s.clearElements()
	if s.Pattern == PatternInnerPulse {
		for i := step; i <= n-1-step; i++ {
			s.set(i, true)
		}
	} else {
		s.set(step, true)
		s.set(n-1-step, true)
	}

	atEnd := step == 0 || step == mid
	switch {
	case step == mid:
		s.Display = DisplayMid
	case step == 0 && s.Pattern == PatternInnerPulse:
		s.Display = DisplayFull
	case step == 0:
		s.Display = DisplayEmpty
	default:
		s.Display = DisplayUnknown
	}

	if step == mid {
		s.rising = false
	} else if step == 0 {
		s.rising = true
	}
	if mid > 0 {
		if s.rising {
			s.CurrentElement++
		} else {
			s.CurrentElement--
		}
	}
	s.delay = s.baseDelay() + uint32(s.CurrentElement)
	// the starting frame is not a boundary crossing
	return atEnd && s.frames > 0
}

func (s *SegmentState) updateFillDisplay(n int) {
	switch s.CurrentElement {
	case 0:
		s.Display = DisplayEmpty
	case n:
		s.Display = DisplayFull
	default:
		s.Display = DisplayUnknown
	}
}

// baseDelay is the update interval before pattern-specific adjustments.
func (s *SegmentState) baseDelay() uint32 {
	div := uint32(max(s.Multiplier, 1))
	return max(SegmentMinDelayMs, SegmentUpdateDelayMs/div)
}

// PowerTarget returns the number of elements lit at the current level.
// Uneven division leaves the remainder as the floor of level 0.
func (s *SegmentState) PowerTarget() int {
	n := s.size()
	levels := int(s.Levels)
	if levels == 0 {
		levels = DefaultPowerLevels
	}
	level := clamp(int(s.Level), 0, levels-1)
	return min(n, n%levels+n/levels*(level+1))
}

func (s *SegmentState) set(i int, on bool) {
	n := s.size()
	if i < 0 || i >= n {
		return
	}
	if s.Inverted {
		i = n - 1 - i
	}
	if s.elements[i] != on {
		s.elements[i] = on
		s.dirty = true
	}
}

func (s *SegmentState) clearElements() {
	for i := range s.elements {
		if s.elements[i] {
			s.elements[i] = false
			s.dirty = true
		}
	}
}

// SetPattern starts pattern p. multiplier divides the base update delay.
// Fill patterns continue from the current fill level when the display is
// showing one; other displays are cleared first.
func (s *SegmentState) SetPattern(p Pattern, multiplier uint8) {
	n := s.size()
	s.Multiplier = multiplier
	s.Timer.Stop()
	s.holding = false
	s.frames = 0
	s.Pattern = p

	switch p {
	case PatternRampUp:
		s.Clear()
	case PatternRampDown:
		s.Full()
	case PatternPowerCheck, PatternUpDown:
		if !s.fill {
			s.Clear()
		}
		s.rising = s.CurrentElement < n
	case PatternOuterInner:
		s.clearElements()
		s.fill = false
		s.CurrentElement = 0
		s.rising = true
	case PatternInnerPulse:
		s.clearElements()
		s.fill = false
		s.CurrentElement = max((n+1)/2-1, 0)
		s.rising = false
	}
	if s.Display == DisplayOff {
		s.Display = DisplayUnknown
	}
	s.delay = s.baseDelay()
}

// SetLevel changes the power level used by the power-check pattern.
func (s *SegmentState) SetLevel(level uint8) {
	if level != s.Level {
		s.Level = level
		s.holding = false
	}
}

// Clear turns every element off.
func (s *SegmentState) Clear() {
	s.clearElements()
	s.CurrentElement = 0
	s.fill = true
	s.Display = DisplayEmpty
}

// Full turns every element on.
func (s *SegmentState) Full() {
	n := s.size()
	for i := 0; i < n; i++ {
		s.set(i, true)
	}
	s.CurrentElement = n
	s.fill = true
	s.Display = DisplayFull
}

// Off clears the display and marks it unused.
func (s *SegmentState) Off() {
	s.Reset()
	s.Display = DisplayOff
}

// Reset returns the display to idle: no pattern, timer stopped, every
// element off.
func (s *SegmentState) Reset() {
	s.Pattern = PatternNone
	s.Timer.Stop()
	s.holding = false
	s.rising = false
	s.frames = 0
	s.delay = 0
	s.Clear()
}

// ShowBars stops any pattern and shows count evenly spaced groups, one per
// power level.
func (s *SegmentState) ShowBars(count uint8) {
	n := s.size()
	s.Off()
	s.fill = false
	levels := int(s.Levels)
	if levels == 0 {
		levels = DefaultPowerLevels
	}
	stride := max(ceilDiv(n, levels), 1)
	width := max(stride/2, 1)
	groups := clamp(int(count), 0, levels)
	for g := 0; g < groups; g++ {
		for i := g * stride; i < g*stride+width; i++ {
			s.set(i, true)
		}
	}
	s.Display = DisplayBars
}

func (s *SegmentState) takeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}
