package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event is one entry of the animation event ring, kept for post-mortem
// queries with debug_events.
type Event struct {
	Type   uint8  // Event type code
	OID    uint8  // Ring or segment id, or command id for command errors
	Clock  uint32 // System clock at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtRingStart       = 1 // ring_start or ring_ramp received
	EvtRingStop        = 2 // ring_stop received
	EvtRevolution      = 3 // Ring completed a revolution (v1 = count)
	EvtRampDone        = 4 // Ring completed a ramp (v1 = phase that completed)
	EvtSegmentPattern  = 5 // Segment pattern started (v1 = pattern)
	EvtSegmentBoundary = 6 // Segment reached full/empty/mid (v1 = display state)
	EvtCommandError    = 7 // Command handler failed (v1 = error code)
	EvtFlushError      = 8 // LED driver flush failed
	EvtQueuedSpeed     = 9 // queue_ring_speed applied (v1 = revolution ms)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing  [EventRingSize]Event
	eventHead  uint8 // Next write position
	eventCount uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent appends an event to the ring, overwriting the oldest entry
// when full. It never allocates.
func RecordEvent(eventType, oid uint8, value1, value2 uint32) {
	eventRing[eventHead] = Event{
		Type:   eventType,
		OID:    oid,
		Clock:  GetTime(),
		Value1: value1,
		Value2: value2,
	}
	eventHead = (eventHead + 1) % EventRingSize
	if eventCount < EventRingSize {
		eventCount++
	}
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	out := make([]Event, 0, eventCount)
	start := (eventHead + EventRingSize - eventCount) % EventRingSize
	for i := uint8(0); i < eventCount; i++ {
		out = append(out, eventRing[(start+i)%EventRingSize])
	}
	return out
}

// ClearEvents empties the event ring.
func ClearEvents() {
	eventRing = [EventRingSize]Event{}
	eventHead = 0
	eventCount = 0
}

// EventName returns a short label for an event type.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtRingStart:
		return "RING_START"
	case EvtRingStop:
		return "RING_STOP"
	case EvtRevolution:
		return "REVOLUTION"
	case EvtRampDone:
		return "RAMP_DONE"
	case EvtSegmentPattern:
		return "SEG_PATTERN"
	case EvtSegmentBoundary:
		return "SEG_BOUNDARY"
	case EvtCommandError:
		return "CMD_ERROR"
	case EvtFlushError:
		return "FLUSH_ERROR!"
	case EvtQueuedSpeed:
		return "QUEUED_SPEED"
	}
	return "UNKNOWN"
}

// DumpEvents writes the event ring through the debug writer.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.Type) +
			" oid=" + utoa(uint32(evt.OID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}
