// Package profile describes the rings and segment displays attached to a
// board and applies that description to a core.Dispatcher.
package profile

// RingConfig represents configuration for one LED ring
type RingConfig struct {
	OID          uint8  `json:"oid"`
	Device       uint8  `json:"device"`        // Output the ring is wired to
	LEDCount     uint8  `json:"led_count"`     // Physical LEDs
	StepCount    uint8  `json:"step_count"`    // Logical steps per revolution, 0 = led_count
	RevolutionMs uint16 `json:"revolution_ms"` // Time for one revolution
	Clockwise    *bool  `json:"clockwise"`     // Default true
	Color        string `json:"color"`         // "#rrggbb"
	Brightness   uint8  `json:"brightness"`    // 0 = full
	Autostart    bool   `json:"autostart"`     // Spin at boot
}

// SegmentConfig represents configuration for one bargraph
type SegmentConfig struct {
	OID        uint8  `json:"oid"`
	Device     uint8  `json:"device"`
	Elements   uint8  `json:"elements"`   // Lit elements on the display
	Levels     uint8  `json:"levels"`     // Power levels for power-check and bars
	Level      uint8  `json:"level"`      // Initial power level, 0-based
	Inverted   bool   `json:"inverted"`   // Display mounted upside down
	Pattern    string `json:"pattern"`    // Pattern started at boot
	Multiplier uint8  `json:"multiplier"` // Divides the update delay
}

// Profile represents the complete board configuration
type Profile struct {
	Name        string          `json:"name"`
	MaxPixels   int             `json:"max_pixels"`   // Ring pixel pool
	MaxElements int             `json:"max_elements"` // Segment element pool
	Rings       []RingConfig    `json:"rings"`
	Segments    []SegmentConfig `json:"segments"`
}
