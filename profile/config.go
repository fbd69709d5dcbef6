package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"cyclotron/core"
)

var (
	ErrInvalidColor   = errors.New("invalid color")
	ErrDuplicateOID   = errors.New("duplicate oid")
	ErrNoLEDs         = errors.New("no LEDs")
	ErrPoolTooSmall   = errors.New("pool smaller than configured devices")
	ErrUnknownPattern = errors.New("unknown pattern")
)

const (
	DefaultColor        = "#ff0000"
	DefaultRevolutionMs = 1000
)

// Load parses a JSON profile, applies defaults and validates it.
func Load(r io.Reader) (*Profile, error) {
	var p Profile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadBytes is Load over an in-memory document, such as an embedded file.
func LoadBytes(data []byte) (*Profile, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile reads and parses the profile at path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(p *Profile) {
	if p.Name == "" {
		p.Name = "cyclotron"
	}

	pixels, elements := 0, 0
	for i := range p.Rings {
		r := &p.Rings[i]
		if r.Color == "" {
			r.Color = DefaultColor
		}
		if r.RevolutionMs == 0 {
			r.RevolutionMs = DefaultRevolutionMs
		}
		if r.Clockwise == nil {
			cw := true
			r.Clockwise = &cw
		}
		pixels += int(r.LEDCount)
	}
	for i := range p.Segments {
		s := &p.Segments[i]
		if s.Levels == 0 {
			s.Levels = core.DefaultPowerLevels
		}
		if s.Multiplier == 0 {
			s.Multiplier = 1
		}
		if s.Pattern == "" {
			s.Pattern = core.PatternNone.String()
		}
		elements += int(s.Elements)
	}

	// Pools default to exactly what the profile uses.
	if p.MaxPixels == 0 {
		p.MaxPixels = pixels
	}
	if p.MaxElements == 0 {
		p.MaxElements = elements
	}
}

// Validate checks the profile for conflicts the dispatcher would reject.
func (p *Profile) Validate() error {
	seen := make(map[uint8]bool)
	pixels := 0
	for _, r := range p.Rings {
		if seen[r.OID] {
			return fmt.Errorf("profile: ring %d: %w", r.OID, ErrDuplicateOID)
		}
		seen[r.OID] = true
		if r.LEDCount == 0 {
			return fmt.Errorf("profile: ring %d: %w", r.OID, ErrNoLEDs)
		}
		if _, err := ParseColor(r.Color); err != nil {
			return fmt.Errorf("profile: ring %d: %w", r.OID, err)
		}
		pixels += int(r.LEDCount)
	}
	if pixels > p.MaxPixels {
		return fmt.Errorf("profile: %d ring pixels, max_pixels %d: %w", pixels, p.MaxPixels, ErrPoolTooSmall)
	}

	clear(seen)
	elements := 0
	for _, s := range p.Segments {
		if seen[s.OID] {
			return fmt.Errorf("profile: segment %d: %w", s.OID, ErrDuplicateOID)
		}
		seen[s.OID] = true
		if s.Elements == 0 {
			return fmt.Errorf("profile: segment %d: %w", s.OID, ErrNoLEDs)
		}
		if _, ok := core.ParsePattern(s.Pattern); !ok {
			return fmt.Errorf("profile: segment %d: %q: %w", s.OID, s.Pattern, ErrUnknownPattern)
		}
		elements += int(s.Elements)
	}
	if elements > p.MaxElements {
		return fmt.Errorf("profile: %d segment elements, max_elements %d: %w", elements, p.MaxElements, ErrPoolTooSmall)
	}
	return nil
}

// ParseColor parses a "#rrggbb" color (the leading # is optional).
func ParseColor(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// Default returns the profile of the reference board: a 24 LED ring on
// device 0 and a 28 element bargraph on device 1.
func Default() *Profile {
	cw := true
	p := &Profile{
		Name: "cyclotron",
		Rings: []RingConfig{
			{
				OID:          0,
				Device:       0,
				LEDCount:     24,
				RevolutionMs: 1200,
				Clockwise:    &cw,
				Color:        "#ff3000",
				Brightness:   128,
				Autostart:    true,
			},
		},
		Segments: []SegmentConfig{
			{
				OID:        0,
				Device:     1,
				Elements:   28,
				Levels:     core.DefaultPowerLevels,
				Pattern:    core.PatternPowerCheck.String(),
				Multiplier: 1,
			},
		},
	}
	applyDefaults(p)
	return p
}
