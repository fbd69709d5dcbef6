package link

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Dictionary represents the parsed identify data of a board.
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`

	commands  map[string]*Message
	responses map[uint16]*Message
}

// ParseDictionary inflates and parses the identify data. Plain JSON is
// accepted as well.
func ParseDictionary(raw []byte) (*Dictionary, error) {
	data := raw
	if len(raw) >= 2 && raw[0] == 0x78 {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("dictionary: inflate: %w", err)
		}
	}

	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}

	d.commands = make(map[string]*Message, len(d.Commands))
	for sig, id := range d.Commands {
		m, err := parseSignature(sig, uint16(id))
		if err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		d.commands[m.Name] = m
	}
	d.responses = make(map[uint16]*Message, len(d.Responses))
	for sig, id := range d.Responses {
		m, err := parseSignature(sig, uint16(id))
		if err != nil {
			return nil, fmt.Errorf("dictionary: %w", err)
		}
		d.responses[m.ID] = m
	}
	return d, nil
}

// Command looks up a host-to-device message by name.
func (d *Dictionary) Command(name string) (*Message, bool) {
	m, ok := d.commands[name]
	return m, ok
}

// Response looks up a device-to-host message by ID.
func (d *Dictionary) Response(id uint16) (*Message, bool) {
	m, ok := d.responses[id]
	return m, ok
}

// ResponseByName looks up a device-to-host message by name.
func (d *Dictionary) ResponseByName(name string) (*Message, bool) {
	for _, m := range d.responses {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// CommandNames returns every command name, sorted.
func (d *Dictionary) CommandNames() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enum resolves a symbolic argument value, e.g. pattern=power-check.
func (d *Dictionary) Enum(param, value string) (int, bool) {
	values, ok := d.Enumerations[param]
	if !ok {
		return 0, false
	}
	n, ok := values[value]
	return n, ok
}

// EnumName is the inverse of Enum.
func (d *Dictionary) EnumName(param string, n int64) (string, bool) {
	for name, v := range d.Enumerations[param] {
		if int64(v) == n {
			return name, true
		}
	}
	return "", false
}

// ConfigUint returns a numeric constant such as CLOCK_FREQ.
func (d *Dictionary) ConfigUint(name string) (uint32, bool) {
	s, ok := d.Config[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Print writes a summary of the dictionary.
func (d *Dictionary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Board Dictionary ===")
	fmt.Fprintf(w, "Version: %s\n", d.Version)
	fmt.Fprintf(w, "Build: %s\n", d.BuildVersions)

	keys := make([]string, 0, len(d.Config))
	for k := range d.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "\nConfig:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, d.Config[k])
	}

	fmt.Fprintf(w, "\nCommands (%d):\n", len(d.commands))
	for _, name := range d.CommandNames() {
		fmt.Fprintf(w, "  [%d] %s\n", d.commands[name].ID, d.commands[name].Signature())
	}

	if len(d.Enumerations) > 0 {
		keys = keys[:0]
		for k := range d.Enumerations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "\nEnumerations (%d):\n", len(d.Enumerations))
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %d values\n", k, len(d.Enumerations[k]))
		}
	}
}
