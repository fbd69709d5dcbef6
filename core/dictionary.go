package core

import (
	"bytes"
	"sort"
	"sync"

	"cyclotron/protocol"
	"cyclotron/tinycompress"
)

// Constant represents a firmware constant exposed to the host
type Constant struct {
	Name  string
	Value any
}

// Enumeration names the values a command argument may take, such as the
// device ids or the segment pattern names.
type Enumeration struct {
	Name   string
	Values []string
}

// Dictionary is the identify data: a zlib-wrapped JSON document listing
// every command, response, constant and enumeration. The host downloads it
// in chunks with the identify command.
type Dictionary struct {
	mu            sync.RWMutex
	constants     map[string]*Constant
	enumerations  map[string]*Enumeration
	commandReg    *CommandRegistry
	version       string
	buildVersions string
	cached        []byte
}

var globalDictionary = NewDictionary(globalRegistry)

// NewDictionary creates a new dictionary
func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:     make(map[string]*Constant),
		enumerations:  make(map[string]*Enumeration),
		commandReg:    cmdReg,
		version:       "cyclotron-" + protocol.Version,
		buildVersions: "go-tinygo",
	}
}

// GetGlobalDictionary returns the dictionary served by identify.
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// RegisterConstant registers a constant in the dictionary
func RegisterConstant(name string, value any) {
	globalDictionary.AddConstant(name, value)
}

// RegisterEnumeration registers an enumeration in the dictionary
func RegisterEnumeration(name string, values []string) {
	globalDictionary.AddEnumeration(name, values)
}

// AddConstant adds a constant to the dictionary
func (d *Dictionary) AddConstant(name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.cached = nil
}

// AddEnumeration adds an enumeration to the dictionary
func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = &Enumeration{
		Name:   name,
		Values: append([]string(nil), values...),
	}
	d.cached = nil
}

// SetVersion sets the firmware version string
func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

// SetBuildVersions sets the build versions string
func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// BuildDictionary compresses and caches the dictionary. Call it after all
// commands are registered; later registrations are not seen until one of
// the setters invalidates the cache.
func (d *Dictionary) BuildDictionary() {
	// Fetch from the registry before taking our own lock.
	commands, responses := d.commandReg.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	w := tinycompress.NewWriter(&buf)
	w.Write(d.buildJSONLocked(commands, responses))
	if err := w.Close(); err != nil {
		DebugPrintln("[dict] compression failed: " + err.Error())
		return
	}
	d.cached = buf.Bytes()
	DebugPrintln("[dict] " + itoa(len(d.cached)) + " bytes")
}

// Generate returns the compressed dictionary, building it if needed.
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	d.BuildDictionary()

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// JSON returns the uncompressed dictionary document.
func (d *Dictionary) JSON() []byte {
	commands, responses := d.commandReg.Snapshot()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buildJSONLocked(commands, responses)
}

func (d *Dictionary) buildJSONLocked(commands, responses []*Command) []byte {
	result := make([]byte, 0, 1024)

	result = append(result, `{"version":`...)
	result = appendQuoted(result, d.version)
	result = append(result, `,"build_versions":`...)
	result = appendQuoted(result, d.buildVersions)

	result = append(result, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			result = append(result, ',')
		}
		result = appendQuoted(result, name)
		result = append(result, ':')
		result = appendQuoted(result, valueToString(d.constants[name].Value))
	}

	result = append(result, `},"commands":`...)
	result = appendIDMap(result, commands)
	result = append(result, `,"responses":`...)
	result = appendIDMap(result, responses)

	if len(d.enumerations) > 0 {
		result = append(result, `,"enumerations":{`...)
		names = names[:0]
		for name := range d.enumerations {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				result = append(result, ',')
			}
			result = appendQuoted(result, name)
			result = append(result, ":{"...)
			first := true
			for idx, value := range d.enumerations[name].Values {
				if value == "" {
					continue
				}
				if !first {
					result = append(result, ',')
				}
				result = appendQuoted(result, value)
				result = append(result, ':')
				result = append(result, itoa(idx)...)
				first = false
			}
			result = append(result, '}')
		}
		result = append(result, '}')
	}
	return append(result, '}')
}

// appendIDMap writes {"signature":id,...}; cmds are already in ID order.
func appendIDMap(result []byte, cmds []*Command) []byte {
	result = append(result, '{')
	for i, cmd := range cmds {
		if i > 0 {
			result = append(result, ',')
		}
		result = appendQuoted(result, cmd.Signature())
		result = append(result, ':')
		result = append(result, utoa(uint32(cmd.ID))...)
	}
	return append(result, '}')
}

func appendQuoted(result []byte, s string) []byte {
	result = append(result, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			result = append(result, '\\', c)
		default:
			result = append(result, c)
		}
	}
	return append(result, '"')
}

// GetChunk returns up to count bytes of the compressed dictionary starting
// at offset. Past the end it returns an empty slice.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := min(offset+uint32(count), uint32(len(data)))
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}
