package link

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cyclotron/protocol"
)

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrMissingArg     = errors.New("missing argument")
	ErrUnknownArg     = errors.New("unknown argument")
	ErrBadValue       = errors.New("bad argument value")
)

// Param is one argument of a message signature, such as "oid=%c".
type Param struct {
	Name   string
	Format string
}

// IsBytes reports whether the parameter is a length-prefixed buffer.
func (p Param) IsBytes() bool {
	return strings.HasSuffix(p.Format, "s")
}

func (p Param) signed() bool {
	return strings.HasSuffix(p.Format, "i")
}

// Message describes a command or response from the dictionary.
type Message struct {
	ID     uint16
	Name   string
	Params []Param
}

// parseSignature splits "name a=%c b=%u" into a Message.
func parseSignature(sig string, id uint16) (*Message, error) {
	fields := strings.Fields(sig)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty signature for id %d", id)
	}
	m := &Message{ID: id, Name: fields[0]}
	for _, f := range fields[1:] {
		name, format, ok := strings.Cut(f, "=")
		if !ok || !strings.HasPrefix(format, "%") {
			return nil, fmt.Errorf("signature %q: bad parameter %q", sig, f)
		}
		m.Params = append(m.Params, Param{Name: name, Format: format})
	}
	return m, nil
}

// Signature returns the message in dictionary form.
func (m *Message) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	for _, p := range m.Params {
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Format)
	}
	return sb.String()
}

// Args are the arguments of an outgoing command, by parameter name. Integer
// parameters take int64 or any integer type; buffer parameters take []byte
// or string.
type Args map[string]any

// Encode returns a function writing the message arguments in signature
// order, suitable for HostTransport.SendCommand.
func (m *Message) Encode(args Args) (func(protocol.OutputBuffer), error) {
	for name := range args {
		if !m.hasParam(name) {
			return nil, fmt.Errorf("%s: %w %q", m.Name, ErrUnknownArg, name)
		}
	}

	type encoded struct {
		n int64
		b []byte
	}
	values := make([]encoded, len(m.Params))
	for i, p := range m.Params {
		v, ok := args[p.Name]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", m.Name, ErrMissingArg, p.Name)
		}
		if p.IsBytes() {
			switch b := v.(type) {
			case []byte:
				values[i].b = b
			case string:
				values[i].b = []byte(b)
			default:
				return nil, fmt.Errorf("%s %s=%v: %w", m.Name, p.Name, v, ErrBadValue)
			}
			continue
		}
		n, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("%s %s=%v: %w", m.Name, p.Name, v, ErrBadValue)
		}
		values[i].n = n
	}

	return func(output protocol.OutputBuffer) {
		for i, p := range m.Params {
			switch {
			case p.IsBytes():
				protocol.EncodeVLQBytes(output, values[i].b)
			case p.signed():
				protocol.EncodeVLQInt(output, int32(values[i].n))
			default:
				protocol.EncodeVLQUint(output, uint32(values[i].n))
			}
		}
	}, nil
}

func (m *Message) hasParam(name string) bool {
	for _, p := range m.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Value is one decoded response argument.
type Value struct {
	Name  string
	Int   int64
	Bytes []byte
}

// Response is a decoded device-to-host message.
type Response struct {
	*Message
	Values []Value
}

// Decode parses the arguments that follow the message ID.
func (m *Message) Decode(data []byte) (*Response, error) {
	r := &Response{Message: m, Values: make([]Value, 0, len(m.Params))}
	for _, p := range m.Params {
		v := Value{Name: p.Name}
		var err error
		switch {
		case p.IsBytes():
			v.Bytes, err = protocol.DecodeVLQBytes(&data)
		case p.signed():
			var n int32
			n, err = protocol.DecodeVLQInt(&data)
			v.Int = int64(n)
		default:
			var n uint32
			n, err = protocol.DecodeVLQUint(&data)
			v.Int = int64(n)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", m.Name, p.Name, err)
		}
		r.Values = append(r.Values, v)
	}
	return r, nil
}

// Get returns an integer argument by name.
func (r *Response) Get(name string) (int64, bool) {
	for _, v := range r.Values {
		if v.Name == name {
			return v.Int, true
		}
	}
	return 0, false
}

// Uint is Get for arguments known to be present; missing ones read as 0.
func (r *Response) Uint(name string) uint32 {
	n, _ := r.Get(name)
	return uint32(n)
}

// String formats the response the way commands are typed in ledctl.
func (r *Response) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	for _, v := range r.Values {
		sb.WriteByte(' ')
		sb.WriteString(v.Name)
		sb.WriteByte('=')
		if v.Bytes != nil {
			sb.WriteString(strconv.Quote(string(v.Bytes)))
		} else {
			sb.WriteString(strconv.FormatInt(v.Int, 10))
		}
	}
	return sb.String()
}
