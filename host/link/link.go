// Package link is the host client for a cyclotron board: it downloads the
// board's dictionary and sends commands by name.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cyclotron/core"
	"cyclotron/host/serial"
	"cyclotron/protocol"
)

var (
	ErrNoDictionary = errors.New("dictionary not loaded")
	ErrCommand      = errors.New("command rejected")
)

// The identify exchange uses fixed IDs so it works before the dictionary
// is known.
const (
	identifyResponseID = 0
	identifyID         = 1
)

const (
	DefaultChunkSize = 40
	DefaultTimeout   = time.Second
	maxChunks        = 1000
)

// Link is a connection to one board.
type Link struct {
	transport *protocol.HostTransport
	port      serial.Port

	// ChunkSize is the identify request size; Timeout bounds each wait.
	ChunkSize uint8
	Timeout   time.Duration
	// Log receives progress messages when set.
	Log io.Writer

	mu       sync.RWMutex
	dict     *Dictionary
	raw      []byte
	errs     map[uint16]uint32
	listener func(*Response)
}

// Open opens the serial device and wraps it in a Link.
func Open(cfg *serial.Config) (*Link, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return New(port), nil
}

// New starts a Link over an already open port.
func New(port serial.Port) *Link {
	l := &Link{
		port:      port,
		transport: protocol.NewHostTransport(port),
		ChunkSize: DefaultChunkSize,
		Timeout:   DefaultTimeout,
		errs:      make(map[uint16]uint32),
	}
	l.transport.SetResponseHandler(l.handleResponse)
	return l
}

// Close closes the transport and the port.
func (l *Link) Close() error {
	return l.transport.Close()
}

func (l *Link) logf(format string, args ...any) {
	if l.Log != nil {
		fmt.Fprintf(l.Log, format, args...)
	}
}

// Identify downloads and parses the board's dictionary.
func (l *Link) Identify() error {
	var buf bytes.Buffer
	offset := uint32(0)
	for i := 0; i < maxChunks; i++ {
		chunk, err := l.identifyChunk(offset, l.ChunkSize)
		if err != nil {
			return fmt.Errorf("identify at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < int(l.ChunkSize) {
			break
		}
	}
	l.logf("dictionary: %d bytes\n", buf.Len())

	dict, err := ParseDictionary(buf.Bytes())
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.dict = dict
	l.raw = buf.Bytes()
	l.mu.Unlock()
	l.logf("dictionary: %s, %d commands\n", dict.Version, len(dict.Commands))
	return nil
}

func (l *Link) identifyChunk(offset uint32, count uint8) ([]byte, error) {
	l.transport.Drain()
	err := l.transport.SendCommandWithTimeout(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	}, l.Timeout)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.Timeout)
	for {
		resp, err := l.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		payload := resp.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil || id != identifyResponseID {
			continue
		}
		respOffset, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if respOffset != offset {
			return nil, fmt.Errorf("offset mismatch: sent %d, got %d", offset, respOffset)
		}
		return protocol.DecodeVLQBytes(&payload)
	}
}

// Dictionary returns the parsed dictionary, or nil before Identify.
func (l *Link) Dictionary() *Dictionary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dict
}

// RawDictionary returns the identify data as downloaded.
func (l *Link) RawDictionary() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.raw
}

// OnResponse installs a callback for every decoded response. It runs on
// the transport's reader goroutine.
func (l *Link) OnResponse(fn func(*Response)) {
	l.mu.Lock()
	l.listener = fn
	l.mu.Unlock()
}

func (l *Link) handleResponse(cmdID uint16, data *[]byte) error {
	l.mu.RLock()
	dict, listener := l.dict, l.listener
	l.mu.RUnlock()
	if dict == nil {
		return nil
	}
	msg, ok := dict.Response(cmdID)
	if !ok {
		return nil
	}
	resp, err := msg.Decode(*data)
	if err != nil {
		return err
	}
	if msg.Name == "command_error" {
		l.mu.Lock()
		l.errs[uint16(resp.Uint("cmd"))] = resp.Uint("code")
		l.mu.Unlock()
	}
	if listener != nil {
		listener(resp)
	}
	return nil
}

// Send encodes and sends a command, waiting for its acknowledgement. A
// command_error reported for it is returned as an error wrapping both
// ErrCommand and the board's error.
func (l *Link) Send(name string, args Args) error {
	dict := l.Dictionary()
	if dict == nil {
		return ErrNoDictionary
	}
	msg, ok := dict.Command(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, name)
	}
	enc, err := msg.Encode(args)
	if err != nil {
		return err
	}

	l.mu.Lock()
	delete(l.errs, msg.ID)
	l.mu.Unlock()

	if err := l.transport.SendCommandWithTimeout(msg.ID, enc, l.Timeout); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	// Error responses precede the ACK on the wire, so any error for this
	// command has been recorded by now.
	l.mu.Lock()
	code, failed := l.errs[msg.ID]
	delete(l.errs, msg.ID)
	l.mu.Unlock()
	if failed {
		return fmt.Errorf("%s: %w: %w", name, ErrCommand, codeError(code))
	}
	return nil
}

// Query sends a command and waits for the named response. Responses that
// arrive in between are skipped.
func (l *Link) Query(name string, args Args, want string) (*Response, error) {
	l.transport.Drain()
	if err := l.Send(name, args); err != nil {
		return nil, err
	}

	dict := l.Dictionary()
	deadline := time.Now().Add(l.Timeout)
	for {
		f, err := l.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, fmt.Errorf("%s: waiting for %s: %w", name, want, err)
		}
		payload := f.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			continue
		}
		msg, ok := dict.Response(uint16(id))
		if !ok || msg.Name != want {
			continue
		}
		return msg.Decode(payload)
	}
}

// codeError maps a command_error code back to the board's error.
func codeError(code uint32) error {
	if err := core.ErrorFromCode(code); err != nil {
		return err
	}
	return fmt.Errorf("error code %d", code)
}
