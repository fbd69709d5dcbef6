package protocol

import (
	"errors"
	"sync/atomic"
)

var errHandlerPanic = errors.New("command handler panicked")

// CommandHandler handles one message ID. It must consume exactly its own
// arguments from data so that following messages in the frame decode.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware end of the link. It validates incoming frames,
// dispatches their messages in order, and acknowledges every frame with
// the sequence it expects next.
type Transport struct {
	scanner

	expected uint32 // atomic, next sequence expected from the host
	output   OutputBuffer
	handler  CommandHandler

	onReset func()
	onFlush func()
	onError func(error)
}

// NewTransport creates a transport writing frames to output.
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		expected: SeqDest,
		output:   output,
		handler:  handler,
	}
}

// Receive consumes complete frames from input.
func (t *Transport) Receive(input InputBuffer) {
	n := t.scan(input.Data(), t.handleFrame, t.sendAck)
	if n > 0 {
		input.Pop(n)
	}
}

func (t *Transport) handleFrame(f Frame) {
	expected := t.expectedSeq()
	if f.Sequence == SeqDest && expected != SeqDest {
		// host restarted its sequence
		expected = SeqDest
		atomic.StoreUint32(&t.expected, SeqDest)
		if t.onReset != nil {
			t.onReset()
		}
	}
	if f.Sequence == expected {
		atomic.StoreUint32(&t.expected, uint32(nextSeq(expected)))
		t.dispatch(f.Payload)
	}
	// A mismatched sequence still gets an ACK; it doubles as a NAK
	// carrying the sequence we want.
	t.sendAck()
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynced(false)
			t.report(errHandlerPanic)
		}
	}()
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.setSynced(false)
			t.report(err)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			// Remaining arguments can no longer be trusted.
			t.report(err)
			return
		}
	}
}

func (t *Transport) report(err error) {
	if t.onError != nil {
		t.onError(err)
	}
}

func (t *Transport) sendAck() {
	encodeFrame(t.output, t.expectedSeq(), nil)
	if t.onFlush != nil {
		t.onFlush()
	}
}

// EncodeFrame writes one frame whose payload is produced by body.
func (t *Transport) EncodeFrame(body func(output OutputBuffer)) {
	encodeFrame(t.output, t.expectedSeq(), body)
}

// SendCommand writes a single message frame.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on state, for example after a
// USB reconnect.
func (t *Transport) Reset() {
	t.setSynced(true)
	atomic.StoreUint32(&t.expected, SeqDest)
	if t.onReset != nil {
		t.onReset()
	}
}

func (t *Transport) expectedSeq() uint8 {
	return uint8(atomic.LoadUint32(&t.expected))
}

// SetResetCallback registers fn to run when the host restarts its sequence.
func (t *Transport) SetResetCallback(fn func()) { t.onReset = fn }

// SetFlushCallback registers fn to push pending output after each ACK.
func (t *Transport) SetFlushCallback(fn func()) { t.onFlush = fn }

// SetErrorCallback registers fn to receive decode and handler errors.
func (t *Transport) SetErrorCallback(fn func(error)) { t.onError = fn }
