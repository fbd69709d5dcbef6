package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAckTimeout      = errors.New("ack timeout")
	ErrNak             = errors.New("frame not accepted")
	ErrResponseTimeout = errors.New("response timeout")
	ErrClosed          = errors.New("transport closed")
)

// DefaultAckTimeout bounds how long SendCommand waits for an ACK.
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler receives every non-ACK frame message as it arrives.
type ResponseHandler func(cmdID uint16, data *[]byte) error

// HostTransport is the host end of the link. A background goroutine reads
// the port and splits frames into ACKs and responses.
type HostTransport struct {
	scanner

	port io.ReadWriteCloser
	seq  uint32 // atomic, sequence of the next frame we send

	input     *FifoBuffer
	acks      chan Frame
	responses chan Frame

	handlerMu sync.RWMutex
	handler   ResponseHandler

	writeMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port immediately.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       SeqDest,
		input:     NewFifoBuffer(1024),
		acks:      make(chan Frame, 4),
		responses: make(chan Frame, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends one message and waits for its ACK.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout is SendCommand with an explicit ACK timeout.
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	seq := t.CurrentSequence()
	out := NewScratchOutput()
	encodeFrame(out, seq, func(o OutputBuffer) {
		EncodeVLQUint(o, uint32(cmdID))
		if args != nil {
			args(o)
		}
	})
	frame := out.Result()
	if len(frame) > FrameMax {
		return fmt.Errorf("command %d: %w (%d bytes)", cmdID, ErrFrameTooLong, len(frame))
	}
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return t.waitForAck(seq, timeout)
}

func (t *HostTransport) waitForAck(seq uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ack := <-t.acks:
		// Whatever the device asks for next becomes our sequence, so a
		// NAK resynchronizes us for the retry.
		atomic.StoreUint32(&t.seq, uint32(ack.Sequence))
		if ack.Sequence != nextSeq(seq) {
			return fmt.Errorf("%w: sent 0x%02x, device expects 0x%02x", ErrNak, seq, ack.Sequence)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
	case <-t.stop:
		return ErrClosed
	}
}

// ReceiveResponse returns the next response frame.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-t.responses:
		return f, nil
	case <-timer.C:
		return Frame{}, fmt.Errorf("%w after %v", ErrResponseTimeout, timeout)
	case <-t.stop:
		return Frame{}, ErrClosed
	}
}

// SetResponseHandler installs a callback run from the reader goroutine for
// every response, in addition to queueing it for ReceiveResponse.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.handler = handler
	t.handlerMu.Unlock()
}

func (t *HostTransport) readLoop() {
	defer close(t.done)
	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			t.input.Pop(t.scan(t.input.Data(), t.route, nil))
		}
		select {
		case <-t.stop:
			return
		default:
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) route(f Frame) {
	if len(f.Payload) == 0 {
		select {
		case t.acks <- f:
		default:
		}
		return
	}
	f.Payload = append([]byte(nil), f.Payload...)

	t.handlerMu.RLock()
	handler := t.handler
	t.handlerMu.RUnlock()
	if handler != nil {
		data := f.Payload
		if id, err := DecodeVLQUint(&data); err == nil {
			_ = handler(uint16(id), &data)
		}
	}

	select {
	case t.responses <- f:
	default:
		// drop the oldest
		select {
		case <-t.responses:
		default:
		}
		t.responses <- f
	}
}

// Close stops the reader and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

// Reset drops queued frames and restarts the sequence.
func (t *HostTransport) Reset() {
	atomic.StoreUint32(&t.seq, SeqDest)
	t.setSynced(true)
	for len(t.acks) > 0 {
		<-t.acks
	}
	for len(t.responses) > 0 {
		<-t.responses
	}
}

// Drain discards queued responses without touching the sequence.
func (t *HostTransport) Drain() {
	for len(t.responses) > 0 {
		<-t.responses
	}
}

// CurrentSequence returns the sequence of the next outgoing frame.
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(atomic.LoadUint32(&t.seq))
}
