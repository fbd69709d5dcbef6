package protocol

import (
	"bytes"
	"sync/atomic"
)

// Frame is one validated frame taken off the wire.
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// scanner splits a byte stream into frames and tracks whether the stream
// is currently synchronized on frame boundaries.
type scanner struct {
	desynced uint32 // atomic bool, zero value is synchronized
}

func (s *scanner) synced() bool {
	return atomic.LoadUint32(&s.desynced) == 0
}

func (s *scanner) setSynced(v bool) {
	if v {
		atomic.StoreUint32(&s.desynced, 0)
	} else {
		atomic.StoreUint32(&s.desynced, 1)
	}
}

// scan calls emit for every valid frame in data and returns the number of
// bytes consumed. A trailing partial frame is left for the next call.
// resync runs each time the stream regains synchronization.
func (s *scanner) scan(data []byte, emit func(Frame), resync func()) int {
	total := len(data)
	for len(data) > 0 {
		if !s.synced() {
			i := bytes.IndexByte(data, SyncByte)
			if i < 0 {
				data = data[len(data):]
				break
			}
			data = data[i+1:]
			s.setSynced(true)
			if resync != nil {
				resync()
			}
			continue
		}
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}
		n := int(data[posLength])
		seq := data[posSequence]
		if n < FrameMin || n > FrameMax || seq&^SeqMask != SeqDest {
			s.setSynced(false)
			continue
		}
		if len(data) < n {
			break
		}
		crc := uint16(data[n-3])<<8 | uint16(data[n-2])
		if data[n-1] != SyncByte || crc != CRC16(data[:n-TrailerSize]) {
			s.setSynced(false)
			continue
		}
		emit(Frame{Sequence: seq, Payload: data[HeaderSize : n-TrailerSize]})
		data = data[n:]
	}
	return total - len(data)
}

// encodeFrame writes a complete frame with the given sequence to output.
func encodeFrame(output OutputBuffer, seq uint8, body func(OutputBuffer)) {
	start := output.CurPosition()
	output.Output([]byte{0, seq})
	if body != nil {
		body(output)
	}
	output.Update(start, byte(len(output.DataSince(start))+TrailerSize))
	crc := CRC16(output.DataSince(start))
	output.Output([]byte{byte(crc >> 8), byte(crc), SyncByte})
}
