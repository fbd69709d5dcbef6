// Package protocol implements the framed serial link between the LED
// controller firmware and the host tools.
//
// Every frame is laid out as
//
//	[length][sequence][payload ...][crc high][crc low][0x7E]
//
// where length counts the whole frame and the payload is a series of
// VLQ-encoded message IDs followed by their arguments.
package protocol

import "errors"

// Version is the link protocol version reported by identify.
const Version = "0.1.0"

const (
	HeaderSize  = 2
	TrailerSize = 3
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 64

	// OutputMax bounds the firmware output scratch buffer. Several frames
	// (an ACK plus responses) may be queued before the USB write drains it.
	OutputMax = 512

	SyncByte = 0x7E

	// SeqDest is always set in the sequence byte; the low nibble counts.
	SeqDest = 0x10
	SeqMask = 0x0F

	posLength   = 0
	posSequence = 1
)

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrFrameTooLong   = errors.New("frame exceeds maximum length")
)

// nextSeq returns the sequence that follows seq.
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
