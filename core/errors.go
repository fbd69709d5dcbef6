package core

import (
	"errors"

	"cyclotron/protocol"
)

var (
	ErrBufferFull      = errors.New("led buffer exhausted")
	ErrInvalidLEDCount = errors.New("invalid led count")
	ErrDuplicateObject = errors.New("object id already configured")
	ErrUnknownObject   = errors.New("unknown object id")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrShutdown        = errors.New("firmware is shut down")
	ErrNoLEDDriver     = errors.New("LED driver not configured")
)

// errorTable fixes the codes sent in command_error responses. Index 0 is
// reserved for errors without a code.
var errorTable = [...]error{
	nil,
	ErrBufferFull,
	ErrInvalidLEDCount,
	ErrDuplicateObject,
	ErrUnknownObject,
	ErrInvalidArgument,
	ErrShutdown,
	ErrNoLEDDriver,
	protocol.ErrInvalidVLQ,
	errUnknownCommand,
	protocol.ErrBufferTooSmall,
}

func errorCode(err error) uint32 {
	for i := 1; i < len(errorTable); i++ {
		if errors.Is(err, errorTable[i]) {
			return uint32(i)
		}
	}
	return 0
}

// ErrorFromCode maps a command_error code back to its sentinel. Unknown
// codes return nil.
func ErrorFromCode(code uint32) error {
	if code == 0 || code >= uint32(len(errorTable)) {
		return nil
	}
	return errorTable[code]
}
