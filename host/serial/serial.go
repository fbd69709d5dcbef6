// Package serial opens the host side of the board's command link.
package serial

import (
	"io"
	"time"
)

// Port is an open link to a board. Native ports come from Open; tests use
// any io.ReadWriteCloser wrapped with Wrap.
type Port interface {
	io.ReadWriteCloser

	// Flush discards anything the board sent that has not been read yet.
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC ignores it but the OS driver still wants one.
	Baud int

	// ReadTimeout bounds a single Read; 0 blocks.
	ReadTimeout time.Duration
}

const DefaultBaud = 115200

// DefaultConfig returns the configuration for a board on device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

type wrapped struct {
	io.ReadWriteCloser
}

func (wrapped) Flush() error { return nil }

// Wrap adapts a stream, such as one end of net.Pipe, to Port.
func Wrap(rwc io.ReadWriteCloser) Port {
	if p, ok := rwc.(Port); ok {
		return p
	}
	return wrapped{rwc}
}
