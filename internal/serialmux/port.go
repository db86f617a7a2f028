package serialmux

import "io"

// SerialPorter is the minimal interface needed from a serial port. The
// abstraction enables unit testing without bridge hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
