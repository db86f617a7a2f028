package serialmux

import "go.bug.st/serial"

// NewRealSerialMux creates a SerialMux backed by a real serial port at the
// given path using the provided options.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewSerialMux(port), nil
}
