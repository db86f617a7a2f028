package serialmux

import (
	"bytes"
	"io"
	"sync"
)

// MockSerialPort is an in-memory SerialPorter for tests and the hardware-less
// dev mode. Lines queued with FeedLine appear on the read side; writes are
// captured for inspection.
type MockSerialPort struct {
	mu      sync.Mutex
	reads   *io.PipeReader
	writes  *io.PipeWriter
	written bytes.Buffer
	closed  bool
}

func NewMockSerialPort() *MockSerialPort {
	r, w := io.Pipe()
	return &MockSerialPort{
		reads:  r,
		writes: w,
	}
}

// FeedLine queues a line on the read side, as if the bridge had emitted it.
// Blocks until a reader consumes it.
func (m *MockSerialPort) FeedLine(line string) error {
	_, err := m.writes.Write([]byte(line + "\n"))
	return err
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	return m.reads.Read(p)
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.written.Write(p)
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.writes.Close()
	return m.reads.Close()
}

// NewMockSerialMux returns a SerialMux over a fresh mock port, plus the port
// for driving it.
func NewMockSerialMux() (*SerialMux, *MockSerialPort) {
	port := NewMockSerialPort()
	return NewSerialMux(port), port
}
