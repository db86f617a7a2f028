package feed

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/banshee-data/track.pilot/internal/follower"
)

// UDPJoySink publishes Joy messages to the drive-by-wire bridge as JSON
// datagrams. Implements follower.CommandSink.
type UDPJoySink struct {
	mu   sync.Mutex
	conn *net.UDPConn
}

// NewUDPJoySink dials the drive-by-wire bridge address.
func NewUDPJoySink(address string) (*UDPJoySink, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve drive address: %v", err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial drive address: %v", err)
	}

	return &UDPJoySink{conn: conn}, nil
}

// Publish sends one Joy message. Writes are serialized; datagram boundaries
// are the message framing.
func (s *UDPJoySink) Publish(msg follower.JoyMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to publish joy message: %w", err)
	}
	return nil
}

func (s *UDPJoySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// SerialJoySink publishes Joy messages as envelope lines over the serial
// bridge, for rigs where the drive-by-wire link shares the sensor serial
// channel.
type SerialJoySink struct {
	send func(string) error
}

// NewSerialJoySink wraps a command sender, typically SerialMux.SendCommand.
func NewSerialJoySink(send func(string) error) *SerialJoySink {
	return &SerialJoySink{send: send}
}

func (s *SerialJoySink) Publish(msg follower.JoyMessage) error {
	line, err := EncodeEnvelope("joy", msg)
	if err != nil {
		return err
	}
	return s.send(string(line))
}
