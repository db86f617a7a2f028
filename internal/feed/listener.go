package feed

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/banshee-data/track.pilot/internal/monitoring"
)

// Handler consumes one raw envelope (line or datagram).
type Handler func([]byte) error

// UDPListener receives sensor envelopes as UDP datagrams. Each datagram
// carries exactly one envelope.
type UDPListener struct {
	conn    *net.UDPConn
	handler Handler
}

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address string
	RcvBuf  int
	Handler Handler
}

// NewUDPListener binds the listening socket. The receive loop starts with
// Start.
func NewUDPListener(config UDPListenerConfig) (*UDPListener, error) {
	addr, err := net.ResolveUDPAddr("udp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP: %v", err)
	}

	if config.RcvBuf > 0 {
		if err := conn.SetReadBuffer(config.RcvBuf); err != nil {
			monitoring.Logf("warning: failed to set UDP receive buffer to %d bytes: %v", config.RcvBuf, err)
		}
	}

	return &UDPListener{
		conn:    conn,
		handler: config.Handler,
	}, nil
}

// LocalAddr returns the bound address, resolved after binding to port 0.
func (l *UDPListener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Start receives envelope datagrams and dispatches them until the context is
// cancelled. Handler errors are logged, not fatal; a bad datagram must not
// take down the control loop.
func (l *UDPListener) Start(ctx context.Context) error {
	defer l.conn.Close()

	monitoring.Logf("listening for sensor envelopes on %s", l.conn.LocalAddr())

	buffer := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("feed listener shutting down")
			return ctx.Err()
		default:
			// Read with a deadline so cancellation is noticed between
			// datagrams.
			if err := l.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
				monitoring.Logf("error setting read deadline: %v", err)
				continue
			}

			n, _, err := l.conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				monitoring.Logf("error reading envelope datagram: %v", err)
				continue
			}

			if err := l.handler(buffer[:n]); err != nil {
				monitoring.Logf("error handling envelope: %v", err)
			}
		}
	}
}
