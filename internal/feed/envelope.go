// Package feed moves sensor envelopes and drive commands over the wire. The
// sensor bridge publishes one JSON envelope per message, over the serial
// link as lines or over UDP as datagrams, and the drive-by-wire bridge
// accepts Joy messages as JSON datagrams.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope message types emitted by the sensor bridge.
const (
	TypeRangeScan     = "range_scan"
	TypeEdgeVectors   = "edge_vectors"
	TypeTrafficStatus = "traffic_status"
)

var (
	ErrUnknownType = errors.New("unknown envelope type")
	ErrEmptyType   = errors.New("envelope missing type")
)

// Envelope wraps one sensor message. Payload decoding is deferred so the
// dispatcher can route on Type without knowing every schema.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEnvelope parses one envelope from a line or datagram.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrEmptyType
	}
	return env, nil
}

// EncodeEnvelope wraps a payload for the wire.
func EncodeEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
