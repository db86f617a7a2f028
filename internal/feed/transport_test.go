package feed

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/track.pilot/internal/follower"
)

func TestUDPListenerDeliversDatagrams(t *testing.T) {
	received := make(chan []byte, 4)

	listener, err := NewUDPListener(UDPListenerConfig{
		Address: "127.0.0.1:0",
		Handler: func(data []byte) error {
			buf := make([]byte, len(data))
			copy(buf, data)
			received <- buf
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- listener.Start(ctx) }()

	conn, err := net.Dial("udp", listener.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	line, err := EncodeEnvelope(TypeTrafficStatus, follower.TrafficStatus{StopSign: true})
	require.NoError(t, err)
	_, err = conn.Write(line)
	require.NoError(t, err)

	select {
	case data := <-received:
		assert.JSONEq(t, string(line), string(data))
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop on cancel")
	}
}

func TestUDPJoySinkPublishes(t *testing.T) {
	serverAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	server, err := net.ListenUDP("udp", serverAddr)
	require.NoError(t, err)
	defer server.Close()

	sink, err := NewUDPJoySink(server.LocalAddr().String())
	require.NoError(t, err)
	defer sink.Close()

	cmd := follower.Command{Speed: 0.75, Turn: -0.2}
	require.NoError(t, sink.Publish(cmd.Joy()))

	require.NoError(t, server.SetReadDeadline(time.Now().Add(2*time.Second)))
	buffer := make([]byte, 65536)
	n, _, err := server.ReadFromUDP(buffer)
	require.NoError(t, err)

	var msg follower.JoyMessage
	require.NoError(t, json.Unmarshal(buffer[:n], &msg))
	assert.Equal(t, [8]int{1, 0, 0, 0, 0, 0, 0, 1}, msg.Buttons)
	assert.Equal(t, [4]float64{0, 0.75, 0, -0.2}, msg.Axes)
}

func TestSerialJoySinkWrapsEnvelope(t *testing.T) {
	var sent []string
	sink := NewSerialJoySink(func(line string) error {
		sent = append(sent, line)
		return nil
	})

	cmd := follower.Command{Speed: 0.5, Turn: 0.1}
	require.NoError(t, sink.Publish(cmd.Joy()))

	require.Len(t, sent, 1)
	env, err := DecodeEnvelope([]byte(sent[0]))
	require.NoError(t, err)
	assert.Equal(t, "joy", env.Type)

	var msg follower.JoyMessage
	require.NoError(t, json.Unmarshal(env.Payload, &msg))
	assert.Equal(t, [4]float64{0, 0.5, 0, 0.1}, msg.Axes)
}
