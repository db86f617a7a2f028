package serialmux

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCommandAppendsNewline(t *testing.T) {
	mux, port := NewMockSerialMux()

	require.NoError(t, mux.SendCommand("OS"))
	require.NoError(t, mux.SendCommand("OV\n"))

	assert.Equal(t, "OS\nOV\n", port.Written())
}

func TestInitializeSendsStartupSequence(t *testing.T) {
	mux, port := NewMockSerialMux()

	require.NoError(t, mux.Initialize())

	lines := strings.Split(strings.TrimSuffix(port.Written(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "C="), "first command should sync the clock, got %q", lines[0])
	assert.Equal(t, []string{"OJ", "OS", "OV", "OT"}, lines[1:])
}

func TestMonitorFansOutToSubscribers(t *testing.T) {
	mux, port := NewMockSerialMux()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- mux.Monitor(ctx) }()

	id1, ch1 := mux.Subscribe()
	defer mux.Unsubscribe(id1)
	id2, ch2 := mux.Subscribe()
	defer mux.Unsubscribe(id2)

	go port.FeedLine(`{"type":"traffic_status"}`)

	for _, ch := range []chan string{ch1, ch2} {
		select {
		case line := <-ch:
			assert.Equal(t, `{"type":"traffic_status"}`, line)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for fanned-out line")
		}
	}

	cancel()
	select {
	case err := <-monitorDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestMonitorSkipsSlowSubscribers(t *testing.T) {
	mux, port := NewMockSerialMux()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	// Never read from this subscriber.
	slowID, _ := mux.Subscribe()
	defer mux.Unsubscribe(slowID)

	fastID, fast := mux.Subscribe()
	defer mux.Unsubscribe(fastID)

	// Both lines must still reach the fast subscriber.
	go func() {
		port.FeedLine("first")
		port.FeedLine("second")
	}()

	var got []string
	for len(got) < 2 {
		select {
		case line := <-fast:
			got = append(got, line)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	mux, _ := NewMockSerialMux()

	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	mux.Unsubscribe(id)
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	mux, _ := NewMockSerialMux()

	_, ch := mux.Subscribe()
	require.NoError(t, mux.Close())

	_, open := <-ch
	assert.False(t, open)
}

func TestDisabledMuxSatisfiesInterface(t *testing.T) {
	var m Mux = NewDisabledSerialMux()

	require.NoError(t, m.SendCommand("OS"))
	require.NoError(t, m.Initialize())

	id, ch := m.Subscribe()
	m.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Monitor(ctx), context.Canceled)
	require.NoError(t, m.Close())
}

func TestPortOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "defaults",
			in:   PortOptions{},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "explicit even parity",
			in:   PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"},
			want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"},
		},
		{
			name:    "bad data bits",
			in:      PortOptions{DataBits: 9},
			wantErr: true,
		},
		{
			name:    "bad stop bits",
			in:      PortOptions{StopBits: 3},
			wantErr: true,
		},
		{
			name:    "bad parity",
			in:      PortOptions{Parity: "mark"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
