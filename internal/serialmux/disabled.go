package serialmux

import (
	"context"
	"net/http"
)

// DisabledSerialMux satisfies Mux when the pilot runs without a serial bridge
// (UDP feed only, or replay). Subscribers get a channel that never receives;
// commands are accepted and dropped.
type DisabledSerialMux struct {
	inner *SerialMux
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{
		inner: &SerialMux{subscribers: make(map[string]chan string)},
	}
}

func (d *DisabledSerialMux) Subscribe() (string, chan string) {
	return d.inner.Subscribe()
}

func (d *DisabledSerialMux) Unsubscribe(id string) {
	d.inner.Unsubscribe(id)
}

func (d *DisabledSerialMux) SendCommand(string) error { return nil }

func (d *DisabledSerialMux) Initialize() error { return nil }

// Monitor blocks until the context is cancelled. There is no port to read.
func (d *DisabledSerialMux) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (d *DisabledSerialMux) Close() error {
	d.inner.subscriberMu.Lock()
	defer d.inner.subscriberMu.Unlock()
	for id, ch := range d.inner.subscribers {
		close(ch)
		delete(d.inner.subscribers, id)
	}
	return nil
}

func (d *DisabledSerialMux) AttachAdminRoutes(*http.ServeMux) {}
