package nw

import (
	"testing"
	"time"
)

// TestServerWrapperUpdateReflectsRequestStop exercises spec.md §8
// scenario 2: request_stop() triggered from within an on_receive
// handler must be observable by the very next poll of the caller's
// main loop, i.e. the next Update() call returns false.
func TestServerWrapperUpdateReflectsRequestStop(t *testing.T) {
	srv := NewStreamServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      TransportStream,
		Dialect:        DialectTCP,
		BufferCapacity: 64,
	}, nil)
	wrapper := NewServerWrapper(srv, nil)

	wrapper.Register().SetLayer("stopper", &ServerCallbacks{
		OnReceive: func(_ Server, _ ClientID, _ Endpoint, _ *Buffer) { wrapper.RequestStop() },
	}, false)

	if err := wrapper.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer wrapper.Stop()

	if !wrapper.Update() {
		t.Fatal("expected the wrapper to be healthy before any traffic")
	}

	cli := NewStreamClient(&ClientConfig{
		Candidates:     []string{srv.Addr().String()},
		BufferCapacity: 64,
	}, nil)
	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Disconnect()

	if err := cli.Send([]byte("x")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !wrapper.Update() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Update never reported unhealthy after request_stop")
}

// TestServerPluginManagerTicksInInsertionOrder guards spec.md §4.5's
// "iterates plugins in insertion order" invariant against the
// randomisation Go's map iteration would otherwise introduce.
func TestServerPluginManagerTicksInInsertionOrder(t *testing.T) {
	srv := NewStreamServer(&Config{
		ListenAddr: "127.0.0.1:0",
		Transport:  TransportStream,
		Dialect:    DialectTCP,
	}, nil)
	wrapper := NewServerWrapper(srv, nil)

	var order []string
	for _, name := range []string{"a", "b", "c", "d"} {
		name := name
		if err := wrapper.AttachPlugin(&orderPlugin{name: name, record: &order}); err != nil {
			t.Fatalf("AttachPlugin(%s): %v", name, err)
		}
	}

	wrapper.Update()

	want := []string{"a", "b", "c", "d"}
	if len(order) != len(want) {
		t.Fatalf("expected %d ticks, got %d (%v)", len(want), len(order), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("tick order = %v, want %v", order, want)
		}
	}
}

type orderPlugin struct {
	name   string
	record *[]string
}

func (p *orderPlugin) Name() string                 { return p.name }
func (p *orderPlugin) OnAttach(*ServerWrapper) error { return nil }
func (p *orderPlugin) OnDetach()                     {}
func (p *orderPlugin) Tick()                         { *p.record = append(*p.record, p.name) }
func (p *orderPlugin) RequiresConnection() bool      { return false }
