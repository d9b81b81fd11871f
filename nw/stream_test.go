package nw

import (
	"testing"
	"time"
)

func TestStreamServerEchoRoundTrip(t *testing.T) {
	srv := NewStreamServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      TransportStream,
		Dialect:        DialectTCP,
		BufferCapacity: 256,
	}, nil)

	received := make(chan string, 1)
	srv.Register().SetLayer("echo", &ServerCallbacks{
		OnReceive: func(_ Server, id ClientID, _ Endpoint, buf *Buffer) {
			srv.Send(id, buf.Bytes())
		},
	}, false)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	cli := NewStreamClient(&ClientConfig{
		Candidates:     []string{srv.Addr().String()},
		BufferCapacity: 256,
	}, nil)
	cli.Register().SetLayer("recv", &ClientCallbacks{
		OnReceive: func(_ Client, buf *Buffer) { received <- string(buf.Bytes()) },
	}, false)

	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Disconnect()

	if err := cli.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got != "hello" {
			t.Fatalf("expected echoed %q, got %q", "hello", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestStreamServerStopIsIdempotent(t *testing.T) {
	srv := NewStreamServer(&Config{
		ListenAddr: "127.0.0.1:0",
		Transport:  TransportStream,
		Dialect:    DialectTCP,
	}, nil)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		srv.Stop()
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return on the second idempotent call")
	}

	if srv.IsRunning() {
		t.Fatal("server still reports running after Stop")
	}
}

func TestStreamServerRejectsOverMaxConnections(t *testing.T) {
	srv := NewStreamServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      TransportStream,
		Dialect:        DialectTCP,
		MaxConnections: 1,
		BufferCapacity: 64,
	}, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	addr := srv.Addr().String()

	c1 := NewStreamClient(&ClientConfig{Candidates: []string{addr}, BufferCapacity: 64}, nil)
	if err := c1.Connect(); err != nil {
		t.Fatalf("first connect should succeed: %v", err)
	}
	defer c1.Disconnect()

	time.Sleep(50 * time.Millisecond)
	if srv.registry.Count() != 1 {
		t.Fatalf("expected 1 registered connection, got %d", srv.registry.Count())
	}

	c2 := NewStreamClient(&ClientConfig{Candidates: []string{addr}, BufferCapacity: 64}, nil)
	if err := c2.Connect(); err != nil {
		t.Fatalf("second dial should reach the listener: %v", err)
	}
	defer c2.Disconnect()

	time.Sleep(50 * time.Millisecond)
	if srv.registry.Count() != 1 {
		t.Fatalf("expected the connection over MaxConnections to be rejected, registry holds %d", srv.registry.Count())
	}
}
