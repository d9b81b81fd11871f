package nw

import (
	"testing"
	"time"
)

func TestDatagramServerNewPeerSequencing(t *testing.T) {
	srv := NewDatagramServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      TransportDatagram,
		BufferCapacity: 256,
	}, nil)

	connected := make(chan ClientID, 1)
	received := make(chan string, 1)
	srv.Register().SetLayer("capture", &ServerCallbacks{
		OnConnection: func(_ Server, id ClientID, _ Endpoint) { connected <- id },
		OnReceive: func(_ Server, id ClientID, _ Endpoint, buf *Buffer) {
			received <- string(buf.Bytes())
			srv.Send(id, buf.Bytes())
		},
	}, false)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	cli := NewDatagramClient(&ClientConfig{
		Candidates:     []string{srv.Addr().String()},
		BufferCapacity: 256,
	}, nil)

	echoed := make(chan string, 1)
	cli.Register().SetLayer("recv", &ClientCallbacks{
		OnReceive: func(_ Client, buf *Buffer) { echoed <- string(buf.Bytes()) },
	}, false)

	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Disconnect()

	if err := cli.Send([]byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case id := <-connected:
		if id == InvalidClientID {
			t.Fatal("OnConnection fired with the invalid sentinel id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnConnection")
	}

	select {
	case got := <-received:
		if got != "ping" {
			t.Fatalf("expected %q, got %q", "ping", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnReceive")
	}

	select {
	case got := <-echoed:
		if got != "ping" {
			t.Fatalf("expected echoed %q, got %q", "ping", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client echo")
	}
}

func TestDatagramServerStopIsIdempotent(t *testing.T) {
	srv := NewDatagramServer(&Config{
		ListenAddr: "127.0.0.1:0",
		Transport:  TransportDatagram,
	}, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	srv.Stop()
	srv.Stop()

	if srv.IsRunning() {
		t.Fatal("server still reports running after Stop")
	}
}
