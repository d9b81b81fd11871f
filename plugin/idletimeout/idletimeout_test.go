package idletimeout_test

import (
	"testing"
	"time"

	"github.com/gox/netrt/nw"
	"github.com/gox/netrt/plugin/idletimeout"
)

func TestServerPluginDisconnectsIdlePeer(t *testing.T) {
	srv := nw.NewStreamServer(&nw.Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      nw.TransportStream,
		Dialect:        nw.DialectTCP,
		BufferCapacity: 64,
	}, nil)
	wrapper := nw.NewServerWrapper(srv, nil)

	disconnected := make(chan nw.ClientID, 1)
	wrapper.Register().SetLayer("watch", &nw.ServerCallbacks{
		OnDisconnect: func(_ nw.Server, id nw.ClientID, _ nw.Endpoint, _ error) { disconnected <- id },
	}, false)

	if err := wrapper.AttachPlugin(idletimeout.NewServerPlugin(50 * time.Millisecond)); err != nil {
		t.Fatalf("AttachPlugin: %v", err)
	}

	if err := wrapper.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer wrapper.Stop()

	// Plugins only run when the caller polls Update(); this loop stands
	// in for the application's own reactor-quantum poll.
	stopPolling := make(chan struct{})
	defer close(stopPolling)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPolling:
				return
			case <-ticker.C:
				wrapper.Update()
			}
		}
	}()

	cli := nw.NewStreamClient(&nw.ClientConfig{
		Candidates:     []string{srv.Addr().String()},
		BufferCapacity: 64,
	}, nil)
	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Disconnect()

	select {
	case <-disconnected:
	case <-time.After(3 * time.Second):
		t.Fatal("idle peer was never disconnected")
	}
}
