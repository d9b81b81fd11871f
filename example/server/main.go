package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gox/netrt/log"
	"github.com/gox/netrt/nw"
	"github.com/gox/netrt/plugin/idletimeout"
)

func main() {
	srv := nw.NewStreamServer(&nw.Config{
		ListenAddr:     ":9090",
		Transport:      nw.TransportStream,
		Dialect:        nw.DialectTCP,
		MaxConnections: 10000,
		BufferCapacity: 4096,
	}, nil)

	wrapper := nw.NewServerWrapper(srv, nil)

	wrapper.Register().SetLayer("echo", &nw.ServerCallbacks{
		OnReceive: func(_ nw.Server, id nw.ClientID, ep nw.Endpoint, buf *nw.Buffer) {
			if err := wrapper.Send(id, buf.Bytes()); err != nil {
				log.Error("echo to %d:%s failed: %v", id, ep, err)
			}
		},
	}, false)

	if err := wrapper.AttachPlugin(idletimeout.NewServerPlugin(60 * time.Second)); err != nil {
		log.Fatal(err)
	}

	if err := wrapper.Start(); err != nil {
		log.Fatal(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Debug("received signal: %v", sig)
	wrapper.Stop()
}
