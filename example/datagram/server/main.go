package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gox/netrt/log"
	"github.com/gox/netrt/nw"
)

func main() {
	srv := nw.NewDatagramServer(&nw.Config{
		ListenAddr:     ":9099",
		Transport:      nw.TransportDatagram,
		BufferCapacity: 2048,
	}, nil)

	wrapper := nw.NewServerWrapper(srv, nil)

	wrapper.Register().SetLayer("echo", &nw.ServerCallbacks{
		OnReceive: func(_ nw.Server, id nw.ClientID, ep nw.Endpoint, buf *nw.Buffer) {
			if err := wrapper.Send(id, buf.Bytes()); err != nil {
				log.Error("echo to %d:%s failed: %v", id, ep, err)
			}
		},
	}, false)

	if err := wrapper.Start(); err != nil {
		log.Fatal(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	wrapper.Stop()
}
