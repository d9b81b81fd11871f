package main

import (
	"github.com/gox/netrt/log"
	"github.com/gox/netrt/nw"
)

func main() {
	cli := nw.NewDatagramClient(&nw.ClientConfig{
		Candidates:     []string{"127.0.0.1:9099"},
		BufferCapacity: 2048,
	}, nil)

	received := make(chan []byte, 1)
	cli.Register().SetLayer("recv", &nw.ClientCallbacks{
		OnReceive: func(_ nw.Client, buf *nw.Buffer) { received <- buf.Bytes() },
	}, false)

	if err := cli.Connect(); err != nil {
		log.Fatal(err)
	}
	defer cli.Disconnect()

	if err := cli.Send([]byte("ping")); err != nil {
		log.Fatal(err)
	}

	log.Info("reply: %s", string(<-received))
}
