package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gox/netrt/log"
	"github.com/gox/netrt/nw"
)

const (
	N     = 10000
	NCONN = 10
	HOST  = "127.0.0.1:9090"
)

var (
	ssize = int64(0)
	rsize = int64(0)
	ntime = int64(0)
)

func testClient(wg *sync.WaitGroup) {
	defer wg.Done()

	cli := nw.NewStreamClient(&nw.ClientConfig{
		Candidates:     []string{HOST},
		BufferCapacity: 4096,
	}, nil)

	received := make(chan []byte, 1)
	cli.Register().SetLayer("recv", &nw.ClientCallbacks{
		OnReceive: func(_ nw.Client, buf *nw.Buffer) { received <- buf.Bytes() },
	}, false)

	if err := cli.Connect(); err != nil {
		log.Fatal(err)
	}
	defer cli.Disconnect()

	for i := 0; i < N; i++ {
		wdata := []byte(fmt.Sprintf("Hello world: %v", i))

		if err := cli.Send(wdata); err != nil {
			log.Error(err)
			break
		}
		atomic.AddInt64(&ssize, int64(len(wdata)))

		rdata := <-received
		atomic.AddInt64(&rsize, int64(len(rdata)))
		atomic.AddInt64(&ntime, 1)
	}
}

func main() {
	tnow := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(NCONN)
	for i := 0; i < NCONN; i++ {
		go testClient(&wg)
	}
	wg.Wait()

	spend := time.Since(tnow).Seconds()

	log.Info("requests: %d, sent: %d bytes, received: %d bytes, elapsed: %v",
		ntime, ssize, rsize, spend)
	log.Info("qps: %.2f, throughput: %.2f bytes/s", float64(ntime)/spend, float64(ssize)/spend)
}
