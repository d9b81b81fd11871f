package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gox/netrt/log"
	"github.com/gox/netrt/nw"
	"github.com/gox/netrt/plugin/audit"
	"github.com/gox/netrt/plugin/diagnostics"
	"github.com/gox/netrt/plugin/idleredis"
	"github.com/gox/netrt/web"
)

func main() {
	adminHost := flag.String("admin", ":8090", "admin http listen address")
	redisAddr := flag.String("redis", "", "redis address for the distributed idle-timeout plugin, empty disables it")
	rmqHost := flag.String("rabbitmq", "", "rabbitmq host for the audit plugin, empty disables it")
	flag.Parse()

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

	if err := wrapper.AttachPlugin(diagnostics.NewPlugin(nil, 90, 90)); err != nil {
		log.Fatal(err)
	}

	if *redisAddr != "" {
		plugin, err := idleredis.NewServerPlugin(idleredis.Config{
			Addr:     *redisAddr,
			Instance: "admin-example",
			Timeout:  2 * time.Minute,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := wrapper.AttachPlugin(plugin); err != nil {
			log.Fatal(err)
		}
	}

	if *rmqHost != "" {
		plugin, err := audit.NewPlugin(audit.Config{
			Host:     *rmqHost,
			VHost:    "/",
			Exchange: "netrt.audit",
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := wrapper.AttachPlugin(plugin); err != nil {
			log.Fatal(err)
		}
	}

	if err := wrapper.Start(); err != nil {
		log.Fatal(err)
	}

	admin, err := web.NewAdminServer(*adminHost, false, wrapper)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := admin.Run(); err != nil {
			log.Error("admin http server stopped: %v", err)
		}
	}()

	// Update is the caller's polling hook: nothing inside the wrapper
	// ticks plugins on its own, so the reactor quantum is this ticker.
	pollStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-pollStop:
				return
			case <-ticker.C:
				if !wrapper.Update() {
					log.Warn("server reported unhealthy on poll")
				}
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Debug("received signal: %v", sig)

	close(pollStop)
	admin.Stop()
	wrapper.Stop()
	time.Sleep(100 * time.Millisecond)
}
