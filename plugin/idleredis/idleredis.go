// Package idleredis is a Redis-backed variant of the idle-timeout
// reference plugin: instead of an in-process map, last-activity
// timestamps live in Redis, keyed by KeyPrefix, Instance and ClientID.
// Tick checks only the connections held in this process's own registry,
// so an instance never evicts a peer connected to another. Grounded on
// com/redis.go's client construction, switched to redis/go-redis/v9 (the
// version actually pinned in go.mod).
package idleredis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gox/netrt/nw"
)

const layerName = "idletimeout_redis"

// Config configures the Redis connection used to track activity.
type Config struct {
	Addr         string
	Username     string
	Password     string
	KeyPrefix    string
	Timeout      time.Duration
	Instance     string
}

// ServerPlugin mirrors idletimeout.ServerPlugin but stores timestamps in
// Redis under KeyPrefix:<instance>:<clientID>.
type ServerPlugin struct {
	cfg     Config
	client  *redis.Client
	wrapper *nw.ServerWrapper
}

// NewServerPlugin dials Redis and returns a plugin ready to attach.
func NewServerPlugin(cfg Config) (*ServerPlugin, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "netrt:idle"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &ServerPlugin{cfg: cfg, client: client}, nil
}

func (this_ *ServerPlugin) Name() string { return layerName }

func (this_ *ServerPlugin) key(id nw.ClientID) string {
	return fmt.Sprintf("%s:%s:%d", this_.cfg.KeyPrefix, this_.cfg.Instance, id)
}

func (this_ *ServerPlugin) OnAttach(w *nw.ServerWrapper) error {
	this_.wrapper = w

	w.Register().SetLayer(layerName, &nw.ServerCallbacks{
		OnConnection: func(_ nw.Server, id nw.ClientID, _ nw.Endpoint) { this_.touch(id) },
		OnReceive:    func(_ nw.Server, id nw.ClientID, _ nw.Endpoint, _ *nw.Buffer) { this_.touch(id) },
		OnDisconnect: func(_ nw.Server, id nw.ClientID, _ nw.Endpoint, _ error) { this_.forget(id) },
	}, true)

	return nil
}

func (this_ *ServerPlugin) OnDetach() {
	this_.wrapper.Register().RemoveLayer(layerName)
	this_.client.Close()
}

func (this_ *ServerPlugin) touch(id nw.ClientID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	this_.client.Set(ctx, this_.key(id), time.Now().Unix(), this_.cfg.Timeout*2)
}

func (this_ *ServerPlugin) forget(id nw.ClientID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	this_.client.Del(ctx, this_.key(id))
}

// Tick scans every connection currently held by the wrapper's registry
// and evicts the ones whose Redis timestamp has expired or gone stale.
func (this_ *ServerPlugin) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var expired []nw.ClientID
	this_.wrapper.Registry().Range(func(c nw.Connection) bool {
		v, err := this_.client.Get(ctx, this_.key(c.ID())).Int64()
		if err != nil {
			expired = append(expired, c.ID())
			return true
		}
		if time.Since(time.Unix(v, 0)) > this_.cfg.Timeout {
			expired = append(expired, c.ID())
		}
		return true
	})

	for _, id := range expired {
		this_.wrapper.Disconnect(id)
	}
}

func (this_ *ServerPlugin) RequiresConnection() bool { return true }
