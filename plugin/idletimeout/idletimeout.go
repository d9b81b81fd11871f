// Package idletimeout is the reference plugin spec.md §4.5 describes:
// it disconnects a peer once it has produced no traffic for a configured
// duration. A server-side variant tracks one timestamp per ClientID; a
// client-side variant tracks the single outbound connection.
package idletimeout

import (
	"sync"
	"time"

	"github.com/gox/netrt/nw"
)

const layerName = "idletimeout"

// ServerPlugin evicts any peer that has been silent for longer than
// Timeout. Attach it to a ServerWrapper with AttachPlugin.
type ServerPlugin struct {
	Timeout time.Duration

	mu       sync.Mutex
	lastSeen map[nw.ClientID]time.Time
	wrapper  *nw.ServerWrapper
}

func NewServerPlugin(timeout time.Duration) *ServerPlugin {
	return &ServerPlugin{
		Timeout:  timeout,
		lastSeen: make(map[nw.ClientID]time.Time),
	}
}

func (this_ *ServerPlugin) Name() string { return layerName }

func (this_ *ServerPlugin) OnAttach(w *nw.ServerWrapper) error {
	this_.wrapper = w

	w.Register().SetLayer(layerName, &nw.ServerCallbacks{
		OnConnection: func(_ nw.Server, id nw.ClientID, _ nw.Endpoint) { this_.touch(id) },
		OnReceive:    func(_ nw.Server, id nw.ClientID, _ nw.Endpoint, _ *nw.Buffer) { this_.touch(id) },
		OnDisconnect: func(_ nw.Server, id nw.ClientID, _ nw.Endpoint, _ error) { this_.forget(id) },
	}, false)

	return nil
}

func (this_ *ServerPlugin) OnDetach() {
	this_.wrapper.Register().RemoveLayer(layerName)
}

func (this_ *ServerPlugin) touch(id nw.ClientID) {
	this_.mu.Lock()
	this_.lastSeen[id] = time.Now()
	this_.mu.Unlock()
}

func (this_ *ServerPlugin) forget(id nw.ClientID) {
	this_.mu.Lock()
	delete(this_.lastSeen, id)
	this_.mu.Unlock()
}

// Tick disconnects every peer whose last activity is older than Timeout.
func (this_ *ServerPlugin) Tick() {
	now := time.Now()

	this_.mu.Lock()
	var expired []nw.ClientID
	for id, seen := range this_.lastSeen {
		if now.Sub(seen) > this_.Timeout {
			expired = append(expired, id)
		}
	}
	this_.mu.Unlock()

	for _, id := range expired {
		this_.wrapper.Disconnect(id)
	}
}

func (this_ *ServerPlugin) RequiresConnection() bool { return true }

// ClientPlugin disconnects the single outbound connection once it has
// been idle for Timeout.
type ClientPlugin struct {
	Timeout time.Duration

	mu      sync.Mutex
	lastSeen time.Time
	wrapper *nw.ClientWrapper
}

func NewClientPlugin(timeout time.Duration) *ClientPlugin {
	return &ClientPlugin{Timeout: timeout}
}

func (this_ *ClientPlugin) Name() string { return layerName }

func (this_ *ClientPlugin) OnAttach(w *nw.ClientWrapper) error {
	this_.wrapper = w
	this_.touch()

	w.Register().SetLayer(layerName, &nw.ClientCallbacks{
		OnConnect: func(_ nw.Client) { this_.touch() },
		OnReceive: func(_ nw.Client, _ *nw.Buffer) { this_.touch() },
	}, false)

	return nil
}

func (this_ *ClientPlugin) OnDetach() {
	this_.wrapper.Register().RemoveLayer(layerName)
}

func (this_ *ClientPlugin) touch() {
	this_.mu.Lock()
	this_.lastSeen = time.Now()
	this_.mu.Unlock()
}

func (this_ *ClientPlugin) Tick() {
	this_.mu.Lock()
	idle := time.Since(this_.lastSeen)
	this_.mu.Unlock()

	if idle > this_.Timeout {
		this_.wrapper.Disconnect()
	}
}

func (this_ *ClientPlugin) RequiresConnection() bool { return true }
