package nw

// Server is the common surface StreamServer and DatagramServer both
// satisfy; ServerWrapper is built against this interface so it never
// needs to know which transport it wraps.
type Server interface {
	Start() error
	Stop()
	Send(id ClientID, data []byte) error
	SendByEndpoint(ep Endpoint, data []byte) error
	Disconnect(id ClientID)
	DisconnectByEndpoint(ep Endpoint)
	Register() *ServerRegister
	Registry() *ConnectionRegistry
	IsRunning() bool
	IsHealthy() bool
	RequestStop()
}

// Client is the common surface StreamClient and DatagramClient both
// satisfy.
type Client interface {
	Connect() error
	Disconnect()
	Send(data []byte) error
	Register() *ClientRegister
	IsConnected() bool
	IsRunning() bool
	IsHealthy() bool
	RequestStop()
}

// ServerWrapper is the facade spec.md §4.6 describes: it installs a
// default trace-only callback layer over whichever Server it wraps and
// owns that server's PluginManager. Grounded on nw.Service, which glued
// tcpServer/wsServer and IServiceEvent together the same way.
type ServerWrapper struct {
	srv     Server
	plugins *ServerPluginManager
}

// NewServerWrapper wraps srv, installing the default callback layer
// (trace info for lifecycle events, trace error for *_error events) and
// an (initially empty) plugin manager. Plugins only run when the caller
// drives Update(); there is no background ticker.
func NewServerWrapper(srv Server, tracer Tracer) *ServerWrapper {
	t := traceOf(tracer)
	w := &ServerWrapper{srv: srv}

	srv.Register().SetLayer(DefaultLayerName, &ServerCallbacks{
		OnStart:      func(_ Server) { t.Info("server started") },
		OnStartError: func(err error) { t.Error("server start failed: %v", err) },
		OnStop:       func() { t.Info("server stopped") },
		OnStopError:  func(err error) { t.Error("server stop failed: %v", err) },
		OnConnection: func(_ Server, id ClientID, ep Endpoint) { t.Info("connected %d:%s", id, ep) },
		OnConnectionError: func(_ Server, err error) { t.Error("accept failed: %v", err) },
		OnDisconnect: func(_ Server, id ClientID, ep Endpoint, err error) {
			t.Info("disconnected %d:%s: %v", id, ep, err)
		},
		OnDisconnectionError: func(_ Server, id ClientID, ep Endpoint, err error) {
			t.Error("disconnect failed %d:%s: %v", id, ep, err)
		},
		OnReceiveError: func(_ Server, id ClientID, ep Endpoint, err error) {
			t.Error("receive error %d:%s: %v", id, ep, err)
		},
		OnSendError: func(_ Server, id ClientID, ep Endpoint, err error) {
			t.Error("send error %d:%s: %v", id, ep, err)
		},
	}, false)

	w.plugins = newServerPluginManager(w)
	return w
}

func (this_ *ServerWrapper) Start() error                       { return this_.srv.Start() }
func (this_ *ServerWrapper) Send(id ClientID, data []byte) error { return this_.srv.Send(id, data) }
func (this_ *ServerWrapper) SendByEndpoint(ep Endpoint, data []byte) error {
	return this_.srv.SendByEndpoint(ep, data)
}
func (this_ *ServerWrapper) Disconnect(id ClientID) { this_.srv.Disconnect(id) }
func (this_ *ServerWrapper) DisconnectByEndpoint(ep Endpoint) {
	this_.srv.DisconnectByEndpoint(ep)
}
func (this_ *ServerWrapper) Register() *ServerRegister     { return this_.srv.Register() }
func (this_ *ServerWrapper) Registry() *ConnectionRegistry { return this_.srv.Registry() }
func (this_ *ServerWrapper) IsRunning() bool               { return this_.srv.IsRunning() }
func (this_ *ServerWrapper) IsHealthy() bool               { return this_.srv.IsHealthy() }
func (this_ *ServerWrapper) RequestStop()                  { this_.srv.RequestStop() }

// Update runs one plugin tick and returns the wrapped server's current
// health. This is the caller's polling hook per spec.md §4.6: nothing
// inside the wrapper ticks plugins on its own, so a caller that stops
// calling Update simply stops plugin work, and a caller driving its own
// reactor loop can observe request_stop() taking effect by checking
// Update()'s return value each quantum.
func (this_ *ServerWrapper) Update() bool {
	this_.plugins.tick()
	return this_.srv.IsHealthy()
}

// Stop tears the server down and detaches every attached plugin.
func (this_ *ServerWrapper) Stop() {
	this_.plugins.detachAll()
	this_.srv.Stop()
}

// AttachPlugin installs p, giving it the chance to add its own callback
// layer via OnAttach.
func (this_ *ServerWrapper) AttachPlugin(p ServerPlugin) error {
	return this_.plugins.Attach(p)
}

// DetachPlugin removes a previously attached plugin by name.
func (this_ *ServerWrapper) DetachPlugin(name string) error {
	return this_.plugins.Detach(name)
}

// ClientWrapper mirrors ServerWrapper for the unwrapped client side.
type ClientWrapper struct {
	cli     Client
	plugins *ClientPluginManager
}

func NewClientWrapper(cli Client, tracer Tracer) *ClientWrapper {
	t := traceOf(tracer)
	w := &ClientWrapper{cli: cli}

	cli.Register().SetLayer(DefaultLayerName, &ClientCallbacks{
		OnConnect:         func(_ Client) { t.Info("connected") },
		OnDisconnect:      func(err error) { t.Info("disconnected: %v", err) },
		OnDisconnectError: func(err error) { t.Error("disconnect failed: %v", err) },
		OnReceiveError:    func(_ Client, err error) { t.Error("receive error: %v", err) },
		OnSendError:       func(_ Client, err error) { t.Error("send error: %v", err) },
	}, false)

	w.plugins = newClientPluginManager(w)
	return w
}

func (this_ *ClientWrapper) Connect() error            { return this_.cli.Connect() }
func (this_ *ClientWrapper) Send(data []byte) error    { return this_.cli.Send(data) }
func (this_ *ClientWrapper) Register() *ClientRegister { return this_.cli.Register() }
func (this_ *ClientWrapper) IsConnected() bool         { return this_.cli.IsConnected() }
func (this_ *ClientWrapper) IsRunning() bool           { return this_.cli.IsRunning() }
func (this_ *ClientWrapper) IsHealthy() bool           { return this_.cli.IsHealthy() }
func (this_ *ClientWrapper) RequestStop()              { this_.cli.RequestStop() }

// Update runs one plugin tick and returns the wrapped client's current
// health, mirroring ServerWrapper.Update.
func (this_ *ClientWrapper) Update() bool {
	this_.plugins.tick()
	return this_.cli.IsHealthy()
}

func (this_ *ClientWrapper) Disconnect() {
	this_.plugins.detachAll()
	this_.cli.Disconnect()
}

func (this_ *ClientWrapper) AttachPlugin(p ClientPlugin) error {
	return this_.plugins.Attach(p)
}

func (this_ *ClientWrapper) DetachPlugin(name string) error {
	return this_.plugins.Detach(name)
}
