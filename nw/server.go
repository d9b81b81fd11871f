package nw

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// baseServer holds everything common to StreamServer and DatagramServer:
// the registry, unhealthy queue and reaper, callback register, and the
// run/health flags, per spec.md §4.4. Grounded on nw/io_server.go's
// IoServer, split from "one listener per protocol, both always on" into
// "one server instance is one protocol", matching the rest of this
// package's per-transport types.
type baseServer struct {
	cfg      *Config
	tracer   Tracer
	registry *ConnectionRegistry
	queue    *UnhealthyQueue
	reap     *reaper
	register *ServerRegister

	running atomic.Bool
	healthy atomic.Bool
	wg      sync.WaitGroup
}

func newBaseServer(cfg *Config, tracer Tracer, sharable func() Server) *baseServer {
	c := cfg.withDefaults()
	b := &baseServer{
		cfg:      c,
		tracer:   newLeveledTracer(c.LogLevel, traceOf(tracer)),
		registry: NewConnectionRegistry(),
		queue:    NewUnhealthyQueue(),
		register: NewServerRegister(sharable),
	}
	return b
}

func (this_ *baseServer) startReaper() {
	this_.reap = newReaper(this_.queue, this_.registry, this_.evict)
}

func (this_ *baseServer) evict(id ClientID) {
	conn := this_.registry.ByID(id)
	if conn == nil {
		this_.register.fireDisconnectionError(id, "", ErrNotFound)
		return
	}
	this_.registry.Remove(id)
	err := conn.Close()
	this_.register.fireDisconnect(id, conn.Endpoint(), err)
}

// markUnhealthy flags conn for eviction by the reaper. Firing the
// triggering event is the caller's responsibility, since the same
// primitive backs both a failed receive and a failed send.
func (this_ *baseServer) markUnhealthy(conn Connection) {
	conn.RequestStop()
	this_.queue.Push(conn.ID())
}

// notifierFor builds the two closures a Connection uses to report a
// send-path error back up to the owning server: one for a
// connection-fatal error (push to the unhealthy queue), one for a
// server-fatal error (flip the server's own health flag).
func (this_ *baseServer) notifierFor() (func(ClientID, error), func()) {
	return func(id ClientID, _ error) {
			if conn := this_.registry.ByID(id); conn != nil {
				this_.queue.Push(id)
			}
		}, func() {
			this_.healthy.Store(false)
		}
}

// Register returns the server's callback register for layer attachment.
func (this_ *baseServer) Register() *ServerRegister { return this_.register }

// Registry returns the connection registry for read-only inspection
// (used by the admin HTTP surface and by plugins).
func (this_ *baseServer) Registry() *ConnectionRegistry { return this_.registry }

func (this_ *baseServer) IsRunning() bool { return this_.running.Load() }
func (this_ *baseServer) IsHealthy() bool { return this_.healthy.Load() }

// RequestStop clears the health flag without tearing the listener down,
// a distinct operation from Stop per spec.md §9.
func (this_ *baseServer) RequestStop() { this_.healthy.Store(false) }

func (this_ *baseServer) teardown() {
	this_.running.Store(false)
	this_.healthy.Store(false)

	if this_.reap != nil {
		this_.reap.stop()
	}

	this_.registry.Range(func(c Connection) bool {
		c.Close()
		return true
	})

	this_.register.fireStop()
	this_.register.Stop()
}

// StreamServer listens for and serves stream-oriented peers, either raw
// TCP or WebSocket depending on cfg.Dialect. Grounded on nw/io_server.go
// (tcpRun/tcpConnHandle, wsRun/wsUpgrade/wsConnHandle), generalised to a
// single dialect per instance and driven by the ServerRegister instead of
// a fixed IService interface.
type StreamServer struct {
	*baseServer
	listener net.Listener
	httpSrv  *http.Server
	upgrader websocket.Upgrader
}

func NewStreamServer(cfg *Config, tracer Tracer) *StreamServer {
	s := &StreamServer{}
	s.baseServer = newBaseServer(cfg, tracer, func() Server { return s })
	return s
}

// Addr returns the listener's actual bound address, useful when
// ListenAddr uses port 0. Returns nil before Start succeeds.
func (this_ *StreamServer) Addr() net.Addr {
	if this_.listener == nil {
		return nil
	}
	return this_.listener.Addr()
}

// Start begins listening and accepting connections in the background.
func (this_ *StreamServer) Start() error {
	if this_.running.Load() {
		return ErrAlreadyRunning
	}
	if this_.cfg.ListenAddr == "" {
		return ErrNoListenAddr
	}

	var err error
	switch this_.cfg.Dialect {
	case DialectWebSocket:
		err = this_.startWebSocket()
	default:
		err = this_.startTCP()
	}

	if err != nil {
		this_.register.fireStartError(err)
		return err
	}

	this_.startReaper()
	this_.running.Store(true)
	this_.healthy.Store(true)
	this_.register.fireStart()
	return nil
}

func (this_ *StreamServer) startTCP() error {
	ln, err := net.Listen("tcp", this_.cfg.ListenAddr)
	if err != nil {
		return err
	}
	this_.listener = ln

	this_.wg.Add(1)
	go this_.acceptLoop()
	return nil
}

func (this_ *StreamServer) startWebSocket() error {
	this_.upgrader = websocket.Upgrader{
		ReadBufferSize:  this_.cfg.BufferCapacity,
		WriteBufferSize: this_.cfg.BufferCapacity,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", this_.handleWSUpgrade)

	ln, err := net.Listen("tcp", this_.cfg.ListenAddr)
	if err != nil {
		return err
	}
	this_.listener = ln
	this_.httpSrv = &http.Server{Handler: mux}

	this_.wg.Add(1)
	go func() {
		defer this_.wg.Done()
		err := this_.httpSrv.Serve(ln)
		if err != nil && !this_.isShuttingDown(err) {
			this_.register.fireStartError(err)
		}
	}()
	return nil
}

func (this_ *StreamServer) isShuttingDown(err error) bool {
	return !this_.running.Load() || IsClosedErr(err)
}

func (this_ *StreamServer) handleWSUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := this_.upgrader.Upgrade(w, r, nil)
	if err != nil {
		this_.tracer.Warn("websocket upgrade failed: %v", err)
		return
	}
	this_.adopt(&wsSocket{conn: conn})
}

func (this_ *StreamServer) acceptLoop() {
	defer this_.wg.Done()

	for this_.healthy.Load() {
		conn, err := this_.listener.Accept()
		if err != nil {
			if !this_.running.Load() {
				return
			}
			this_.register.fireConnectionError(err)
			if ClassifyError(err) == TierServerFatal {
				go this_.Stop()
				return
			}
			continue
		}

		if !this_.healthy.Load() {
			conn.Close()
			return
		}

		if this_.registry.Count() >= this_.cfg.MaxConnections {
			conn.Close()
			continue
		}

		this_.adopt(&rawTCPSocket{conn: conn, cap: this_.cfg.BufferCapacity})
	}
}

func (this_ *StreamServer) adopt(sock streamSocket) {
	notifyUnhealthy, notifyServerUnhealthy := this_.notifierFor()
	conn := this_.registry.Add(func(id ClientID) Connection {
		return newStreamConnection(id, sock, this_.cfg.BufferCapacity, notifyUnhealthy, notifyServerUnhealthy)
	})
	if conn == nil {
		sock.Close()
		return
	}

	this_.register.fireConnection(conn.ID(), conn.Endpoint())

	this_.wg.Add(1)
	go this_.readLoop(conn.(*streamConnection))
}

func (this_ *StreamServer) readLoop(conn *streamConnection) {
	defer this_.wg.Done()

	for conn.IsRunning() {
		data, err := conn.sock.Read()
		if err != nil {
			switch ClassifyError(err) {
			case TierServerFatal:
				this_.register.fireReceiveError(conn.ID(), conn.Endpoint(), err)
				go this_.Stop()
				return
			case TierConnectionFatal:
				this_.register.fireReceiveError(conn.ID(), conn.Endpoint(), err)
				this_.markUnhealthy(conn)
				return
			default:
				this_.register.fireReceiveError(conn.ID(), conn.Endpoint(), err)
				continue
			}
		}

		buf, err := NewBufferFrom(this_.cfg.BufferCapacity, data)
		if err != nil {
			this_.register.fireReceiveError(conn.ID(), conn.Endpoint(), err)
			continue
		}
		this_.register.fireReceive(conn.ID(), conn.Endpoint(), buf)
	}
}

// Send writes data to the connection identified by id.
func (this_ *StreamServer) Send(id ClientID, data []byte) error {
	conn := this_.registry.ByID(id)
	if conn == nil {
		this_.register.fireSendError(id, "", ErrNotFound)
		return ErrNotFound
	}
	return this_.sendTo(conn, data)
}

// SendByEndpoint writes data to the connection registered under ep.
func (this_ *StreamServer) SendByEndpoint(ep Endpoint, data []byte) error {
	conn := this_.registry.ByEndpoint(ep)
	if conn == nil {
		this_.register.fireSendError(InvalidClientID, ep, ErrNotFound)
		return ErrNotFound
	}
	return this_.sendTo(conn, data)
}

func (this_ *StreamServer) sendTo(conn Connection, data []byte) error {
	err := conn.Send(data)
	if err != nil {
		this_.register.fireSendError(conn.ID(), conn.Endpoint(), err)
		return err
	}
	this_.register.fireSent(conn.ID(), conn.Endpoint(), len(data))
	return nil
}

// Disconnect evicts a single connection without stopping the server.
func (this_ *StreamServer) Disconnect(id ClientID) {
	if this_.registry.ByID(id) == nil {
		this_.register.fireDisconnectionError(id, "", ErrNotFound)
		return
	}
	this_.queue.Push(id)
}

// DisconnectByEndpoint evicts the connection registered under ep.
func (this_ *StreamServer) DisconnectByEndpoint(ep Endpoint) {
	conn := this_.registry.ByEndpoint(ep)
	if conn == nil {
		this_.register.fireDisconnectionError(InvalidClientID, ep, ErrNotFound)
		return
	}
	this_.queue.Push(conn.ID())
}

// Stop closes the listener, every connection, and the worker pool, then
// waits for all background goroutines to finish. Calling Stop a second
// time is a no-op that fires on_stop_error instead of on_stop_success.
func (this_ *StreamServer) Stop() {
	if !this_.running.CompareAndSwap(true, false) {
		this_.register.fireStopError(ErrNotRunning)
		return
	}

	if this_.listener != nil {
		this_.listener.Close()
	}
	if this_.httpSrv != nil {
		this_.httpSrv.Close()
	}

	this_.teardown()
	this_.wg.Wait()
}

// DatagramServer listens for UDP peers, generalising the Protocol_UDP
// the teacher declared in nw/service.go but never implemented. Every
// peer is a logical Connection sharing the one underlying *net.UDPConn;
// there is no per-peer goroutine or socket.
type DatagramServer struct {
	*baseServer
	conn *net.UDPConn
}

func NewDatagramServer(cfg *Config, tracer Tracer) *DatagramServer {
	s := &DatagramServer{}
	s.baseServer = newBaseServer(cfg, tracer, func() Server { return s })
	return s
}

// Addr returns the socket's actual bound address, useful when
// ListenAddr uses port 0. Returns nil before Start succeeds.
func (this_ *DatagramServer) Addr() net.Addr {
	if this_.conn == nil {
		return nil
	}
	return this_.conn.LocalAddr()
}

func (this_ *DatagramServer) Start() error {
	if this_.running.Load() {
		return ErrAlreadyRunning
	}
	if this_.cfg.ListenAddr == "" {
		return ErrNoListenAddr
	}

	addr, err := net.ResolveUDPAddr("udp", this_.cfg.ListenAddr)
	if err != nil {
		this_.register.fireStartError(err)
		return err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		this_.register.fireStartError(err)
		return err
	}
	this_.conn = conn

	this_.startReaper()
	this_.running.Store(true)
	this_.healthy.Store(true)
	this_.register.fireStart()

	this_.wg.Add(1)
	go this_.recvLoop()
	return nil
}

func (this_ *DatagramServer) recvLoop() {
	defer this_.wg.Done()

	buf := make([]byte, this_.cfg.BufferCapacity)
	notifyUnhealthy, notifyServerUnhealthy := this_.notifierFor()

	for this_.healthy.Load() {
		n, addr, err := this_.conn.ReadFromUDP(buf)
		if err != nil {
			if !this_.running.Load() {
				return
			}
			this_.register.fireConnectionError(err)
			if ClassifyError(err) == TierServerFatal {
				go this_.Stop()
				return
			}
			continue
		}

		if !this_.healthy.Load() {
			return
		}

		ep := Endpoint(addr.String())
		connAny, isNew := this_.registry.LookupOrAdd(ep, func(id ClientID) Connection {
			return newDatagramConnection(id, addr, this_.conn, this_.cfg.BufferCapacity, notifyUnhealthy, notifyServerUnhealthy)
		})
		if connAny == nil {
			continue
		}

		if isNew {
			this_.register.fireConnection(connAny.ID(), connAny.Endpoint())
		}

		out, err := NewBufferFrom(this_.cfg.BufferCapacity, buf[:n])
		if err != nil {
			this_.register.fireReceiveError(connAny.ID(), connAny.Endpoint(), err)
			continue
		}
		this_.register.fireReceive(connAny.ID(), connAny.Endpoint(), out)
	}
}

// Send writes data to the peer identified by id.
func (this_ *DatagramServer) Send(id ClientID, data []byte) error {
	conn := this_.registry.ByID(id)
	if conn == nil {
		this_.register.fireSendError(id, "", ErrNotFound)
		return ErrNotFound
	}
	return this_.sendTo(conn, data)
}

// SendByEndpoint writes data to the peer registered under ep.
func (this_ *DatagramServer) SendByEndpoint(ep Endpoint, data []byte) error {
	conn := this_.registry.ByEndpoint(ep)
	if conn == nil {
		this_.register.fireSendError(InvalidClientID, ep, ErrNotFound)
		return ErrNotFound
	}
	return this_.sendTo(conn, data)
}

func (this_ *DatagramServer) sendTo(conn Connection, data []byte) error {
	err := conn.Send(data)
	if err != nil {
		this_.register.fireSendError(conn.ID(), conn.Endpoint(), err)
		return err
	}
	this_.register.fireSent(conn.ID(), conn.Endpoint(), len(data))
	return nil
}

// Disconnect forgets a logical peer; it may reappear on its next packet.
func (this_ *DatagramServer) Disconnect(id ClientID) {
	if this_.registry.ByID(id) == nil {
		this_.register.fireDisconnectionError(id, "", ErrNotFound)
		return
	}
	this_.queue.Push(id)
}

// DisconnectByEndpoint forgets the peer registered under ep.
func (this_ *DatagramServer) DisconnectByEndpoint(ep Endpoint) {
	conn := this_.registry.ByEndpoint(ep)
	if conn == nil {
		this_.register.fireDisconnectionError(InvalidClientID, ep, ErrNotFound)
		return
	}
	this_.queue.Push(conn.ID())
}

func (this_ *DatagramServer) Stop() {
	if !this_.running.CompareAndSwap(true, false) {
		this_.register.fireStopError(ErrNotRunning)
		return
	}

	if this_.conn != nil {
		this_.conn.Close()
	}

	this_.teardown()
	this_.wg.Wait()
}
