package nw

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Connection is one peer's server-side handle: a stable ClientID and
// Endpoint, an opaque user-data slot, and a fixed health/run state
// machine. healthy implies running implies connected, matching the
// teacher's ConnContext fields generalised with an explicit state
// machine gnet previously owned for it.
type Connection interface {
	ID() ClientID
	Endpoint() Endpoint
	UserData() any
	SetUserData(v any)
	IsConnected() bool
	IsRunning() bool
	IsHealthy() bool
	Send(data []byte) error
	// RequestStop clears the running/healthy flags without tearing the
	// socket down; a distinct operation from Close per spec.md §9.
	RequestStop()
	Close() error
}

type connState struct {
	connected atomic.Bool
	running   atomic.Bool
	healthy   atomic.Bool
}

func (s *connState) markConnected() {
	s.connected.Store(true)
	s.running.Store(true)
	s.healthy.Store(true)
}

func (s *connState) markUnhealthy() {
	s.healthy.Store(false)
}

func (s *connState) requestStop() {
	s.running.Store(false)
	s.healthy.Store(false)
}

func (s *connState) markClosed() {
	s.connected.Store(false)
	s.running.Store(false)
	s.healthy.Store(false)
}

// streamConnection owns a single net.Conn (or *websocket.Conn wrapped
// behind streamSocket) and runs its own read loop, grounded on
// nw/io_tcp_sess.go's per-session goroutine shape.
type streamConnection struct {
	id       ClientID
	endpoint Endpoint
	sock     streamSocket
	capacity int
	state    connState
	udMu     sync.Mutex
	userData any

	// notifyUnhealthy and notifyServerUnhealthy are the two weak
	// back-references spec.md §9 describes: a connection-fatal send
	// error pushes this connection onto the server's unhealthy queue,
	// a server-fatal one flips the server's own health flag. Either may
	// be nil (e.g. in tests that construct a connection directly).
	notifyUnhealthy       func(id ClientID, err error)
	notifyServerUnhealthy func()
}

// streamSocket abstracts the two stream dialects (raw TCP, WebSocket)
// behind one read/write contract so streamConnection need not care which
// one it was handed.
type streamSocket interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
	RemoteAddr() net.Addr
}

func newStreamConnection(id ClientID, sock streamSocket, capacity int, notifyUnhealthy func(ClientID, error), notifyServerUnhealthy func()) *streamConnection {
	c := &streamConnection{
		id:                    id,
		endpoint:              Endpoint(sock.RemoteAddr().String()),
		sock:                  sock,
		capacity:              capacity,
		notifyUnhealthy:       notifyUnhealthy,
		notifyServerUnhealthy: notifyServerUnhealthy,
	}
	c.state.markConnected()
	return c
}

func (this_ *streamConnection) ID() ClientID         { return this_.id }
func (this_ *streamConnection) Endpoint() Endpoint   { return this_.endpoint }
func (this_ *streamConnection) IsConnected() bool    { return this_.state.connected.Load() }
func (this_ *streamConnection) IsRunning() bool      { return this_.state.running.Load() }
func (this_ *streamConnection) IsHealthy() bool      { return this_.state.healthy.Load() }
func (this_ *streamConnection) RequestStop()         { this_.state.requestStop() }

func (this_ *streamConnection) UserData() any {
	this_.udMu.Lock()
	defer this_.udMu.Unlock()
	return this_.userData
}

func (this_ *streamConnection) SetUserData(v any) {
	this_.udMu.Lock()
	this_.userData = v
	this_.udMu.Unlock()
}

func (this_ *streamConnection) Send(data []byte) error {
	if !this_.state.healthy.Load() {
		return ErrNotConnected
	}
	if len(data) == 0 || len(data) > this_.capacity {
		return ErrInvalidSize
	}

	err := this_.sock.Write(data)
	if err != nil {
		switch ClassifyError(err) {
		case TierConnectionFatal:
			this_.state.markUnhealthy()
			if this_.notifyUnhealthy != nil {
				this_.notifyUnhealthy(this_.id, err)
			}
		case TierServerFatal:
			if this_.notifyServerUnhealthy != nil {
				this_.notifyServerUnhealthy()
			}
		}
	}
	return err
}

func (this_ *streamConnection) Close() error {
	this_.state.markClosed()
	return this_.sock.Close()
}

// rawTCPSocket implements streamSocket over net.Conn using fixed-size
// reads into a capacity-bounded buffer (no framing, per spec.md's
// explicit non-goal).
type rawTCPSocket struct {
	conn net.Conn
	cap  int
}

func (this_ *rawTCPSocket) Read() ([]byte, error) {
	buf := make([]byte, this_.cap)
	n, err := this_.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (this_ *rawTCPSocket) Write(data []byte) error {
	_, err := this_.conn.Write(data)
	return err
}

func (this_ *rawTCPSocket) Close() error         { return this_.conn.Close() }
func (this_ *rawTCPSocket) RemoteAddr() net.Addr { return this_.conn.RemoteAddr() }

// wsSocket implements streamSocket over a *websocket.Conn, grounded on
// nw/io_ws_sess.go, treating each binary message as one opaque span.
type wsSocket struct {
	conn *websocket.Conn
}

func (this_ *wsSocket) Read() ([]byte, error) {
	_, data, err := this_.conn.ReadMessage()
	return data, err
}

func (this_ *wsSocket) Write(data []byte) error {
	return this_.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (this_ *wsSocket) Close() error         { return this_.conn.Close() }
func (this_ *wsSocket) RemoteAddr() net.Addr { return this_.conn.RemoteAddr() }

// datagramConnection represents one logical UDP peer. It never owns a
// socket of its own: all datagramConnections for a server share the
// single *net.UDPConn the server listens on, and the server's receive
// loop is the only reader, matching spec.md §9's note on the datagram
// registry race (lookup-then-insert under one mutex, no per-peer
// goroutine).
type datagramConnection struct {
	id       ClientID
	endpoint Endpoint
	addr     *net.UDPAddr
	conn     *net.UDPConn
	capacity int
	state    connState
	udMu     sync.Mutex
	userData any

	notifyUnhealthy       func(id ClientID, err error)
	notifyServerUnhealthy func()
}

func newDatagramConnection(id ClientID, addr *net.UDPAddr, conn *net.UDPConn, capacity int, notifyUnhealthy func(ClientID, error), notifyServerUnhealthy func()) *datagramConnection {
	c := &datagramConnection{
		id:                    id,
		endpoint:              Endpoint(addr.String()),
		addr:                  addr,
		conn:                  conn,
		capacity:              capacity,
		notifyUnhealthy:       notifyUnhealthy,
		notifyServerUnhealthy: notifyServerUnhealthy,
	}
	c.state.markConnected()
	return c
}

func (this_ *datagramConnection) ID() ClientID       { return this_.id }
func (this_ *datagramConnection) Endpoint() Endpoint { return this_.endpoint }
func (this_ *datagramConnection) IsConnected() bool  { return this_.state.connected.Load() }
func (this_ *datagramConnection) IsRunning() bool    { return this_.state.running.Load() }
func (this_ *datagramConnection) IsHealthy() bool    { return this_.state.healthy.Load() }
func (this_ *datagramConnection) RequestStop()       { this_.state.requestStop() }

func (this_ *datagramConnection) UserData() any {
	this_.udMu.Lock()
	defer this_.udMu.Unlock()
	return this_.userData
}

func (this_ *datagramConnection) SetUserData(v any) {
	this_.udMu.Lock()
	this_.userData = v
	this_.udMu.Unlock()
}

func (this_ *datagramConnection) Send(data []byte) error {
	if !this_.state.healthy.Load() {
		return ErrNotConnected
	}
	if len(data) == 0 || len(data) > this_.capacity {
		return ErrInvalidSize
	}

	_, err := this_.conn.WriteToUDP(data, this_.addr)
	if err != nil {
		switch ClassifyError(err) {
		case TierConnectionFatal:
			this_.state.markUnhealthy()
			if this_.notifyUnhealthy != nil {
				this_.notifyUnhealthy(this_.id, err)
			}
		case TierServerFatal:
			if this_.notifyServerUnhealthy != nil {
				this_.notifyServerUnhealthy()
			}
		}
	}
	return err
}

// Close marks the logical peer gone; the shared UDP socket itself is
// only closed by the server, never by an individual peer.
func (this_ *datagramConnection) Close() error {
	this_.state.markClosed()
	return nil
}
