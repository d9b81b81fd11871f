package nw

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// baseClient holds the state common to StreamClient and DatagramClient:
// the callback register and the connected/running/healthy flags, per
// spec.md §4.2. Grounded on nw/io_tcp_client.go (TcpClient) and
// nw/io_ws_client.go (WsClient), generalised to dial over a candidate
// list (rltcpkit's Client[T] retry-over-addresses shape) instead of a
// single pre-resolved address.
type baseClient struct {
	cfg      *ClientConfig
	tracer   Tracer
	register *ClientRegister
	state    connState
}

func newBaseClient(cfg *ClientConfig, tracer Tracer, sharable func() Client) *baseClient {
	c := cfg.withDefaults()
	return &baseClient{
		cfg:      c,
		tracer:   newLeveledTracer(c.LogLevel, traceOf(tracer)),
		register: NewClientRegister(sharable),
	}
}

func (this_ *baseClient) Register() *ClientRegister { return this_.register }
func (this_ *baseClient) IsConnected() bool          { return this_.state.connected.Load() }
func (this_ *baseClient) IsRunning() bool            { return this_.state.running.Load() }
func (this_ *baseClient) IsHealthy() bool            { return this_.state.healthy.Load() }
func (this_ *baseClient) RequestStop()               { this_.state.requestStop() }

// StreamClient dials a single stream peer, TCP or WebSocket depending on
// cfg.Dialect, and runs its own read loop.
type StreamClient struct {
	*baseClient
	sock streamSocket
	wg   sync.WaitGroup
}

func NewStreamClient(cfg *ClientConfig, tracer Tracer) *StreamClient {
	c := &StreamClient{}
	c.baseClient = newBaseClient(cfg, tracer, func() Client { return c })
	return c
}

// Connect dials the first reachable candidate address, in the order
// given, failing only if every candidate is unreachable.
func (this_ *StreamClient) Connect() error {
	if this_.state.connected.Load() {
		return ErrAlreadyRunning
	}
	if len(this_.cfg.Candidates) == 0 {
		return ErrInvalidEndpoint
	}

	var lastErr error
	for _, addr := range this_.cfg.Candidates {
		sock, err := this_.dial(addr)
		if err != nil {
			lastErr = err
			continue
		}

		this_.sock = sock
		this_.state.markConnected()
		this_.register.fireConnect()

		this_.wg.Add(1)
		go this_.readLoop()
		return nil
	}

	return fmt.Errorf("connect: all candidates failed: %w", lastErr)
}

func (this_ *StreamClient) dial(addr string) (streamSocket, error) {
	switch this_.cfg.Dialect {
	case DialectWebSocket:
		conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
		if err != nil {
			return nil, err
		}
		return &wsSocket{conn: conn}, nil
	default:
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &rawTCPSocket{conn: conn, cap: this_.cfg.BufferCapacity}, nil
	}
}

func (this_ *StreamClient) readLoop() {
	defer this_.wg.Done()

	for this_.state.running.Load() {
		data, err := this_.sock.Read()
		if err != nil {
			if ClassifyError(err) == TierConnectionFatal {
				this_.handleReadError(err)
				return
			}
			this_.register.fireReceiveError(err)
			if !this_.state.healthy.Load() {
				return
			}
			continue
		}

		buf, err := NewBufferFrom(this_.cfg.BufferCapacity, data)
		if err != nil {
			this_.register.fireReceiveError(err)
			continue
		}
		this_.register.fireReceive(buf)
	}
}

func (this_ *StreamClient) handleReadError(err error) {
	this_.state.markClosed()
	this_.register.fireDisconnect(err)

	if this_.cfg.ReconnectOnDrop {
		go this_.reconnectLoop()
	}
}

// reconnectLoop retries Connect with exponential backoff, grounded on
// rltcpkit.Client's reconnect shape (other-example enrichment).
func (this_ *StreamClient) reconnectLoop() {
	backoff := 200 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for !this_.state.connected.Load() {
		time.Sleep(backoff)
		if err := this_.Connect(); err != nil {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		return
	}
}

// Send writes data to the connected peer, validated against healthy,
// non-empty and within-capacity per spec.md §4.2. A connection-fatal
// write error marks the client unhealthy.
func (this_ *StreamClient) Send(data []byte) error {
	if !this_.state.healthy.Load() {
		this_.register.fireSendError(ErrNotConnected)
		return ErrNotConnected
	}
	if len(data) == 0 || len(data) > this_.cfg.BufferCapacity {
		this_.register.fireSendError(ErrInvalidSize)
		return ErrInvalidSize
	}

	err := this_.sock.Write(data)
	if err != nil {
		this_.register.fireSendError(err)
		if ClassifyError(err) == TierConnectionFatal {
			this_.state.markUnhealthy()
		}
		return err
	}

	this_.register.fireSent(len(data))
	return nil
}

// Disconnect tears the connection down without disabling reconnection
// logic for future Connect calls.
func (this_ *StreamClient) Disconnect() {
	if !this_.state.connected.Load() {
		this_.register.fireDisconnectError(ErrNotConnected)
		return
	}
	this_.state.markClosed()
	this_.sock.Close()
	this_.wg.Wait()
}

// DatagramClient sends and receives UDP datagrams to/from a single
// configured peer.
type DatagramClient struct {
	*baseClient
	conn *net.UDPConn
	wg   sync.WaitGroup
}

func NewDatagramClient(cfg *ClientConfig, tracer Tracer) *DatagramClient {
	c := &DatagramClient{}
	c.baseClient = newBaseClient(cfg, tracer, func() Client { return c })
	return c
}

func (this_ *DatagramClient) Connect() error {
	if this_.state.connected.Load() {
		return ErrAlreadyRunning
	}
	if len(this_.cfg.Candidates) == 0 {
		return ErrInvalidEndpoint
	}

	addr, err := net.ResolveUDPAddr("udp", this_.cfg.Candidates[0])
	if err != nil {
		return err
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}

	this_.conn = conn
	this_.state.markConnected()
	this_.register.fireConnect()

	this_.wg.Add(1)
	go this_.recvLoop()
	return nil
}

func (this_ *DatagramClient) recvLoop() {
	defer this_.wg.Done()

	buf := make([]byte, this_.cfg.BufferCapacity)
	for this_.state.running.Load() {
		n, err := this_.conn.Read(buf)
		if err != nil {
			if ClassifyError(err) == TierConnectionFatal {
				this_.state.markClosed()
				this_.register.fireDisconnect(err)
				return
			}
			this_.register.fireReceiveError(err)
			if !this_.state.healthy.Load() {
				return
			}
			continue
		}

		out, err := NewBufferFrom(this_.cfg.BufferCapacity, buf[:n])
		if err != nil {
			this_.register.fireReceiveError(err)
			continue
		}
		this_.register.fireReceive(out)
	}
}

func (this_ *DatagramClient) Send(data []byte) error {
	if !this_.state.healthy.Load() {
		this_.register.fireSendError(ErrNotConnected)
		return ErrNotConnected
	}
	if len(data) == 0 || len(data) > this_.cfg.BufferCapacity {
		this_.register.fireSendError(ErrInvalidSize)
		return ErrInvalidSize
	}

	_, err := this_.conn.Write(data)
	if err != nil {
		this_.register.fireSendError(err)
		if ClassifyError(err) == TierConnectionFatal {
			this_.state.markUnhealthy()
		}
		return err
	}

	this_.register.fireSent(len(data))
	return nil
}

func (this_ *DatagramClient) Disconnect() {
	if !this_.state.connected.Load() {
		this_.register.fireDisconnectError(ErrNotConnected)
		return
	}
	this_.state.markClosed()
	this_.conn.Close()
	this_.wg.Wait()
}
