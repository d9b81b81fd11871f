package nw

import "sync"

// DefaultLayerName is the reserved layer name every register starts
// with, installed by the wrapper with trace-only handlers.
const DefaultLayerName = "__default_layer__"

// ServerCallbacks is one named layer's full set of server-side event
// handlers. Any field left nil is simply skipped during dispatch.
// Generalised from nw's IService/IServiceEvent interfaces into a plain
// struct of named funcs, matching the teacher's preference for concrete
// types over reflection-driven dispatch.
//
// Per spec.md §4.1, most events are "sharable": the dispatch prepends
// the owning Server itself as the callback's first argument, letting a
// handler call back into the API (e.g. reply from inside on_receive).
// Events that fire only once the server is already torn down or
// stopping (on_stop_success, on_stop_error) are not sharable — there is
// no live server left to hand back.
type ServerCallbacks struct {
	OnStart             func(self Server)
	OnStartError        func(err error)
	OnStop              func()
	OnStopError         func(err error)
	OnConnection        func(self Server, id ClientID, ep Endpoint)
	OnConnectionError   func(self Server, err error)
	OnDisconnect        func(self Server, id ClientID, ep Endpoint, err error)
	OnDisconnectionError func(self Server, id ClientID, ep Endpoint, err error)
	OnReceive           func(self Server, id ClientID, ep Endpoint, buf *Buffer)
	OnReceiveError      func(self Server, id ClientID, ep Endpoint, err error)
	OnSent              func(self Server, id ClientID, ep Endpoint, n int)
	OnSendError         func(self Server, id ClientID, ep Endpoint, err error)
}

// ClientCallbacks mirrors ServerCallbacks for the unwrapped client side.
// on_disconnect/on_disconnect_error are not sharable: by the time they
// fire the client has already been torn down.
type ClientCallbacks struct {
	OnConnect         func(self Client)
	OnDisconnect      func(err error)
	OnDisconnectError func(err error)
	OnReceive         func(self Client, buf *Buffer)
	OnReceiveError    func(self Client, err error)
	OnSent            func(self Client, n int)
	OnSendError       func(self Client, err error)
}

// ServerRegister holds an ordered set of named ServerCallbacks layers
// and dispatches an event to all of them under a single mutex, exactly
// as spec.md §4.1/§5 requires: snapshot-consistent iteration, async
// layers enqueued to a strict-FIFO worker pool, sync layers invoked
// inline before the mutex is released.
type ServerRegister struct {
	mu       sync.Mutex
	order    []string
	layers   map[string]*ServerCallbacks
	async    map[string]bool
	pool     *workerPool
	sharable func() Server
}

// NewServerRegister creates a register with only the default layer.
// sharable is the "sharable factory" spec.md §4.1 requires: a register
// is associated with one owner and obtains the owner's shared handle
// through this factory, called once per fire_<event> dispatch so every
// layer in that dispatch sees the same live handle. A nil factory (as
// used by tests exercising the register in isolation) simply means
// sharable callbacks receive a nil self.
func NewServerRegister(sharable func() Server) *ServerRegister {
	return &ServerRegister{
		layers:   map[string]*ServerCallbacks{DefaultLayerName: {}},
		async:    map[string]bool{DefaultLayerName: false},
		order:    []string{DefaultLayerName},
		pool:     newWorkerPool(),
		sharable: sharable,
	}
}

// SetLayer installs or replaces a named layer. async selects whether
// this layer's handlers run on the worker pool.
func (this_ *ServerRegister) SetLayer(name string, cb *ServerCallbacks, async bool) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	if _, exists := this_.layers[name]; !exists {
		this_.order = append(this_.order, name)
	}
	this_.layers[name] = cb
	this_.async[name] = async
}

// RemoveLayer detaches a named layer. The default layer cannot be removed.
func (this_ *ServerRegister) RemoveLayer(name string) {
	if name == DefaultLayerName {
		return
	}

	this_.mu.Lock()
	defer this_.mu.Unlock()

	if _, exists := this_.layers[name]; !exists {
		return
	}
	delete(this_.layers, name)
	delete(this_.async, name)
	for i, n := range this_.order {
		if n == name {
			this_.order = append(this_.order[:i], this_.order[i+1:]...)
			break
		}
	}
}

// HasLayer reports whether name is currently registered.
func (this_ *ServerRegister) HasLayer(name string) bool {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	_, ok := this_.layers[name]
	return ok
}

// Stop drains and stops the backing worker pool; call once, at server
// stop, after no more events will be dispatched.
func (this_ *ServerRegister) Stop() {
	this_.pool.stop()
}

// self obtains this dispatch's sharable handle from the factory, or nil
// if none was supplied.
func (this_ *ServerRegister) self() Server {
	if this_.sharable == nil {
		return nil
	}
	return this_.sharable()
}

func (this_ *ServerRegister) dispatch(run func(*ServerCallbacks)) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	for _, name := range this_.order {
		cb := this_.layers[name]
		if cb == nil {
			continue
		}
		if this_.async[name] {
			this_.pool.push(func() { run(cb) })
		} else {
			run(cb)
		}
	}
}

// dispatchSharable is dispatch for the sharable events: it captures the
// owner's shared handle once per fire call, before taking the mutex, and
// hands the same handle to every layer so it stays live for the whole
// dispatch, per spec.md §4.1's invariant.
func (this_ *ServerRegister) dispatchSharable(run func(*ServerCallbacks, Server)) {
	self := this_.self()

	this_.mu.Lock()
	defer this_.mu.Unlock()

	for _, name := range this_.order {
		cb := this_.layers[name]
		if cb == nil {
			continue
		}
		if this_.async[name] {
			this_.pool.push(func() { run(cb, self) })
		} else {
			run(cb, self)
		}
	}
}

func (this_ *ServerRegister) fireStart() {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnStart != nil {
			cb.OnStart(self)
		}
	})
}

func (this_ *ServerRegister) fireStartError(err error) {
	this_.dispatch(func(cb *ServerCallbacks) {
		if cb.OnStartError != nil {
			cb.OnStartError(err)
		}
	})
}

func (this_ *ServerRegister) fireStop() {
	this_.dispatch(func(cb *ServerCallbacks) {
		if cb.OnStop != nil {
			cb.OnStop()
		}
	})
}

func (this_ *ServerRegister) fireStopError(err error) {
	this_.dispatch(func(cb *ServerCallbacks) {
		if cb.OnStopError != nil {
			cb.OnStopError(err)
		}
	})
}

func (this_ *ServerRegister) fireConnectionError(err error) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnConnectionError != nil {
			cb.OnConnectionError(self, err)
		}
	})
}

func (this_ *ServerRegister) fireDisconnectionError(id ClientID, ep Endpoint, err error) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnDisconnectionError != nil {
			cb.OnDisconnectionError(self, id, ep, err)
		}
	})
}

func (this_ *ServerRegister) fireSent(id ClientID, ep Endpoint, n int) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnSent != nil {
			cb.OnSent(self, id, ep, n)
		}
	})
}

func (this_ *ServerRegister) fireConnection(id ClientID, ep Endpoint) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnConnection != nil {
			cb.OnConnection(self, id, ep)
		}
	})
}

func (this_ *ServerRegister) fireDisconnect(id ClientID, ep Endpoint, err error) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnDisconnect != nil {
			cb.OnDisconnect(self, id, ep, err)
		}
	})
}

func (this_ *ServerRegister) fireReceive(id ClientID, ep Endpoint, buf *Buffer) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnReceive != nil {
			cb.OnReceive(self, id, ep, buf)
		}
	})
}

func (this_ *ServerRegister) fireReceiveError(id ClientID, ep Endpoint, err error) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnReceiveError != nil {
			cb.OnReceiveError(self, id, ep, err)
		}
	})
}

func (this_ *ServerRegister) fireSendError(id ClientID, ep Endpoint, err error) {
	this_.dispatchSharable(func(cb *ServerCallbacks, self Server) {
		if cb.OnSendError != nil {
			cb.OnSendError(self, id, ep, err)
		}
	})
}

// ClientRegister mirrors ServerRegister for the unwrapped client side.
type ClientRegister struct {
	mu       sync.Mutex
	order    []string
	layers   map[string]*ClientCallbacks
	async    map[string]bool
	pool     *workerPool
	sharable func() Client
}

func NewClientRegister(sharable func() Client) *ClientRegister {
	return &ClientRegister{
		layers:   map[string]*ClientCallbacks{DefaultLayerName: {}},
		async:    map[string]bool{DefaultLayerName: false},
		order:    []string{DefaultLayerName},
		pool:     newWorkerPool(),
		sharable: sharable,
	}
}

func (this_ *ClientRegister) SetLayer(name string, cb *ClientCallbacks, async bool) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	if _, exists := this_.layers[name]; !exists {
		this_.order = append(this_.order, name)
	}
	this_.layers[name] = cb
	this_.async[name] = async
}

func (this_ *ClientRegister) RemoveLayer(name string) {
	if name == DefaultLayerName {
		return
	}

	this_.mu.Lock()
	defer this_.mu.Unlock()

	if _, exists := this_.layers[name]; !exists {
		return
	}
	delete(this_.layers, name)
	delete(this_.async, name)
	for i, n := range this_.order {
		if n == name {
			this_.order = append(this_.order[:i], this_.order[i+1:]...)
			break
		}
	}
}

func (this_ *ClientRegister) HasLayer(name string) bool {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	_, ok := this_.layers[name]
	return ok
}

func (this_ *ClientRegister) Stop() {
	this_.pool.stop()
}

func (this_ *ClientRegister) self() Client {
	if this_.sharable == nil {
		return nil
	}
	return this_.sharable()
}

func (this_ *ClientRegister) dispatch(run func(*ClientCallbacks)) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	for _, name := range this_.order {
		cb := this_.layers[name]
		if cb == nil {
			continue
		}
		if this_.async[name] {
			this_.pool.push(func() { run(cb) })
		} else {
			run(cb)
		}
	}
}

func (this_ *ClientRegister) dispatchSharable(run func(*ClientCallbacks, Client)) {
	self := this_.self()

	this_.mu.Lock()
	defer this_.mu.Unlock()

	for _, name := range this_.order {
		cb := this_.layers[name]
		if cb == nil {
			continue
		}
		if this_.async[name] {
			this_.pool.push(func() { run(cb, self) })
		} else {
			run(cb, self)
		}
	}
}

func (this_ *ClientRegister) fireConnect() {
	this_.dispatchSharable(func(cb *ClientCallbacks, self Client) {
		if cb.OnConnect != nil {
			cb.OnConnect(self)
		}
	})
}

func (this_ *ClientRegister) fireDisconnect(err error) {
	this_.dispatch(func(cb *ClientCallbacks) {
		if cb.OnDisconnect != nil {
			cb.OnDisconnect(err)
		}
	})
}

func (this_ *ClientRegister) fireDisconnectError(err error) {
	this_.dispatch(func(cb *ClientCallbacks) {
		if cb.OnDisconnectError != nil {
			cb.OnDisconnectError(err)
		}
	})
}

func (this_ *ClientRegister) fireSent(n int) {
	this_.dispatchSharable(func(cb *ClientCallbacks, self Client) {
		if cb.OnSent != nil {
			cb.OnSent(self, n)
		}
	})
}

func (this_ *ClientRegister) fireReceive(buf *Buffer) {
	this_.dispatchSharable(func(cb *ClientCallbacks, self Client) {
		if cb.OnReceive != nil {
			cb.OnReceive(self, buf)
		}
	})
}

func (this_ *ClientRegister) fireReceiveError(err error) {
	this_.dispatchSharable(func(cb *ClientCallbacks, self Client) {
		if cb.OnReceiveError != nil {
			cb.OnReceiveError(self, err)
		}
	})
}

func (this_ *ClientRegister) fireSendError(err error) {
	this_.dispatchSharable(func(cb *ClientCallbacks, self Client) {
		if cb.OnSendError != nil {
			cb.OnSendError(self, err)
		}
	})
}
