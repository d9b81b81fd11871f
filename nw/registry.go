package nw

import "sync"

// ConnectionRegistry is the server's single source of truth for which
// connections exist, keyed bidirectionally by ClientID and Endpoint.
// One mutex covers both maps and the id allocator, per spec.md §5 ("a
// single mutex covering the id→connection map, the endpoint↔id map, and
// the next-id counter"). Grounded on nw/io_server.go's
// sessmap *utils.SafeMap[string, ISess], generalised to a bidirectional
// index with stable ids instead of a single address-keyed map.
type ConnectionRegistry struct {
	mu        sync.Mutex
	byID      map[ClientID]Connection
	byAddr    map[Endpoint]ClientID
	allocator idAllocator
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byID:   make(map[ClientID]Connection),
		byAddr: make(map[Endpoint]ClientID),
	}
}

// Add allocates a fresh ClientID for conn and indexes it by both id and
// the connection's own Endpoint. conn's id must already equal the
// allocated id for Connection.ID() to stay consistent, so Add takes a
// constructor instead of a finished Connection.
func (this_ *ConnectionRegistry) Add(build func(id ClientID) Connection) Connection {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	id := this_.allocator.alloc(func(c ClientID) bool {
		_, exists := this_.byID[c]
		return exists
	})
	if id == InvalidClientID {
		return nil
	}

	conn := build(id)
	this_.byID[id] = conn
	this_.byAddr[conn.Endpoint()] = id
	return conn
}

// LookupOrAdd returns the existing Connection for ep if one is already
// registered, else registers a new one via build under the same lock.
// This is the atomic lookup-then-insert spec.md §9 requires for the
// datagram registry race.
func (this_ *ConnectionRegistry) LookupOrAdd(ep Endpoint, build func(id ClientID) Connection) (conn Connection, isNew bool) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	if id, ok := this_.byAddr[ep]; ok {
		return this_.byID[id], false
	}

	id := this_.allocator.alloc(func(c ClientID) bool {
		_, exists := this_.byID[c]
		return exists
	})
	if id == InvalidClientID {
		return nil, false
	}

	conn = build(id)
	this_.byID[id] = conn
	this_.byAddr[ep] = id
	return conn, true
}

func (this_ *ConnectionRegistry) Remove(id ClientID) {
	this_.mu.Lock()
	defer this_.mu.Unlock()

	conn, ok := this_.byID[id]
	if !ok {
		return
	}
	delete(this_.byID, id)
	delete(this_.byAddr, conn.Endpoint())
}

func (this_ *ConnectionRegistry) ByID(id ClientID) Connection {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	return this_.byID[id]
}

func (this_ *ConnectionRegistry) ByEndpoint(ep Endpoint) Connection {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	if id, ok := this_.byAddr[ep]; ok {
		return this_.byID[id]
	}
	return nil
}

// Count returns the number of currently registered connections.
func (this_ *ConnectionRegistry) Count() int {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	return len(this_.byID)
}

// Range calls fn for every registered connection in an unspecified
// order, stopping early if fn returns false.
func (this_ *ConnectionRegistry) Range(fn func(Connection) bool) {
	this_.mu.Lock()
	defer this_.mu.Unlock()
	for _, c := range this_.byID {
		if !fn(c) {
			return
		}
	}
}
