package nw

import "math"

// ClientID uniquely identifies one connection for the lifetime of the
// server (or client) that owns it. Zero is a valid id; allocation never
// hands out InvalidClientID.
type ClientID uint64

// InvalidClientID is the sentinel returned wherever no connection applies.
const InvalidClientID ClientID = math.MaxUint64

// Endpoint is a transport address in "host:port" form, the registry's
// secondary key alongside ClientID.
type Endpoint string

// idAllocator hands out ClientIDs monotonically, wrapping around to the
// first free slot below InvalidClientID once the counter would produce
// the sentinel itself.
type idAllocator struct {
	next ClientID
}

// alloc returns the next unused id, skipping InvalidClientID and any id
// already present in use (checked via inUse).
func (this_ *idAllocator) alloc(inUse func(ClientID) bool) ClientID {
	start := this_.next
	id := start

	for {
		if id != InvalidClientID && !inUse(id) {
			this_.next = id + 1
			if this_.next == InvalidClientID {
				this_.next = 0
			}
			return id
		}

		id++
		if id == InvalidClientID {
			id = 0
		}
		if id == start {
			return InvalidClientID
		}
	}
}
