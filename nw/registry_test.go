package nw

import (
	"sync"
	"testing"
)

type fakeConn struct {
	id ClientID
	ep Endpoint
}

func (f *fakeConn) ID() ClientID       { return f.id }
func (f *fakeConn) Endpoint() Endpoint { return f.ep }
func (f *fakeConn) UserData() any      { return nil }
func (f *fakeConn) SetUserData(any)    {}
func (f *fakeConn) IsConnected() bool  { return true }
func (f *fakeConn) IsRunning() bool    { return true }
func (f *fakeConn) IsHealthy() bool    { return true }
func (f *fakeConn) Send([]byte) error  { return nil }
func (f *fakeConn) RequestStop()       {}
func (f *fakeConn) Close() error       { return nil }

func TestRegistryAddLookupRemove(t *testing.T) {
	r := NewConnectionRegistry()

	ep := Endpoint("127.0.0.1:1234")
	conn := r.Add(func(id ClientID) Connection { return &fakeConn{id: id, ep: ep} })
	if conn == nil {
		t.Fatal("Add returned nil")
	}

	if r.ByID(conn.ID()) != conn {
		t.Fatal("ByID did not return the added connection")
	}
	if r.ByEndpoint(ep) != conn {
		t.Fatal("ByEndpoint did not return the added connection")
	}
	if r.Count() != 1 {
		t.Fatalf("expected count 1, got %d", r.Count())
	}

	r.Remove(conn.ID())
	if r.ByID(conn.ID()) != nil {
		t.Fatal("connection still resolvable by id after Remove")
	}
	if r.ByEndpoint(ep) != nil {
		t.Fatal("connection still resolvable by endpoint after Remove")
	}
	if r.Count() != 0 {
		t.Fatalf("expected count 0 after remove, got %d", r.Count())
	}
}

func TestRegistryLookupOrAddAtomicity(t *testing.T) {
	r := NewConnectionRegistry()
	ep := Endpoint("10.0.0.1:5000")

	builds := 0
	build := func(id ClientID) Connection {
		builds++
		return &fakeConn{id: id, ep: ep}
	}

	first, isNew := r.LookupOrAdd(ep, build)
	if !isNew {
		t.Fatal("expected first LookupOrAdd to report isNew=true")
	}

	second, isNew2 := r.LookupOrAdd(ep, build)
	if isNew2 {
		t.Fatal("expected second LookupOrAdd to report isNew=false")
	}
	if first != second {
		t.Fatal("LookupOrAdd returned a different connection for the same endpoint")
	}
	if builds != 1 {
		t.Fatalf("build should only run once, ran %d times", builds)
	}
}

func TestRegistryConcurrentAddUniqueIDs(t *testing.T) {
	r := NewConnectionRegistry()

	var wg sync.WaitGroup
	ids := make(chan ClientID, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ep := Endpoint("peer-" + string(rune('a'+i%26)) + string(rune(i)))
			conn := r.Add(func(id ClientID) Connection {
				return &fakeConn{id: id, ep: ep}
			})
			if conn != nil {
				ids <- conn.ID()
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[ClientID]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d handed out under concurrent Add", id)
		}
		seen[id] = true
	}
}
