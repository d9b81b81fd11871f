package nw

import (
	"sync"
	"testing"
	"time"
)

func TestServerRegisterDefaultLayerCannotBeRemoved(t *testing.T) {
	r := NewServerRegister(nil)
	defer r.Stop()

	if !r.HasLayer(DefaultLayerName) {
		t.Fatal("default layer missing on a fresh register")
	}

	r.RemoveLayer(DefaultLayerName)
	if !r.HasLayer(DefaultLayerName) {
		t.Fatal("default layer was removed")
	}
}

func TestServerRegisterSetAndRemoveLayer(t *testing.T) {
	r := NewServerRegister(nil)
	defer r.Stop()

	r.SetLayer("custom", &ServerCallbacks{}, false)
	if !r.HasLayer("custom") {
		t.Fatal("expected custom layer to be registered")
	}

	r.RemoveLayer("custom")
	if r.HasLayer("custom") {
		t.Fatal("expected custom layer to be removed")
	}
}

func TestServerRegisterSyncDispatchRunsAllLayers(t *testing.T) {
	r := NewServerRegister(nil)
	defer r.Stop()

	var mu sync.Mutex
	var fired []string

	r.SetLayer("a", &ServerCallbacks{
		OnConnection: func(_ Server, _ ClientID, _ Endpoint) {
			mu.Lock()
			fired = append(fired, "a")
			mu.Unlock()
		},
	}, false)
	r.SetLayer("b", &ServerCallbacks{
		OnConnection: func(_ Server, _ ClientID, _ Endpoint) {
			mu.Lock()
			fired = append(fired, "b")
			mu.Unlock()
		},
	}, false)

	r.fireConnection(1, "ep")

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 2 {
		t.Fatalf("expected both layers to fire, got %v", fired)
	}
}

func TestServerRegisterAsyncLayerPreservesFIFOOrder(t *testing.T) {
	r := NewServerRegister(nil)
	defer r.Stop()

	var mu sync.Mutex
	var order []int

	r.SetLayer("async", &ServerCallbacks{
		OnReceive: func(_ Server, id ClientID, _ Endpoint, _ *Buffer) {
			mu.Lock()
			order = append(order, int(id))
			mu.Unlock()
		},
	}, true)

	for i := 0; i < 50; i++ {
		r.fireReceive(ClientID(i), "ep", nil)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 50 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("async layer never processed all 50 events")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, id := range order {
		if id != i {
			t.Fatalf("async dispatch out of order at %d: got %d", i, id)
		}
	}
}

func TestClientRegisterDefaultLayerCannotBeRemoved(t *testing.T) {
	r := NewClientRegister(nil)
	defer r.Stop()

	r.RemoveLayer(DefaultLayerName)
	if !r.HasLayer(DefaultLayerName) {
		t.Fatal("default layer was removed")
	}
}
