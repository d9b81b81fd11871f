package nw

import "testing"

func TestIDAllocatorUniqueness(t *testing.T) {
	used := map[ClientID]bool{}
	var a idAllocator

	for i := 0; i < 1000; i++ {
		id := a.alloc(func(c ClientID) bool { return used[c] })
		if id == InvalidClientID {
			t.Fatalf("allocator exhausted unexpectedly at iteration %d", i)
		}
		if used[id] {
			t.Fatalf("allocator reused live id %d", id)
		}
		used[id] = true
	}
}

func TestIDAllocatorSkipsInvalidSentinel(t *testing.T) {
	a := idAllocator{next: InvalidClientID - 1}

	first := a.alloc(func(ClientID) bool { return false })
	if first != InvalidClientID-1 {
		t.Fatalf("expected %d, got %d", InvalidClientID-1, first)
	}

	second := a.alloc(func(ClientID) bool { return false })
	if second == InvalidClientID {
		t.Fatalf("allocator handed out the invalid sentinel")
	}
	if second != 0 {
		t.Fatalf("expected wraparound to 0, got %d", second)
	}
}

func TestIDAllocatorExhaustion(t *testing.T) {
	var a idAllocator
	id := a.alloc(func(c ClientID) bool { return c != InvalidClientID })
	if id != InvalidClientID {
		t.Fatalf("expected exhaustion sentinel, got %d", id)
	}
}
