package nw

import (
	"bytes"
	"testing"
)

func TestNewBufferCapacityBounds(t *testing.T) {
	if _, err := NewBuffer(0); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity for 0, got %v", err)
	}
	if _, err := NewBuffer(MaxBufferCapacity + 1); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity above max, got %v", err)
	}
	if _, err := NewBuffer(1); err != nil {
		t.Fatalf("capacity 1 should be valid: %v", err)
	}
	if _, err := NewBuffer(MaxBufferCapacity); err != nil {
		t.Fatalf("max capacity should be valid: %v", err)
	}
}

func TestNewBufferFromTruncates(t *testing.T) {
	b, err := NewBufferFrom(4, []byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 4 {
		t.Fatalf("expected truncated length 4, got %d", b.Len())
	}
	if !bytes.Equal(b.Bytes(), []byte("hell")) {
		t.Fatalf("unexpected bytes: %q", b.Bytes())
	}
}

func TestBufferResetAndRefill(t *testing.T) {
	b, _ := NewBuffer(8)
	b.Fill([]byte("abc"))
	if b.Len() != 3 {
		t.Fatalf("expected length 3, got %d", b.Len())
	}

	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected length 0 after reset, got %d", b.Len())
	}

	b.Fill([]byte("xy"))
	if !bytes.Equal(b.Bytes(), []byte("xy")) {
		t.Fatalf("unexpected bytes after refill: %q", b.Bytes())
	}
}

func TestBufferPoolRoundTrip(t *testing.T) {
	pool, err := NewBufferPool(16)
	if err != nil {
		t.Fatal(err)
	}

	b := pool.Get()
	b.Fill([]byte("payload"))
	pool.Put(b)

	b2 := pool.Get()
	if b2.Len() != 0 {
		t.Fatalf("expected pooled buffer to come back reset, got len %d", b2.Len())
	}
}

func TestBufferPoolRejectsWrongCapacity(t *testing.T) {
	pool, _ := NewBufferPool(16)
	other, _ := NewBuffer(32)

	pool.Put(other)
	b := pool.Get()
	if b.Capacity() != 16 {
		t.Fatalf("pool leaked a mismatched-capacity buffer back out")
	}
}

func TestBufferBytesIsACopy(t *testing.T) {
	b, _ := NewBuffer(8)
	b.Fill([]byte("abc"))

	out := b.Bytes()
	out[0] = 'z'

	if bytes.Equal(b.Bytes(), out) {
		t.Fatal("Bytes() did not return a defensive copy")
	}
}
