package nw

import (
	"testing"
	"time"
)

func TestUnhealthyQueueFIFOOrder(t *testing.T) {
	q := NewUnhealthyQueue()
	defer q.Close()

	for i := 0; i < 5; i++ {
		q.Push(ClientID(i))
	}

	for i := 0; i < 5; i++ {
		id, ok := q.Pop()
		if !ok {
			t.Fatalf("expected Pop to succeed at iteration %d", i)
		}
		if id != ClientID(i) {
			t.Fatalf("expected id %d, got %d", i, id)
		}
	}
}

func TestUnhealthyQueueCloseUnblocksPop(t *testing.T) {
	q := NewUnhealthyQueue()

	done := make(chan struct{})
	go func() {
		_, ok := q.Pop()
		if ok {
			t.Error("expected Pop to fail after Close")
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock a pending Pop")
	}
}

func TestUnhealthyQueuePushAfterCloseIsNoop(t *testing.T) {
	q := NewUnhealthyQueue()
	q.Close()
	q.Push(42)

	_, ok := q.Pop()
	if ok {
		t.Fatal("expected Pop to report closed, got a value")
	}
}
