package graph

import (
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int]()
	if !q.IsEmpty() || q.Len() != 0 {
		t.Fatal("new queue should be empty")
	}

	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.Dequeue()
		if !ok || got != want {
			t.Errorf("Dequeue() = %d, %v, want %d", got, ok, want)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue on empty queue should report false")
	}
	if !q.IsEmpty() {
		t.Error("queue should be empty after draining")
	}
}

func TestQueue_Front(t *testing.T) {
	q := NewQueue[string]()
	if _, ok := q.Front(); ok {
		t.Error("Front on empty queue should report false")
	}

	q.Enqueue("a")
	q.Enqueue("b")
	if v, ok := q.Front(); !ok || v != "a" {
		t.Errorf("Front() = %q, %v", v, ok)
	}
	if q.Len() != 2 {
		t.Error("Front must not remove the element")
	}
}

func TestQueue_Contains(t *testing.T) {
	q := NewQueue[string]()
	if q.Contains("a") {
		t.Error("empty queue contains nothing")
	}

	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	for _, v := range []string{"a", "b", "c"} {
		if !q.Contains(v) {
			t.Errorf("Contains(%q) = false", v)
		}
	}
	if q.Contains("d") {
		t.Error("Contains(d) = true")
	}

	q.Dequeue()
	if q.Contains("a") {
		t.Error("dequeued element should be gone")
	}
}

func TestQueue_InterleavedAndReuse(t *testing.T) {
	var q Queue[int]

	q.Enqueue(1)
	q.Dequeue()
	q.Enqueue(2)
	q.Enqueue(3)
	q.Dequeue()
	q.Enqueue(4)

	got := q.Values()
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("Values() = %v, want [3 4]", got)
	}

	q.Reset()
	if !q.IsEmpty() || len(q.Values()) != 0 {
		t.Error("Reset should empty the queue")
	}
	q.Enqueue(5)
	if v, _ := q.Front(); v != 5 {
		t.Error("queue should be usable after Reset")
	}
}
