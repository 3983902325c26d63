package queue

import (
	"sync"
	"testing"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_Push(t *testing.T) {
	q := New[testItem]()

	q.Push(testItem{ID: 1, Name: "first"})
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	q.Push(testItem{ID: 2}, testItem{ID: 3})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}
}

func TestQueue_Pop(t *testing.T) {
	q := New[testItem]()

	// Pop from empty queue returns zero value
	result := q.Pop()
	if result.ID != 0 || result.Name != "" {
		t.Errorf("expected zero value, got %+v", result)
	}

	q.Push(testItem{ID: 1, Name: "first"}, testItem{ID: 2, Name: "second"})
	first := q.Pop()
	if first.ID != 1 || first.Name != "first" {
		t.Errorf("expected {1, first}, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3})

	q.Clear()

	if !q.Empty() {
		t.Error("expected empty queue after clear")
	}
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3})

	result := q.GetAndEmpty()

	if len(result) != 3 {
		t.Errorf("expected 3 items, got %d", len(result))
	}
	if result[0].ID != 1 || result[1].ID != 2 || result[2].ID != 3 {
		t.Errorf("unexpected items: %+v", result)
	}
	if !q.Empty() {
		t.Error("expected empty queue after GetAndEmpty")
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[testItem]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(testItem{ID: id})
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()

	if q.Len() != 50 {
		t.Errorf("expected 50 items after pops, got %d", q.Len())
	}
}

func TestQueue_StringType(t *testing.T) {
	q := New[string]()
	q.Push("hello", "world")

	first := q.Pop()
	if first != "hello" {
		t.Errorf("expected 'hello', got '%s'", first)
	}
}

// Deferred callback queue

func TestDeferred_RunInOrder(t *testing.T) {
	d := NewDeferred()

	var order []int
	d.Defer(func() { order = append(order, 1) })
	d.Defer(func() { order = append(order, 2) })
	d.Defer(func() { order = append(order, 3) })

	if d.Pending() != 3 {
		t.Errorf("expected 3 pending, got %d", d.Pending())
	}

	n := d.Run()
	if n != 3 {
		t.Errorf("expected 3 executed, got %d", n)
	}
	if len(order) != 3 || order[0] != 1 || order[2] != 3 {
		t.Errorf("unexpected order: %v", order)
	}
	if d.Pending() != 0 {
		t.Errorf("expected drained queue, got %d pending", d.Pending())
	}
}

func TestDeferred_CallbackQueuesCallback(t *testing.T) {
	d := NewDeferred()

	ran := false
	d.Defer(func() {
		d.Defer(func() { ran = true })
	})

	n := d.Run()
	if n != 2 {
		t.Errorf("expected 2 executed, got %d", n)
	}
	if !ran {
		t.Error("nested callback did not run in the same drain")
	}
}

func TestDeferred_NilCallbackIgnored(t *testing.T) {
	d := NewDeferred()
	d.Defer(nil)
	if d.Pending() != 0 {
		t.Errorf("expected nil callback to be ignored, got %d pending", d.Pending())
	}
	if n := d.Run(); n != 0 {
		t.Errorf("expected 0 executed, got %d", n)
	}
}
