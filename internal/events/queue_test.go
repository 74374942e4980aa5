package events

import (
	"sync"
	"testing"
)

func TestPushPollOrder(t *testing.T) {
	q := New(4)
	q.Push(Record{Kind: KindRobotEnabledChanged, Payload: true})
	q.Push(Record{Kind: KindRobotCodeChanged, Payload: false})

	rec, ok := q.Poll()
	if !ok || rec.Kind != KindRobotEnabledChanged {
		t.Fatalf("first poll = %+v, %v; want enabled-changed", rec, ok)
	}
	rec, ok = q.Poll()
	if !ok || rec.Kind != KindRobotCodeChanged {
		t.Fatalf("second poll = %+v, %v; want code-changed", rec, ok)
	}
	if _, ok := q.Poll(); ok {
		t.Fatal("expected queue to be empty")
	}
}

func TestBoundedDropOldest(t *testing.T) {
	q := New(2)
	q.Push(Record{Kind: KindRobotCPUChanged, Payload: 1})
	q.Push(Record{Kind: KindRobotRAMChanged, Payload: 2})
	q.Push(Record{Kind: KindRobotDiskChanged, Payload: 3})

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
	rec, _ := q.Poll()
	if rec.Kind != KindRobotRAMChanged {
		t.Fatalf("oldest surviving record = %v, want ram-changed", rec.Kind)
	}
}

func TestConcurrentProducers(t *testing.T) {
	q := New(1000)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Push(Record{Kind: KindNetConsoleMessage, Payload: "x"})
			}
		}()
	}
	wg.Wait()
	if q.Len() != 500 {
		t.Fatalf("Len() = %d, want 500", q.Len())
	}
}
