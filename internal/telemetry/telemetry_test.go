package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingSink struct {
	received []events.Record
	delay    time.Duration
	fail     bool
}

func (s *recordingSink) Publish(ctx context.Context, rec events.Record) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.fail {
		return context.Canceled
	}
	s.received = append(s.received, rec)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func TestPumpDeliversToAllSinks(t *testing.T) {
	q := events.New(16)
	q.Push(events.Record{Kind: events.KindRobotEnabledChanged, Payload: true})

	a := &recordingSink{}
	b := &recordingSink{}
	p := NewPump(q, []Sink{a, b}, 50*time.Millisecond, nil)
	p.drain()

	if len(a.received) != 1 || len(b.received) != 1 {
		t.Fatalf("expected both sinks to receive 1 record, got %d and %d", len(a.received), len(b.received))
	}
}

func TestPumpDropsOnTimeoutWithoutBlocking(t *testing.T) {
	q := events.New(16)
	q.Push(events.Record{Kind: events.KindRobotEnabledChanged, Payload: true})

	slow := &recordingSink{delay: 500 * time.Millisecond}
	p := NewPump(q, []Sink{slow}, 10*time.Millisecond, nil)

	start := time.Now()
	p.drain()
	elapsed := time.Since(start)

	if elapsed > 100*time.Millisecond {
		t.Fatalf("drain took %v, expected to bail out near the 10ms timeout", elapsed)
	}
	if len(slow.received) != 0 {
		t.Fatal("expected the slow sink's publish to be dropped, not recorded")
	}
	if p.Dropped()["sink-0"] != 1 {
		t.Fatalf("Dropped()[sink-0] = %d, want 1", p.Dropped()["sink-0"])
	}
}

func TestMetricsObserveCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCounters("robot", 3, 2, 150, 100)
	m.SetCommsUp("robot", true)
	m.IncWatchdogExpiry("robot")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family after observations")
	}
}
