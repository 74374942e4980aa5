// Package telemetry fans events.Queue records out to external observers —
// a Redis stream, an MQTT broker, Prometheus gauges/counters — none of
// which ever feed back into the engine or store. Sinks sit behind a
// pluggable interface: a listener on the event queue for observability,
// never an input to store semantics.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldstation/dsengine/internal/events"
	"go.uber.org/zap"
)

// Sink publishes a single event record. Implementations must return
// promptly: Pump enforces a hard per-call deadline and treats a Publish
// that exceeds it, or returns an error, as dropped — never as a reason to
// block the pump.
type Sink interface {
	Publish(ctx context.Context, rec events.Record) error
	Close() error
}

// Pump drains an events.Queue and fans each record out to every configured
// Sink, bounding each publish attempt to a deadline so a slow or wedged
// sink can never stall event delivery.
type Pump struct {
	queue   *events.Queue
	sinks   []Sink
	timeout time.Duration
	log     *zap.Logger
	metrics *Metrics
	dropped map[string]uint64
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPump builds a Pump over the given queue and sinks with the given
// per-publish timeout.
func NewPump(queue *events.Queue, sinks []Sink, timeout time.Duration, log *zap.Logger) *Pump {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Pump{
		queue:   queue,
		sinks:   sinks,
		timeout: timeout,
		log:     log,
		dropped: make(map[string]uint64, len(sinks)),
	}
}

// AttachMetrics wires a Metrics instance so every dropped publish
// increments TelemetryDropped. Optional — a Pump works without it.
func (p *Pump) AttachMetrics(m *Metrics) {
	p.metrics = m
}

// Run starts the pump's poll loop in its own goroutine.
func (p *Pump) Run(pollInterval time.Duration) {
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.loop(pollInterval)
}

// Stop halts the poll loop and closes every sink.
func (p *Pump) Stop() {
	if p.stopCh != nil {
		close(p.stopCh)
		<-p.doneCh
	}
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			p.log.Warn("telemetry sink close failed", zap.Error(err))
		}
	}
}

func (p *Pump) loop(pollInterval time.Duration) {
	defer close(p.doneCh)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.drain()
		}
	}
}

func (p *Pump) drain() {
	for {
		rec, ok := p.queue.Poll()
		if !ok {
			return
		}
		p.publishToAll(rec)
	}
}

func (p *Pump) publishToAll(rec events.Record) {
	for i, s := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := s.Publish(ctx, rec)
		cancel()
		if err != nil {
			label := fmt.Sprintf("sink-%d", i)
			p.dropped[label]++
			if p.metrics != nil {
				p.metrics.TelemetryDropped.WithLabelValues(label).Inc()
			}
			p.log.Warn("telemetry publish dropped",
				zap.Int("sink", i), zap.String("kind", string(rec.Kind)), zap.Error(err))
		}
	}
}

// Dropped returns the count of failed/timed-out publishes per sink index
// (keyed "sink-N").
func (p *Pump) Dropped() map[string]uint64 {
	out := make(map[string]uint64, len(p.dropped))
	for k, v := range p.dropped {
		out[k] = v
	}
	return out
}
