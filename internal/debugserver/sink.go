package debugserver

import (
	"context"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/telemetry"
)

// dashboardSink adapts the hub to telemetry.Sink, so the dashboard feed is
// just one more fan-out target on the same Pump that drives Redis/MQTT —
// events.Queue keeps exactly one consumer, per its own contract.
type dashboardSink struct {
	h *hub
}

var _ telemetry.Sink = (*dashboardSink)(nil)

func (d *dashboardSink) Publish(_ context.Context, rec events.Record) error {
	data, err := encodeFrame(string(rec.Kind), rec.Payload)
	if err != nil {
		return err
	}
	d.h.Publish(data)
	return nil
}

func (d *dashboardSink) Close() error { return nil }
