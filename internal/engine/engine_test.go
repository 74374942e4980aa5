package engine

import (
	"testing"
	"time"

	"github.com/fieldstation/dsengine/internal/endpoint"
	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/protocol/frc2015"
	"github.com/fieldstation/dsengine/internal/store"
)

// fastRecord is a minimal protocol.Record with short cadences so watchdog
// expiry can be observed without slow real-time sleeps in tests.
func fastRecord() protocol.Record {
	return protocol.Record{
		Name:            "fast-test",
		FMSAddress:      func(uint16) string { return "127.0.0.1" },
		RadioAddress:    func(uint16) string { return "127.0.0.1" },
		RobotAddress:    func(uint16) string { return "127.0.0.1" },
		EncodeFMS:       func(*protocol.Context) []byte { return []byte{0} },
		EncodeRadio:     func(*protocol.Context) []byte { return nil },
		EncodeRobot:     func(*protocol.Context) []byte { return []byte{0} },
		DecodeFMS:       func(*protocol.Context, []byte) bool { return false },
		DecodeRadio:     func(*protocol.Context, []byte) bool { return false },
		DecodeRobot:     func(*protocol.Context, []byte) bool { return false },
		ResetFMS:        protocol.DefaultResetFMS,
		ResetRadio:      protocol.DefaultResetRadio,
		ResetRobot:      protocol.DefaultResetRobot,
		FMSIntervalMS:   5,
		RadioIntervalMS: 0,
		RobotIntervalMS: 5,
		FMSTemplate:         endpoint.Template{LocalPort: 18160, RemotePort: 18120, Transport: endpoint.UDP},
		RadioTemplate:       endpoint.Template{LocalPort: 18140, RemotePort: 18130, Transport: endpoint.UDP},
		RobotTemplate:       endpoint.Template{LocalPort: 18150, RemotePort: 18110, Transport: endpoint.UDP},
		NetConsoleTemplate:  endpoint.Template{LocalPort: 18668, RemotePort: 18666, Transport: endpoint.UDP, ReceiveOnly: true},
	}
}

func TestEngineConfigureOpensEndpointsAndSends(t *testing.T) {
	q := events.New(64)
	cfg := store.NewConfig(q, nil)
	js := store.NewJoysticks(cfg, q)
	eng := New(cfg, js, q, nil)

	cfg.SetTeam(254)
	eng.Configure(frc2015.New())
	defer eng.Stop()
	eng.Run()

	time.Sleep(60 * time.Millisecond)

	if eng.RobotCounters().SentPackets == 0 {
		t.Fatal("expected at least one robot packet sent after a few cycles")
	}
}

func TestEngineWatchdogExpiryResetsStore(t *testing.T) {
	q := events.New(64)
	cfg := store.NewConfig(q, nil)
	js := store.NewJoysticks(cfg, q)
	eng := New(cfg, js, q, nil)

	cfg.SetTeam(254)
	cfg.SetRobotComms(true)
	cfg.SetCodeLoaded(true)
	cfg.SetEnabled(true)

	eng.Configure(fastRecord())
	defer eng.Stop()
	eng.Run()

	// Robot watchdog period = min(50*5, 1000) = 250ms; no real robot
	// replies, so it must expire and trigger the S3 reset chain.
	time.Sleep(350 * time.Millisecond)

	if cfg.RobotComms() {
		t.Fatal("expected robot comms to go false after watchdog expiry")
	}
	if cfg.CodeLoaded() {
		t.Fatal("expected code loaded to be reset false after watchdog expiry")
	}
	if cfg.Enabled() {
		t.Fatal("expected enabled to be reset false after watchdog expiry")
	}
}
