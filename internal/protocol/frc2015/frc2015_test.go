package frc2015

import (
	"testing"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
)

func newCtx() *protocol.Context {
	q := events.New(32)
	cfg := store.NewConfig(q, nil)
	js := store.NewJoysticks(cfg, q)
	return protocol.NewContext(cfg, js)
}

// S1 — team number propagation.
func TestRoboRIOAddress(t *testing.T) {
	rec := New()
	if got := rec.RobotAddress(3794); got != "roboRIO-3794.local" {
		t.Fatalf("RobotAddress(3794) = %q, want roboRIO-3794.local", got)
	}
}

// S5 — button packing bitmask encoding.
func TestButtonPackingMasked(t *testing.T) {
	ctx := newCtx()
	ctx.Config.SetEnabled(true)
	ctx.Joysticks.Add(2, 10, 0)
	ctx.Joysticks.SetButton(0, 2, true)
	ctx.Joysticks.SetButton(0, 3, true)

	field := packJoystickButtonsForTest(ctx)
	if field != 0x000C {
		t.Fatalf("button field = %#x, want 0xc", field)
	}
}

func packJoystickButtonsForTest(ctx *protocol.Context) uint16 {
	section := encodeJoystickSections(ctx)
	// section layout: [size][tag=0x0C][numAxes][axes...][numButtons][hi][lo]...
	numAxes := int(section[2])
	hiIdx := 3 + numAxes + 1
	return uint16(section[hiIdx])<<8 | uint16(section[hiIdx+1])
}

// S9 — round trip: encoding a robot packet and decoding it via the FMS
// reader at the peer yields the same mode/enabled/station.
func TestRoundTripRobotToFMSStation(t *testing.T) {
	ctx := newCtx()
	ctx.Config.SetTeam(254)
	ctx.Config.SetControlMode(store.ModeAutonomous)
	ctx.Config.SetEnabled(true)
	ctx.Config.SetStation(store.Station{Alliance: store.AllianceBlue, Position: 2})

	// Simulate the peer FMS relaying the same control/station fields back.
	robotPkt := encodeRobot(ctx)
	fmsPkt := make([]byte, 6)
	fmsPkt[3] = robotPkt[3]
	fmsPkt[5] = robotPkt[5]

	peerCtx := newCtx()
	if !decodeFMS(peerCtx, fmsPkt) {
		t.Fatal("expected decodeFMS to succeed")
	}
	if peerCtx.Config.ControlMode() != store.ModeAutonomous {
		t.Fatalf("mode = %v, want autonomous", peerCtx.Config.ControlMode())
	}
	if !peerCtx.Config.Enabled() {
		t.Fatal("expected enabled = true")
	}
	want := store.Station{Alliance: store.AllianceBlue, Position: 2}
	if peerCtx.Config.Station() != want {
		t.Fatalf("station = %+v, want %+v", peerCtx.Config.Station(), want)
	}
}

func TestDecodeRobotShortPacketFails(t *testing.T) {
	ctx := newCtx()
	if decodeRobot(ctx, []byte{0, 0, 0}) {
		t.Fatal("expected short robot packet to fail decode")
	}
}

func TestExtendedTagsParsing(t *testing.T) {
	ctx := newCtx()
	header := []byte{0, 1, 0x01, 0x00, 0x20, 10, 50, 0x00}
	// one extended section: size=2, tag=CPU(0x05), value=77
	ext := []byte{2, tagCPU, 77}
	data := append(header, ext...)
	if !decodeRobot(ctx, data) {
		t.Fatal("expected decode success")
	}
	if ctx.Config.CPU() != 77 {
		t.Fatalf("CPU() = %f, want 77", ctx.Config.CPU())
	}
}
