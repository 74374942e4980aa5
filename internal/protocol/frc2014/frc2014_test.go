package frc2014

import (
	"encoding/binary"
	"testing"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
	"github.com/fieldstation/dsengine/internal/wire"
)

func newCtx() *protocol.Context {
	q := events.New(32)
	cfg := store.NewConfig(q, nil)
	js := store.NewJoysticks(cfg, q)
	return protocol.NewContext(cfg, js)
}

// S2 — static-IP derivation.
func TestStaticIPDerivation(t *testing.T) {
	rec := New()
	if got := rec.RobotAddress(118); got != "10.1.18.2" {
		t.Fatalf("RobotAddress(118) = %q, want 10.1.18.2", got)
	}
}

// S4 — button packing squared-index encoding.
func TestButtonPackingSquared(t *testing.T) {
	ctx := newCtx()
	ctx.Config.SetEnabled(true)
	ctx.Joysticks.Add(6, 10, 0)
	ctx.Joysticks.SetButton(0, 2, true)
	ctx.Joysticks.SetButton(0, 3, true)

	buf := encodeRobot(ctx)
	field := binary.BigEndian.Uint16(buf[joystickBase+axesPerJoystick : joystickBase+axesPerJoystick+2])
	if field != 0x000D {
		t.Fatalf("button field = %#x, want 0xd", field)
	}
}

func TestRobotFrameLengthAndCRC(t *testing.T) {
	ctx := newCtx()
	buf := encodeRobot(ctx)
	if len(buf) != robotFrameSize {
		t.Fatalf("frame length = %d, want %d", len(buf), robotFrameSize)
	}
	want := wire.CRC32C(buf[:crcStart])
	got := binary.BigEndian.Uint32(buf[crcStart : crcStart+4])
	if got != want {
		t.Fatalf("trailing CRC = %#x, want %#x", got, want)
	}
}

func TestDecodeRobotSetsCodeUnconditionally(t *testing.T) {
	ctx := newCtx()
	data := []byte{0x00, 0x12, 0x12}
	if !decodeRobot(ctx, data) {
		t.Fatal("expected successful decode")
	}
	if !ctx.Config.CodeLoaded() {
		t.Fatal("expected code loaded to be set unconditionally on decode success")
	}
}

func TestDecodeFMSShortPacketFails(t *testing.T) {
	ctx := newCtx()
	if decodeFMS(ctx, []byte{0, 0}) {
		t.Fatal("expected short FMS packet to fail decode")
	}
}
