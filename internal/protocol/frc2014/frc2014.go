// Package frc2014 implements the older, fixed-1024-byte, CRC-32C-checked
// wire protocol ("Variant A"). Every byte offset and both long-standing
// quirks — the i*i button-packing field, and the (byte*12)/0x12
// voltage-scaling rule — are preserved bit-for-bit.
package frc2014

import (
	"encoding/binary"

	"github.com/fieldstation/dsengine/internal/endpoint"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
	"github.com/fieldstation/dsengine/internal/wire"
)

const (
	controlEnabled     = 0x20
	controlTest        = 0x02
	controlAutonomous  = 0x10
	controlTeleop      = 0x00
	controlFMSAttached = 0x08
	controlResync      = 0x04
	controlReboot      = 0x80
	controlEStopOff    = 0x40
	controlEStopOn     = 0x00

	robotFrameSize   = 1024
	joystickBase     = 8
	numJoysticks     = 4
	axesPerJoystick  = 6
	crcStart         = 1020
)

// New builds a fresh frc2014 (Variant A) protocol record.
func New() protocol.Record {
	return protocol.Record{
		Name:         "frc2014",
		FMSAddress:   func(team uint16) string { return wire.StaticIP(10, team, 1) },
		RadioAddress: func(team uint16) string { return wire.StaticIP(10, team, 1) },
		RobotAddress: func(team uint16) string { return wire.StaticIP(10, team, 2) },

		EncodeFMS:   encodeFMS,
		EncodeRadio: func(ctx *protocol.Context) []byte { return nil }, // radio interval is 0: never invoked
		EncodeRobot: encodeRobot,

		DecodeFMS:   decodeFMS,
		DecodeRadio: func(ctx *protocol.Context, data []byte) bool { return false },
		DecodeRobot: decodeRobot,

		ResetFMS:   protocol.DefaultResetFMS,
		ResetRadio: protocol.DefaultResetRadio,
		ResetRobot: protocol.DefaultResetRobot,

		FMSIntervalMS:   500,
		RadioIntervalMS: 0,
		RobotIntervalMS: 20,

		MaxJoysticks: numJoysticks,
		MaxAxes:      axesPerJoystick,
		MaxButtons:   16,
		MaxHats:      0,

		MaxBatteryVoltage: 13.0,

		FMSTemplate:        endpoint.Template{LocalPort: 1160, RemotePort: 1120, Transport: endpoint.UDP},
		RadioTemplate:      endpoint.Template{LocalPort: 1140, RemotePort: 1130, Transport: endpoint.UDP},
		RobotTemplate:      endpoint.Template{LocalPort: 1150, RemotePort: 1110, Transport: endpoint.UDP},
		NetConsoleTemplate: endpoint.Template{LocalPort: 6668, RemotePort: 6666, Transport: endpoint.UDP, Broadcast: true, ReceiveOnly: true},
	}
}

func controlCodeByte(cfg *store.Config, reboot bool) byte {
	var code byte
	switch cfg.ControlMode() {
	case store.ModeTest:
		code |= controlTest
	case store.ModeAutonomous:
		code |= controlAutonomous
	default:
		code |= controlTeleop
	}
	if cfg.Enabled() {
		code |= controlEnabled
	}
	if cfg.FMSComms() {
		code |= controlFMSAttached
	}
	if !cfg.EmergencyStopped() {
		code |= controlEStopOff
	} else {
		code |= controlEStopOn
	}
	if reboot {
		code |= controlReboot
	}
	return code
}

// encodeRobot builds the fixed 1024-byte robot command packet.
func encodeRobot(ctx *protocol.Context) []byte {
	buf := make([]byte, robotFrameSize)

	ctx.RobotPacketIndex++
	binary.BigEndian.PutUint16(buf[0:2], ctx.RobotPacketIndex)

	reboot := ctx.ConsumeReboot()
	buf[2] = controlCodeByte(ctx.Config, reboot)
	buf[3] = 0 // digital inputs, unused by this engine

	binary.BigEndian.PutUint16(buf[4:6], ctx.Config.Team())

	station := ctx.Config.Station()
	if station.Alliance == store.AllianceBlue {
		buf[6] = 'B'
	} else {
		buf[6] = 'R'
	}
	buf[7] = byte('0' + station.Position)

	offset := joystickBase
	for js := 0; js < numJoysticks; js++ {
		for axis := 0; axis < axesPerJoystick; axis++ {
			buf[offset] = byte(wire.FloatToByte(ctx.Joysticks.GetAxis(js, axis), 1.0))
			offset++
		}
		pressed := make([]bool, ctx.Joysticks.ButtonCount(js))
		for b := range pressed {
			pressed[b] = ctx.Joysticks.GetButton(js, b)
		}
		field := wire.PackButtonsSquared(pressed)
		binary.BigEndian.PutUint16(buf[offset:offset+2], field)
		offset += 2
	}

	crc := wire.CRC32C(buf[:crcStart])
	binary.BigEndian.PutUint32(buf[crcStart:crcStart+4], crc)

	return buf
}

// decodeRobot interprets the robot's 1024-byte status reply. A successful
// decode unconditionally marks code as loaded — the older protocol never
// reported an actual program-present bit in this slot, only a fixed
// acknowledgement, so any successfully parsed packet is read as "code is
// present."
func decodeRobot(ctx *protocol.Context, data []byte) bool {
	if len(data) < 3 {
		return false
	}
	ctx.Config.SetEmergencyStopped(data[0] == 0x00)
	ctx.Config.SetCodeLoaded(true)

	intPart := float64(uint32(data[1]) * 12 / 0x12)
	decPart := float64(uint32(data[2]) * 12 / 0x12)
	ctx.Config.SetVoltage(intPart + decPart/0xff)

	return true
}

func encodeFMS(ctx *protocol.Context) []byte {
	// No independently documented wire format exists for this direction on
	// the older protocol, so the outgoing heartbeat mirrors the robot
	// packet's status fields.
	buf := make([]byte, 6)
	ctx.FMSPacketIndex++
	binary.BigEndian.PutUint16(buf[0:2], ctx.FMSPacketIndex)
	buf[2] = controlCodeByte(ctx.Config, false)
	binary.BigEndian.PutUint16(buf[4:6], ctx.Config.Team())
	return buf
}

// decodeFMS interprets the FMS→client packet: mode, enabled bit, alliance,
// and position.
func decodeFMS(ctx *protocol.Context, data []byte) bool {
	if len(data) < 5 {
		return false
	}
	modeByte := data[2]
	enabled := modeByte&controlEnabled != 0
	switch modeByte &^ controlEnabled {
	case 0x53:
		ctx.Config.SetControlMode(store.ModeAutonomous)
	case 0x43:
		ctx.Config.SetControlMode(store.ModeTeleoperated)
	default:
		return false
	}
	ctx.Config.SetEnabled(enabled)

	alliance := store.AllianceRed
	if data[3] == 'B' {
		alliance = store.AllianceBlue
	}
	position := int(data[4] - '0')
	if position < 1 || position > 3 {
		return false
	}
	ctx.Config.SetStation(store.Station{Alliance: alliance, Position: position})
	return true
}
