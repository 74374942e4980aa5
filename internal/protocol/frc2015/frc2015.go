// Package frc2015 implements the newer, variable-length, tagged-section
// wire protocol ("Variant B") used by more recent driver stations.
package frc2015

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fieldstation/dsengine/internal/endpoint"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
	"github.com/fieldstation/dsengine/internal/wire"
)

const (
	controlTest       = 0x01
	controlAutonomous = 0x02
	controlTeleop     = 0x00
	controlEnabled    = 0x04
	controlFMS        = 0x08
	controlEStop      = 0x80

	requestNormal      = 0x80
	requestUnconnected = 0x00
	requestReboot      = 0x08
	requestRestart     = 0x04

	tagGeneral    = 0x01
	tagTime       = 0x0F
	tagTimezone   = 0x10
	tagJoystick   = 0x0C
	tagCAN        = 0x0E
	tagCPU        = 0x05
	tagRAM        = 0x06
	tagDisk       = 0x04

	fmsControlRadioPing = 0x10
	fmsControlRobotPing = 0x08
	fmsControlRobotComm = 0x20
)

// New builds a fresh frc2015 (Variant B) protocol record.
func New() protocol.Record {
	return protocol.Record{
		Name:         "frc2015",
		FMSAddress:   func(team uint16) string { return wire.StaticIP(10, team, 1) },
		RadioAddress: func(team uint16) string { return wire.StaticIP(10, team, 1) },
		RobotAddress: func(team uint16) string { return fmt.Sprintf("roboRIO-%d.local", team) },

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

		MaxJoysticks: 6,
		MaxAxes:      8,
		MaxButtons:   16,
		MaxHats:      1,

		MaxBatteryVoltage: 13.0,

		FMSTemplate:        endpoint.Template{LocalPort: 1160, RemotePort: 1120, Transport: endpoint.UDP},
		RadioTemplate:      endpoint.Template{LocalPort: 1140, RemotePort: 1130, Transport: endpoint.UDP},
		RobotTemplate:      endpoint.Template{LocalPort: 1150, RemotePort: 1110, Transport: endpoint.UDP},
		NetConsoleTemplate: endpoint.Template{LocalPort: 6668, RemotePort: 6666, Transport: endpoint.UDP, Broadcast: true, ReceiveOnly: true},
	}
}

func stationCode(s store.Station) byte {
	base := byte(0)
	if s.Alliance == store.AllianceBlue {
		base = 3
	}
	return base + byte(s.Position-1)
}

func controlCodeByte(cfg *store.Config) byte {
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
		code |= controlFMS
	}
	if cfg.EmergencyStopped() {
		code |= controlEStop
	}
	return code
}

func requestCodeByte(ctx *protocol.Context) byte {
	switch {
	case !ctx.Config.RobotComms():
		return requestUnconnected
	case ctx.ConsumeReboot():
		return requestReboot
	case ctx.ConsumeRestartCode():
		return requestRestart
	default:
		return requestNormal
	}
}

// encodeRobot builds a variable-length robot command packet: the 6-byte
// header plus either a time section (every 50th packet) or a joystick
// section (all remaining packets) — the two trailing sections are mutually
// exclusive per cycle, never both.
func encodeRobot(ctx *protocol.Context) []byte {
	header := make([]byte, 6)
	ctx.RobotPacketIndex++
	binary.BigEndian.PutUint16(header[0:2], ctx.RobotPacketIndex)
	header[2] = tagGeneral
	header[3] = controlCodeByte(ctx.Config)
	header[4] = requestCodeByte(ctx)
	header[5] = stationCode(ctx.Config.Station())

	var section []byte
	if ctx.RobotPacketIndex%50 == 0 {
		section = encodeTimeSection()
	} else {
		section = encodeJoystickSections(ctx)
	}
	return append(header, section...)
}

func encodeTimeSection() []byte {
	now := time.Now().UTC()
	_, offsetSeconds := now.Zone()
	offsetHours := offsetSeconds / 3600

	body := make([]byte, 11)
	body[0] = tagTime
	binary.BigEndian.PutUint16(body[1:3], uint16(now.Nanosecond()/1e6))
	body[3] = byte(now.Second())
	body[4] = byte(now.Minute())
	body[5] = byte(now.Hour())
	binary.BigEndian.PutUint16(body[6:8], uint16(now.YearDay()))
	body[8] = byte(now.Month())
	body[9] = byte(now.Year() - 1900)
	body[10] = 0 // reserved padding to match the documented 14-byte section with its size/tag prefix

	tz := wire.TimezoneName(offsetHours)
	section := make([]byte, 0, 2+len(body)+2+len(tz))
	section = append(section, byte(len(body)), body[0])
	section = append(section, body[1:]...)
	section = append(section, byte(1+len(tz)), tagTimezone)
	section = append(section, []byte(tz)...)
	return section
}

func encodeJoystickSections(ctx *protocol.Context) []byte {
	var out []byte
	for js := 0; js < ctx.Joysticks.Count(); js++ {
		numAxes := ctx.Joysticks.AxisCount(js)
		numButtons := ctx.Joysticks.ButtonCount(js)
		numHats := ctx.Joysticks.HatCount(js)

		body := make([]byte, 0, 3+numAxes+3+2*numHats)
		body = append(body, tagJoystick, byte(numAxes))
		for a := 0; a < numAxes; a++ {
			body = append(body, byte(wire.FloatToByte(ctx.Joysticks.GetAxis(js, a), 1.0)))
		}
		pressed := make([]bool, numButtons)
		for b := 0; b < numButtons; b++ {
			pressed[b] = ctx.Joysticks.GetButton(js, b)
		}
		field := wire.PackButtonsMasked(pressed)
		body = append(body, byte(numButtons), byte(field>>8), byte(field))
		body = append(body, byte(numHats))
		for h := 0; h < numHats; h++ {
			angle := ctx.Joysticks.GetHat(js, h)
			body = append(body, byte(int16(angle)>>8), byte(angle))
		}

		out = append(out, byte(len(body)))
		out = append(out, body...)
	}
	return out
}

// decodeRobot interprets the robot's variable-length status reply: the
// 8-byte fixed header plus any extended tag sections.
func decodeRobot(ctx *protocol.Context, data []byte) bool {
	if len(data) < 7 {
		return false
	}
	estopped := data[3]&controlEStop != 0
	ctx.Config.SetEmergencyStopped(estopped)

	hasCode := data[4]&0x20 != 0
	ctx.Config.SetCodeLoaded(hasCode)

	intPart := float64(data[5])
	decPart := float64(data[6])
	ctx.Config.SetVoltage(intPart + decPart/100)

	if len(data) > 9 {
		parseExtendedTags(ctx, data[8:])
	}
	return true
}

func parseExtendedTags(ctx *protocol.Context, data []byte) {
	offset := 0
	for offset+1 < len(data) {
		size := int(data[offset])
		if size <= 0 || offset+1+size > len(data) {
			return
		}
		tag := data[offset+1]
		content := data[offset+2 : offset+1+size]
		if len(content) > 0 {
			value := float64(content[len(content)-1])
			switch tag {
			case tagCAN:
				ctx.Config.SetCAN(value)
			case tagCPU:
				ctx.Config.SetCPU(value)
			case tagRAM:
				ctx.Config.SetRAM(value)
			case tagDisk:
				ctx.Config.SetDisk(value)
			}
		}
		offset += 1 + size
	}
}

func encodeFMS(ctx *protocol.Context) []byte {
	buf := make([]byte, 8)
	ctx.FMSPacketIndex++
	binary.BigEndian.PutUint16(buf[0:2], ctx.FMSPacketIndex)
	buf[2] = 0x00 // DS version

	var control byte
	switch ctx.Config.ControlMode() {
	case store.ModeTest:
		control |= controlTest
	case store.ModeAutonomous:
		control |= controlAutonomous
	}
	if ctx.Config.Enabled() {
		control |= controlEnabled
	}
	if ctx.Config.EmergencyStopped() {
		control |= controlEStop
	}
	if ctx.Config.RadioComms() {
		control |= fmsControlRadioPing
	}
	if ctx.Config.RobotComms() {
		control |= fmsControlRobotPing | fmsControlRobotComm
	}
	buf[3] = control

	binary.BigEndian.PutUint16(buf[4:6], ctx.Config.Team())

	voltage := ctx.Config.Voltage()
	intPart := byte(voltage)
	decPart := byte((voltage - float64(intPart)) * 100)
	buf[6] = intPart
	buf[7] = decPart

	return buf
}

// decodeFMS interprets FMS-assigned mode/station directives. The FMS is
// the authority for station assignment whenever it is present.
func decodeFMS(ctx *protocol.Context, data []byte) bool {
	if len(data) < 6 {
		return false
	}
	control := data[3]
	enabled := control&controlEnabled != 0
	switch {
	case control&controlTest != 0:
		ctx.Config.SetControlMode(store.ModeTest)
	case control&controlAutonomous != 0:
		ctx.Config.SetControlMode(store.ModeAutonomous)
	default:
		ctx.Config.SetControlMode(store.ModeTeleoperated)
	}
	ctx.Config.SetEnabled(enabled)

	stationByte := data[5]
	alliance := store.AllianceRed
	if stationByte >= 3 {
		alliance = store.AllianceBlue
		stationByte -= 3
	}
	ctx.Config.SetStation(store.Station{Alliance: alliance, Position: int(stationByte) + 1})
	return true
}
