// Package protocol defines the pluggable wire-protocol boundary: a
// Record is a plain struct of function values, kept as literal function
// pointers rather than modeled as a polymorphic interface, bundling
// address formulas, packet encoders and decoders, watchdog-reset hooks,
// cadences, endpoint templates, and joystick capability limits. The
// engine holds exactly one Record at a time and never branches on which
// one it is — all per-protocol difference lives inside the function
// values themselves.
package protocol

import (
	"sync/atomic"

	"github.com/fieldstation/dsengine/internal/endpoint"
	"github.com/fieldstation/dsengine/internal/store"
)

// Context bundles the mutable state a protocol's encoders and decoders
// read and write: the config/joystick stores plus the small amount of
// per-installation scratch state (packet indices, one-shot reboot/restart
// flags) that used to be process-wide globals in the source library,
// encapsulated behind a typed handle that's threaded to encoders and
// decoders through a context parameter.
type Context struct {
	Config    *store.Config
	Joysticks *store.Joysticks

	FMSPacketIndex   uint16
	RobotPacketIndex uint16

	rebootRequested      atomic.Bool
	restartCodeRequested atomic.Bool
}

// NewContext builds a Context around the given stores.
func NewContext(cfg *store.Config, js *store.Joysticks) *Context {
	return &Context{Config: cfg, Joysticks: js}
}

// RequestReboot latches a one-shot reboot request; the next robot packet
// encoded consumes and clears it.
func (c *Context) RequestReboot() { c.rebootRequested.Store(true) }

// RequestRestartCode latches a one-shot restart-code request.
func (c *Context) RequestRestartCode() { c.restartCodeRequested.Store(true) }

// ConsumeReboot reports whether a reboot was requested and clears the
// latch; intended to be called exactly once per encoded robot packet.
func (c *Context) ConsumeReboot() bool { return c.rebootRequested.Swap(false) }

// ConsumeRestartCode reports whether a code restart was requested and
// clears the latch.
func (c *Context) ConsumeRestartCode() bool { return c.restartCodeRequested.Swap(false) }

// ClearOneShotFlags drops both one-shot flags without consuming them, the
// auto-clear-on-watchdog-reset rule both variants share.
func (c *Context) ClearOneShotFlags() {
	c.rebootRequested.Store(false)
	c.restartCodeRequested.Store(false)
}

// Record is one concrete wire protocol: every field a protocol supplies.
type Record struct {
	Name string

	FMSAddress   func(team uint16) string
	RadioAddress func(team uint16) string
	RobotAddress func(team uint16) string

	EncodeFMS   func(ctx *Context) []byte
	EncodeRadio func(ctx *Context) []byte
	EncodeRobot func(ctx *Context) []byte

	DecodeFMS   func(ctx *Context, data []byte) bool
	DecodeRadio func(ctx *Context, data []byte) bool
	DecodeRobot func(ctx *Context, data []byte) bool

	// Reset hooks run on watchdog expiry; both shipped variants delegate
	// straight to the corresponding store.Config.OnXWatchdogExpired (see
	// resets.go), but the hook exists per-protocol
	// since a future variant could need its own reset behavior.
	ResetFMS   func(ctx *Context)
	ResetRadio func(ctx *Context)
	ResetRobot func(ctx *Context)

	FMSIntervalMS   int64
	RadioIntervalMS int64
	RobotIntervalMS int64

	MaxJoysticks, MaxAxes, MaxButtons, MaxHats int
	MaxBatteryVoltage                          float64

	FMSTemplate        endpoint.Template
	RadioTemplate      endpoint.Template
	RobotTemplate      endpoint.Template
	NetConsoleTemplate endpoint.Template
}
