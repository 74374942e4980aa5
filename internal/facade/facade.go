// Package facade implements the flat procedural API an embedding
// application uses instead of touching the store/engine packages
// directly — a thin surface over backing state, carrying no HTTP
// transport of its own since this is a plain in-process API.
package facade

import (
	"github.com/fieldstation/dsengine/internal/engine"
	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
)

// Client is the embedder-facing surface: lifecycle, getters/setters over
// the config and joystick stores, protocol selection, and the event poll.
type Client struct {
	cfg    *store.Config
	js     *store.Joysticks
	eng    *engine.Engine
	queue  *events.Queue
	inited bool
}

// New constructs a Client around a fresh event queue, config store,
// joystick store and engine. Close stops the engine but keeps the stores.
func New(queueCapacity int) *Client {
	queue := events.New(queueCapacity)
	cfg := store.NewConfig(queue, nil)
	js := store.NewJoysticks(cfg, queue)
	eng := engine.New(cfg, js, queue, nil)
	return &Client{cfg: cfg, js: js, eng: eng, queue: queue}
}

// Init starts the engine loop. Configure must be called first (or after)
// to install a protocol; no packets flow until one is installed.
func (c *Client) Init() {
	if c.inited {
		return
	}
	c.eng.Run()
	c.inited = true
}

// Close stops the engine loop and releases its endpoints.
func (c *Client) Close() {
	if !c.inited {
		return
	}
	c.eng.Stop()
	c.inited = false
}

// Initialized reports whether Init has been called without a matching
// Close.
func (c *Client) Initialized() bool { return c.inited }

// Configure installs the given protocol record.
func (c *Client) Configure(rec protocol.Record) {
	c.eng.Configure(rec)
}

// --- State getters ---

func (c *Client) Team() uint16                  { return c.cfg.Team() }
func (c *Client) CodeLoaded() bool              { return c.cfg.CodeLoaded() }
func (c *Client) Enabled() bool                 { return c.cfg.Enabled() }
func (c *Client) CanBeEnabled() bool            { return c.cfg.CodeLoaded() && !c.cfg.EmergencyStopped() }
func (c *Client) CPU() float64                  { return c.cfg.CPU() }
func (c *Client) RAM() float64                  { return c.cfg.RAM() }
func (c *Client) Disk() float64                 { return c.cfg.Disk() }
func (c *Client) CAN() float64                  { return c.cfg.CAN() }
func (c *Client) Voltage() float64              { return c.cfg.Voltage() }
func (c *Client) Station() store.Station        { return c.cfg.Station() }
func (c *Client) EmergencyStopped() bool        { return c.cfg.EmergencyStopped() }
func (c *Client) FMSComms() bool                { return c.cfg.FMSComms() }
func (c *Client) RadioComms() bool              { return c.cfg.RadioComms() }
func (c *Client) RobotComms() bool              { return c.cfg.RobotComms() }
func (c *Client) ControlMode() store.ControlMode { return c.cfg.ControlMode() }
func (c *Client) GameData() string              { return c.cfg.GameData() }
func (c *Client) StatusString() string          { return c.cfg.StatusString() }
func (c *Client) RobotLibVersion() string       { return c.cfg.RobotLibVersion() }
func (c *Client) PCMVersion() string            { return c.cfg.PCMVersion() }
func (c *Client) PDPVersion() string            { return c.cfg.PDPVersion() }

func (c *Client) FMSAddressOverride() string   { return c.cfg.FMSAddressOverride() }
func (c *Client) RadioAddressOverride() string { return c.cfg.RadioAddressOverride() }
func (c *Client) RobotAddressOverride() string { return c.cfg.RobotAddressOverride() }

// --- State setters ---

func (c *Client) RebootRobot()              { c.eng.Context().RequestReboot() }
func (c *Client) RestartRobotCode()         { c.eng.Context().RequestRestartCode() }
func (c *Client) SetTeam(team uint16)       { c.cfg.SetTeam(team); c.eng.SetAddresses() }
func (c *Client) SetEnabled(v bool)         { c.cfg.SetEnabled(v) }
func (c *Client) SetEmergencyStopped(v bool) { c.cfg.SetEmergencyStopped(v) }
func (c *Client) SetStation(s store.Station) { c.cfg.SetStation(s) }
func (c *Client) SetControlMode(m store.ControlMode) { c.cfg.SetControlMode(m) }
func (c *Client) SetGameData(v string)      { c.cfg.SetGameData(v) }
func (c *Client) SendNetConsoleMessage(v string) { c.cfg.AddNetConsoleMessage(v) }

func (c *Client) SetFMSAddressOverride(v string) {
	c.cfg.SetFMSAddressOverride(v)
	c.eng.SetAddresses()
}

func (c *Client) SetRadioAddressOverride(v string) {
	c.cfg.SetRadioAddressOverride(v)
	c.eng.SetAddresses()
}

func (c *Client) SetRobotAddressOverride(v string) {
	c.cfg.SetRobotAddressOverride(v)
	c.eng.SetAddresses()
}

// --- Joystick API ---

func (c *Client) ResetJoysticks()                          { c.js.Reset() }
func (c *Client) AddJoystick(axes, buttons, hats int) bool  { return c.js.Add(axes, buttons, hats) }
func (c *Client) SetJoystickAxis(js, axis int, v float64)   { c.js.SetAxis(js, axis, v) }
func (c *Client) SetJoystickButton(js, btn int, v bool)     { c.js.SetButton(js, btn, v) }
func (c *Client) SetJoystickHat(js, hat, angle int)         { c.js.SetHat(js, hat, angle) }
func (c *Client) JoystickCount() int                        { return c.js.Count() }
func (c *Client) JoystickAxisCount(js int) int              { return c.js.AxisCount(js) }
func (c *Client) JoystickButtonCount(js int) int            { return c.js.ButtonCount(js) }
func (c *Client) JoystickHatCount(js int) int                { return c.js.HatCount(js) }

// --- Event API ---

// PollEvent removes and returns the oldest queued event. ok is false when
// the queue is empty.
func (c *Client) PollEvent() (events.Record, bool) {
	return c.queue.Poll()
}

// EventQueue exposes the underlying queue for callers that drain it
// through their own consumer (telemetry.Pump) rather than by polling one
// record at a time. A Queue accepts exactly one consumer; PollEvent and a
// Pump reading this queue must not be used together.
func (c *Client) EventQueue() *events.Queue {
	return c.queue
}
