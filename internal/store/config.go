// Package store holds the process-wide mirror of driver-station and robot
// state (Config) and the ordered joystick collection (Joysticks). Config
// guards its fields behind a sync.RWMutex and Joysticks behind a
// sync.Mutex. Transitions are not logged; setters that have an event kind
// write through to an events.Queue instead.
package store

import (
	"math"
	"sync"

	"github.com/fieldstation/dsengine/internal/events"
	"go.uber.org/zap"
)

// ControlMode is one of the three driver-station operating modes.
type ControlMode string

const (
	ModeTest          ControlMode = "test"
	ModeAutonomous    ControlMode = "autonomous"
	ModeTeleoperated  ControlMode = "teleoperated"
)

// Alliance is one half of a team station.
type Alliance string

const (
	AllianceRed  Alliance = "red"
	AllianceBlue Alliance = "blue"
)

// Station is the (alliance, position) pair; position is 1..3.
type Station struct {
	Alliance Alliance
	Position int
}

// Tri is a tri-state flag: a value is either never-set, false, or true.
// First write always differs from Unset and therefore always publishes an
// event.
type Tri int

const (
	TriUnset Tri = iota
	TriFalse
	TriTrue
)

// Bool reports the flag's boolean value, treating Unset as false.
func (t Tri) Bool() bool { return t == TriTrue }

func triOf(b bool) Tri {
	if b {
		return TriTrue
	}
	return TriFalse
}

// Config is the process-wide configuration/telemetry mirror. All getters
// are O(1) reads under a read lock; setters write through and, where an
// event kind exists, emit it on the attached queue only when the stored
// value actually changes. Team, game data, address overrides and the
// PCM/PDP version strings are stored without an event.
type Config struct {
	mu sync.RWMutex

	team uint16

	controlMode ControlMode
	station     Station

	codeLoaded       Tri
	enabled          Tri
	emergencyStopped Tri
	fmsComms         Tri
	radioComms       Tri
	robotComms       Tri

	cpu, ram, disk, can float64
	voltage              float64

	gameData string

	fmsOverride, radioOverride, robotOverride string

	robotLibVersion, pcmVersion, pdpVersion string

	lastStatusString string

	queue *events.Queue
	log   *zap.Logger
}

// NewConfig creates a Config with the spec's documented initial values:
// teleoperated mode, red alliance, position 1, all tri-state flags unset.
func NewConfig(queue *events.Queue, log *zap.Logger) *Config {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Config{
		controlMode: ModeTeleoperated,
		station:     Station{Alliance: AllianceRed, Position: 1},
		queue:       queue,
		log:         log,
	}
	c.lastStatusString = c.statusStringLocked()
	return c
}

func (c *Config) emit(kind events.Kind, payload any) {
	if c.queue != nil {
		c.queue.Push(events.Record{Kind: kind, Payload: payload})
	}
}

// Team returns the stored team number.
func (c *Config) Team() uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.team
}

// SetTeam sets the team number. Changing it implies the three
// protocol-default addresses must be recomputed by the caller (the facade's
// SetTeam follows it with engine.SetAddresses); Config itself carries only
// the number and emits no event for it.
func (c *Config) SetTeam(team uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.team = team
}

// ControlMode returns the current control mode.
func (c *Config) ControlMode() ControlMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.controlMode
}

// SetControlMode updates the control mode. A no-op write (same mode) emits
// no event.
func (c *Config) SetControlMode(mode ControlMode) {
	c.mu.Lock()
	if c.controlMode == mode {
		c.mu.Unlock()
		return
	}
	c.controlMode = mode
	c.mu.Unlock()

	c.emit(events.KindRobotModeChanged, mode)
	c.refreshStatusString()
}

// Station returns the current team station.
func (c *Config) Station() Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.station
}

// SetStation updates the team station (alliance + position).
func (c *Config) SetStation(s Station) {
	c.mu.Lock()
	if c.station == s {
		c.mu.Unlock()
		return
	}
	c.station = s
	c.mu.Unlock()
	c.emit(events.KindRobotStationChanged, s)
}

// CodeLoaded returns whether the robot has reported code loaded.
func (c *Config) CodeLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codeLoaded.Bool()
}

// SetCodeLoaded write-through sets the code-loaded flag.
func (c *Config) SetCodeLoaded(v bool) {
	c.setTri(&c.codeLoaded, v, events.KindRobotCodeChanged, true)
}

// Enabled returns whether the robot is currently enabled.
func (c *Config) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled.Bool()
}

// SetEnabled requests enabling the robot. This is gated: requesting true
// while emergency-stopped is a no-op (stored as false).
func (c *Config) SetEnabled(v bool) {
	if c.setEnabledRaw(v) {
		c.refreshStatusString()
	}
}

func (c *Config) setEnabledRaw(v bool) bool {
	c.mu.Lock()
	want := v && !c.emergencyStopped.Bool()
	if v && !want {
		// Gated request: leave the stored flag untouched and emit nothing.
		c.mu.Unlock()
		return false
	}
	wantTri := triOf(want)
	if c.enabled == wantTri {
		c.mu.Unlock()
		return false
	}
	c.enabled = wantTri
	c.mu.Unlock()
	c.emit(events.KindRobotEnabledChanged, want)
	return true
}

// EmergencyStopped returns whether the emergency-stop latch is engaged.
func (c *Config) EmergencyStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.emergencyStopped.Bool()
}

// SetEmergencyStopped sets the e-stop latch. Engaging it while enabled
// forces enabled false in the same call, preserving "enabled ⇒ ¬estopped"
// continuously rather than only at the next SetEnabled call.
func (c *Config) SetEmergencyStopped(v bool) {
	c.mu.Lock()
	wantTri := triOf(v)
	estopChanged := c.emergencyStopped != wantTri
	c.emergencyStopped = wantTri

	forceDisable := v && c.enabled.Bool()
	if forceDisable {
		c.enabled = TriFalse
	}
	c.mu.Unlock()

	if estopChanged {
		c.emit(events.KindRobotEStopChanged, v)
	}
	if forceDisable {
		c.emit(events.KindRobotEnabledChanged, false)
	}
	if estopChanged || forceDisable {
		c.refreshStatusString()
	}
}

// FMSComms, RadioComms, RobotComms report the three link-reachability
// flags.
func (c *Config) FMSComms() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fmsComms.Bool()
}

func (c *Config) RadioComms() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.radioComms.Bool()
}

func (c *Config) RobotComms() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.robotComms.Bool()
}

// SetFMSComms, SetRadioComms, SetRobotComms write-through the three
// reachability flags; SetRobotComms additionally refreshes the derived
// status string since robot comms participates in it.
func (c *Config) SetFMSComms(v bool) {
	c.setTri(&c.fmsComms, v, events.KindFMSCommsChanged, false)
}

func (c *Config) SetRadioComms(v bool) {
	c.setTri(&c.radioComms, v, events.KindRadioCommsChanged, false)
}

func (c *Config) SetRobotComms(v bool) {
	c.setTri(&c.robotComms, v, events.KindRobotCommsChanged, true)
}

// setTri is the shared tri-state write-through helper; refreshStatus
// controls whether a changed value also recomputes the derived status
// string.
func (c *Config) setTri(field *Tri, v bool, kind events.Kind, refreshStatus bool) {
	if c.setTriRaw(field, v, kind) && refreshStatus {
		c.refreshStatusString()
	}
}

// setTriRaw performs the write-through and event emission only, leaving
// status-string recomputation to the caller. Used when several fields must
// change before a single status-string-changed event is derived, as in
// OnRobotWatchdogExpired's documented event order.
func (c *Config) setTriRaw(field *Tri, v bool, kind events.Kind) bool {
	c.mu.Lock()
	wantTri := triOf(v)
	if *field == wantTri {
		c.mu.Unlock()
		return false
	}
	*field = wantTri
	c.mu.Unlock()
	c.emit(kind, v)
	return true
}

// CPU, RAM, Disk, CAN return the clamped utilization percentages.
func (c *Config) CPU() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cpu
}

func (c *Config) RAM() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ram
}

func (c *Config) Disk() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disk
}

func (c *Config) CAN() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.can
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SetCPU, SetRAM, SetDisk, SetCAN clamp their input to [0, 100] and emit the
// matching event only on an actual change.
func (c *Config) SetCPU(v float64) { c.setUtilization(&c.cpu, v, events.KindRobotCPUChanged) }
func (c *Config) SetRAM(v float64) { c.setUtilization(&c.ram, v, events.KindRobotRAMChanged) }
func (c *Config) SetDisk(v float64) { c.setUtilization(&c.disk, v, events.KindRobotDiskChanged) }
func (c *Config) SetCAN(v float64) { c.setUtilization(&c.can, v, events.KindRobotCANChanged) }

func (c *Config) setUtilization(field *float64, v float64, kind events.Kind) {
	clamped := clampPercent(v)
	c.mu.Lock()
	if *field == clamped {
		c.mu.Unlock()
		return
	}
	*field = clamped
	c.mu.Unlock()
	c.emit(kind, clamped)
}

// Voltage returns the stored battery voltage, rounded to two decimals.
func (c *Config) Voltage() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voltage
}

// SetVoltage rounds v to two decimal places and write-throughs it.
func (c *Config) SetVoltage(v float64) {
	c.setVoltageRaw(v)
}

func (c *Config) setVoltageRaw(v float64) bool {
	rounded := math.Round(v*100) / 100
	c.mu.Lock()
	if c.voltage == rounded {
		c.mu.Unlock()
		return false
	}
	c.voltage = rounded
	c.mu.Unlock()
	c.emit(events.KindRobotVoltageChanged, rounded)
	return true
}

// GameData returns the short game-data string.
func (c *Config) GameData() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameData
}

// SetGameData write-throughs the game-data string; no event kind exists
// for it, so this is a silent store-only update.
func (c *Config) SetGameData(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameData = v
}

// FMSAddressOverride, RadioAddressOverride, RobotAddressOverride return the
// raw override strings (empty means "use protocol default").
func (c *Config) FMSAddressOverride() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fmsOverride
}

func (c *Config) RadioAddressOverride() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.radioOverride
}

func (c *Config) RobotAddressOverride() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.robotOverride
}

func (c *Config) SetFMSAddressOverride(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fmsOverride = v
}

func (c *Config) SetRadioAddressOverride(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radioOverride = v
}

func (c *Config) SetRobotAddressOverride(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.robotOverride = v
}

// AppliedAddress resolves an override against a protocol-computed default:
// the override wins when nonempty, otherwise the default is used. This
// keeps Config decoupled from any specific protocol's address formula.
func AppliedAddress(override, protocolDefault string) string {
	if override != "" {
		return override
	}
	return protocolDefault
}

// RobotLibVersion, PCMVersion, PDPVersion return the opaque version
// strings an embedder has already fetched out-of-band — fetching them is
// out of scope here; only storing/exposing the result is ours.
func (c *Config) RobotLibVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.robotLibVersion
}

func (c *Config) PCMVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pcmVersion
}

func (c *Config) PDPVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pdpVersion
}

func (c *Config) SetPCMVersion(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pcmVersion = v
}

func (c *Config) SetPDPVersion(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pdpVersion = v
}

// SetRobotLibVersion write-throughs the robot code's reported library
// version and emits robot-version-changed. Unlike every safety-relevant
// setter above, it performs no validation of its own; the minimum-version
// advisory check is applied separately by the caller (see
// internal/store/version.go) and never influences this setter's outcome.
func (c *Config) SetRobotLibVersion(v string) {
	c.mu.Lock()
	if c.robotLibVersion == v {
		c.mu.Unlock()
		return
	}
	c.robotLibVersion = v
	c.mu.Unlock()
	c.emit(events.KindRobotVersionChanged, v)
}

// StatusString returns the derived human-readable status string.
func (c *Config) StatusString() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusStringLocked()
}

func (c *Config) statusStringLocked() string {
	switch {
	case !c.robotComms.Bool():
		return "No Robot Communications"
	case !c.codeLoaded.Bool():
		return "No Robot Code"
	case c.emergencyStopped.Bool():
		return "Emergency Stopped"
	case c.enabled.Bool():
		return string(c.controlMode) + " Enabled"
	default:
		return string(c.controlMode) + " Disabled"
	}
}

// refreshStatusString is called whenever one of the fields the status
// string depends on (robot comms, code, mode, enabled, e-stop) changed, and
// emits status-string-changed each time, even if the derived text is the
// same as before.
func (c *Config) refreshStatusString() {
	c.mu.Lock()
	current := c.statusStringLocked()
	c.lastStatusString = current
	c.mu.Unlock()
	c.emit(events.KindStatusStringChanged, current)
}

// AddNetConsoleMessage forwards a diagnostic line from the robot to the
// event queue.
func (c *Config) AddNetConsoleMessage(line string) {
	c.emit(events.KindNetConsoleMessage, line)
}

// OnFMSWatchdogExpired applies the FMS-expiry reset: FMS comms goes
// false. Config has no endpoint reference and rebinds nothing; the
// engine's expiry path does not rebind the FMS endpoint either.
func (c *Config) OnFMSWatchdogExpired() {
	c.SetFMSComms(false)
}

// OnRadioWatchdogExpired applies the radio-expiry reset.
func (c *Config) OnRadioWatchdogExpired() {
	c.SetRadioComms(false)
}

// OnRobotWatchdogExpired applies the robot-expiry reset: code, enabled,
// voltage, and all utilizations drop to their safe defaults; robot comms
// goes false. Fields are mutated in a fixed order (comms, code, voltage,
// enabled) with a single trailing status-string-changed, rather than one
// status refresh per field.
func (c *Config) OnRobotWatchdogExpired() {
	changed := false
	changed = c.setTriRaw(&c.robotComms, false, events.KindRobotCommsChanged) || changed
	changed = c.setTriRaw(&c.codeLoaded, false, events.KindRobotCodeChanged) || changed
	changed = c.setVoltageRaw(0) || changed
	changed = c.setEnabledRaw(false) || changed

	c.mu.Lock()
	c.emergencyStopped = TriFalse
	c.cpu, c.ram, c.disk, c.can = 0, 0, 0, 0
	c.mu.Unlock()

	if changed {
		c.refreshStatusString()
	}
}
