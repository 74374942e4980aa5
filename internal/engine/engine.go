// Package engine implements the single loop that owns three sender
// timers, three receive watchdogs, and the four endpoints (FMS, radio,
// robot, netconsole), driving whichever protocol.Record is currently
// installed. A single time.Ticker-driven goroutine owns all
// send/receive/watchdog sequencing, so no lock is needed around the
// sequencing decisions themselves.
package engine

import (
	"sync"
	"time"

	"github.com/fieldstation/dsengine/internal/endpoint"
	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/store"
	"github.com/fieldstation/dsengine/internal/timer"
	"go.uber.org/zap"
)

// pollInterval is the engine loop's steady polling cadence.
const pollInterval = 5 * time.Millisecond

// Counters tracks the per-stream packet and byte accounting.
type Counters struct {
	SentPackets, RecvPackets     uint64
	SentBytes, RecvBytes         uint64
}

// Engine owns the installed protocol, its endpoints, timers, and
// watchdogs. The zero value is not usable; construct with New.
type Engine struct {
	mu sync.Mutex // guards installation swap only; the loop itself is single-goroutine

	cfg    *store.Config
	js     *store.Joysticks
	queue  *events.Queue
	ctx    *protocol.Context
	record *protocol.Record
	log    *zap.Logger

	fmsEndpoint, radioEndpoint, robotEndpoint, netconsoleEndpoint *endpoint.Endpoint

	fmsSendTimer, radioSendTimer, robotSendTimer       timer.Timer
	fmsWatchdog, radioWatchdog, robotWatchdog           timer.Timer

	fmsCounters, radioCounters, robotCounters Counters
	fmsConnected, radioConnected, robotConnected bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs an Engine bound to the given stores and event queue. No
// protocol is installed and no sockets are open until Configure is called.
func New(cfg *store.Config, js *store.Joysticks, queue *events.Queue, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:   cfg,
		js:    js,
		queue: queue,
		ctx:   protocol.NewContext(cfg, js),
		log:   log,
	}
}

func watchdogPeriodMS(intervalMS int64) int64 {
	period := 50 * intervalMS
	if period > 1000 || intervalMS == 0 {
		return 1000
	}
	return period
}

// Configure installs a new protocol: closes any existing endpoints, opens
// fresh ones from the record's templates, resets timers/watchdogs/counters,
// and emits a netconsole notification. No packet is sent, no data is
// consumed, and no watchdog ticks while no protocol is installed — until
// this method has run, tick returns early and SetAddresses is a no-op.
func (e *Engine) Configure(rec protocol.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeEndpointsLocked()

	r := rec
	e.record = &r

	applied := store.AppliedAddress(e.cfg.FMSAddressOverride(), r.FMSAddress(e.cfg.Team()))
	e.fmsEndpoint = endpoint.New(r.FMSTemplate, applied, e.log)
	e.radioEndpoint = endpoint.New(r.RadioTemplate, store.AppliedAddress(e.cfg.RadioAddressOverride(), r.RadioAddress(e.cfg.Team())), e.log)
	e.robotEndpoint = endpoint.New(r.RobotTemplate, store.AppliedAddress(e.cfg.RobotAddressOverride(), r.RobotAddress(e.cfg.Team())), e.log)
	e.netconsoleEndpoint = endpoint.New(r.NetConsoleTemplate, "0.0.0.0", e.log)

	e.fmsEndpoint.Open()
	e.radioEndpoint.Open()
	e.robotEndpoint.Open()
	e.netconsoleEndpoint.Open()

	e.fmsSendTimer.Init(r.FMSIntervalMS)
	e.radioSendTimer.Init(r.RadioIntervalMS)
	e.robotSendTimer.Init(r.RobotIntervalMS)
	e.fmsWatchdog.Init(watchdogPeriodMS(r.FMSIntervalMS))
	e.radioWatchdog.Init(watchdogPeriodMS(r.RadioIntervalMS))
	e.robotWatchdog.Init(watchdogPeriodMS(r.RobotIntervalMS))

	e.fmsSendTimer.Start()
	e.radioSendTimer.Start()
	e.robotSendTimer.Start()
	e.fmsWatchdog.Start()
	e.radioWatchdog.Start()
	e.robotWatchdog.Start()

	e.fmsCounters = Counters{}
	e.radioCounters = Counters{}
	e.robotCounters = Counters{}
	e.fmsConnected, e.radioConnected, e.robotConnected = false, false, false

	e.cfg.AddNetConsoleMessage("protocol configured: " + r.Name)
}

func (e *Engine) closeEndpointsLocked() {
	for _, ep := range []*endpoint.Endpoint{e.fmsEndpoint, e.radioEndpoint, e.robotEndpoint, e.netconsoleEndpoint} {
		if ep != nil {
			ep.Close()
		}
	}
	e.fmsEndpoint, e.radioEndpoint, e.robotEndpoint, e.netconsoleEndpoint = nil, nil, nil, nil
}

// Run starts the engine's poll loop in its own goroutine and returns
// immediately. Call Stop to halt it.
func (e *Engine) Run() {
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.loop()
}

// Stop halts the poll loop, blocking until it has exited, then closes
// every endpoint.
func (e *Engine) Stop() {
	if e.stopCh != nil {
		close(e.stopCh)
		<-e.doneCh
	}
	e.mu.Lock()
	e.closeEndpointsLocked()
	e.mu.Unlock()
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick runs one engine cycle: send phase, then receive phase, then
// watchdog phase — in that fixed order, so a packet sent this cycle
// cannot reset its own watchdog.
func (e *Engine) tick() {
	e.mu.Lock()
	rec := e.record
	e.mu.Unlock()
	if rec == nil {
		return
	}

	e.sendPhase(rec)
	fmsOK, radioOK, robotOK := e.receivePhase(rec)
	e.watchdogPhase(rec, fmsOK, radioOK, robotOK)
}

func (e *Engine) sendPhase(rec *protocol.Record) {
	if e.fmsSendTimer.IsExpired() {
		e.send(e.fmsEndpoint, rec.EncodeFMS, &e.fmsCounters)
		e.fmsSendTimer.Reset()
	}
	if rec.RadioIntervalMS > 0 && e.radioSendTimer.IsExpired() {
		e.send(e.radioEndpoint, rec.EncodeRadio, &e.radioCounters)
		e.radioSendTimer.Reset()
	}
	if e.robotSendTimer.IsExpired() {
		e.send(e.robotEndpoint, rec.EncodeRobot, &e.robotCounters)
		e.robotSendTimer.Reset()
	}
}

func (e *Engine) send(ep *endpoint.Endpoint, encode func(*protocol.Context) []byte, counters *Counters) {
	if ep == nil || encode == nil {
		return
	}
	payload := encode(e.ctx)
	if payload == nil {
		return
	}
	counters.SentPackets++
	n := ep.Send(payload)
	if n > 0 {
		counters.SentBytes += uint64(n)
	}
}

func (e *Engine) receivePhase(rec *protocol.Record) (fmsOK, radioOK, robotOK bool) {
	fmsOK = e.receive(e.fmsEndpoint, rec.DecodeFMS, &e.fmsCounters)
	radioOK = e.receive(e.radioEndpoint, rec.DecodeRadio, &e.radioCounters)
	robotOK = e.receive(e.robotEndpoint, rec.DecodeRobot, &e.robotCounters)

	if e.netconsoleEndpoint != nil {
		if data := e.netconsoleEndpoint.Recv(); len(data) > 0 {
			e.cfg.AddNetConsoleMessage(string(data))
		}
	}
	return
}

func (e *Engine) receive(ep *endpoint.Endpoint, decode func(*protocol.Context, []byte) bool, counters *Counters) bool {
	if ep == nil || decode == nil {
		return false
	}
	data := ep.Recv()
	if len(data) == 0 {
		return false
	}
	counters.RecvPackets++
	counters.RecvBytes += uint64(len(data))
	return decode(e.ctx, data)
}

// watchdogPhase resets each watchdog whose stream succeeded this cycle,
// updates the matching comms flag, and — for any watchdog that expired —
// invokes the protocol's reset hook and resets the watchdog so it starts a
// fresh period. Expired watchdogs are processed FMS, then radio, then
// robot, a fixed tie-break order. No endpoint is rebound on expiry;
// endpoints rebind only through Configure and SetAddresses.
func (e *Engine) watchdogPhase(rec *protocol.Record, fmsOK, radioOK, robotOK bool) {
	e.settleWatchdog(&e.fmsWatchdog, fmsOK, e.cfg.SetFMSComms, &e.fmsConnected, &e.fmsCounters, rec.ResetFMS)
	e.settleWatchdog(&e.radioWatchdog, radioOK, e.cfg.SetRadioComms, &e.radioConnected, &e.radioCounters, rec.ResetRadio)
	e.settleWatchdog(&e.robotWatchdog, robotOK, e.cfg.SetRobotComms, &e.robotConnected, &e.robotCounters, rec.ResetRobot)
}

// settleWatchdog resets the watchdog when its stream succeeded this
// cycle, or invokes the protocol's reset hook when it expired, and zeroes
// the stream's counters on either direction of a comms-flag transition.
func (e *Engine) settleWatchdog(wd *timer.Timer, ok bool, setComms func(bool), connected *bool, counters *Counters, resetHook func(*protocol.Context)) {
	if ok {
		wd.Reset()
		if !*connected {
			*counters = Counters{}
			*connected = true
		}
		setComms(true)
		return
	}
	if wd.IsExpired() {
		if resetHook != nil {
			resetHook(e.ctx)
		}
		setComms(false)
		if *connected {
			*counters = Counters{}
			*connected = false
		}
		wd.Reset()
	}
}

// FMSCounters, RadioCounters, RobotCounters expose the per-stream packet
// and byte counters for observability (telemetry/debugserver consumers).
func (e *Engine) FMSCounters() Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fmsCounters
}

func (e *Engine) RadioCounters() Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.radioCounters
}

func (e *Engine) RobotCounters() Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.robotCounters
}

// Context exposes the protocol context, primarily so the facade can issue
// reboot/restart-code requests without the engine needing its own
// dedicated setter for each.
func (e *Engine) Context() *protocol.Context { return e.ctx }

// SetAddresses forces the three endpoints to rebind against the
// currently-applied addresses; called by the facade whenever a custom
// address override or the team number changes.
func (e *Engine) SetAddresses() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record == nil {
		return
	}
	team := e.cfg.Team()
	if e.fmsEndpoint != nil {
		e.fmsEndpoint.SetAddress(store.AppliedAddress(e.cfg.FMSAddressOverride(), e.record.FMSAddress(team)))
	}
	if e.radioEndpoint != nil {
		e.radioEndpoint.SetAddress(store.AppliedAddress(e.cfg.RadioAddressOverride(), e.record.RadioAddress(team)))
	}
	if e.robotEndpoint != nil {
		e.robotEndpoint.SetAddress(store.AppliedAddress(e.cfg.RobotAddressOverride(), e.record.RobotAddress(team)))
	}
}
