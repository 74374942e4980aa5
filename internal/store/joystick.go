package store

import (
	"sync"

	"github.com/fieldstation/dsengine/internal/events"
)

// joystick is a single per-joystick record: one collection owning its
// axes, buttons, and hats, rather than three raw parallel arrays indexed
// by joystick number.
type joystick struct {
	axes    []float64
	buttons []bool
	hats    []int
}

// validHatAngles enumerates every angle a POV hat may report.
var validHatAngles = map[int]bool{
	-1: true, 0: true, 45: true, 90: true, 135: true,
	180: true, 225: true, 270: true, 315: true,
}

// Joysticks is the ordered collection of connected joysticks. Reads of any
// axis/button/hat return neutral values whenever the robot is disabled —
// a hard safety contract independent of what is actually stored.
type Joysticks struct {
	mu     sync.Mutex
	sticks []*joystick
	cfg    *Config
	queue  *events.Queue
}

// NewJoysticks creates an empty joystick collection. cfg supplies the
// robot-enabled gate that read operations consult.
func NewJoysticks(cfg *Config, queue *events.Queue) *Joysticks {
	return &Joysticks{cfg: cfg, queue: queue}
}

func (j *Joysticks) emitCountChanged() {
	if j.queue != nil {
		j.queue.Push(events.Record{Kind: events.KindJoystickCountChanged, Payload: len(j.sticks)})
	}
}

// Reset empties the joystick collection, starting a new epoch, and emits
// joystick-count-changed.
func (j *Joysticks) Reset() {
	j.mu.Lock()
	j.sticks = nil
	j.mu.Unlock()
	j.emitCountChanged()
}

// Add appends a joystick with the given axis/button/hat counts, all
// initialized to neutral. A joystick with zero of everything is rejected:
// the count is unchanged and no event is emitted.
func (j *Joysticks) Add(numAxes, numButtons, numHats int) bool {
	if numAxes == 0 && numButtons == 0 && numHats == 0 {
		return false
	}
	j.mu.Lock()
	j.sticks = append(j.sticks, &joystick{
		axes:    make([]float64, numAxes),
		buttons: make([]bool, numButtons),
		hats:    make([]int, numHats),
	})
	j.mu.Unlock()
	j.emitCountChanged()
	return true
}

// Count returns the number of connected joysticks.
func (j *Joysticks) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.sticks)
}

// AxisCount, ButtonCount, HatCount return the per-joystick capability
// counts; 0 if js is out of range.
func (j *Joysticks) AxisCount(js int) int   { return j.capCount(js, func(s *joystick) int { return len(s.axes) }) }
func (j *Joysticks) ButtonCount(js int) int { return j.capCount(js, func(s *joystick) int { return len(s.buttons) }) }
func (j *Joysticks) HatCount(js int) int    { return j.capCount(js, func(s *joystick) int { return len(s.hats) }) }

func (j *Joysticks) capCount(js int, f func(*joystick) int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	if js < 0 || js >= len(j.sticks) {
		return 0
	}
	return f(j.sticks[js])
}

// SetAxis, SetButton, SetHat are bounds-checked writes; an out-of-range
// joystick, axis, button, or hat index is silently ignored.
func (j *Joysticks) SetAxis(js, axis int, value float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || axis < 0 || axis >= len(s.axes) {
		return
	}
	if value > 1.0 {
		value = 1.0
	} else if value < -1.0 {
		value = -1.0
	}
	s.axes[axis] = value
}

func (j *Joysticks) SetButton(js, btn int, pressed bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || btn < 0 || btn >= len(s.buttons) {
		return
	}
	s.buttons[btn] = pressed
}

func (j *Joysticks) SetHat(js, hat int, angle int) {
	if !validHatAngles[angle] {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || hat < 0 || hat >= len(s.hats) {
		return
	}
	s.hats[hat] = angle
}

func (j *Joysticks) stickLocked(js int) *joystick {
	if js < 0 || js >= len(j.sticks) {
		return nil
	}
	return j.sticks[js]
}

// GetAxis, GetButton, GetHat return the stored value only when the robot
// is enabled; otherwise they return the neutral value (0.0, false, 0)
// regardless of what is actually stored.
func (j *Joysticks) GetAxis(js, axis int) float64 {
	if !j.cfg.Enabled() {
		return 0.0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || axis < 0 || axis >= len(s.axes) {
		return 0.0
	}
	return s.axes[axis]
}

func (j *Joysticks) GetButton(js, btn int) bool {
	if !j.cfg.Enabled() {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || btn < 0 || btn >= len(s.buttons) {
		return false
	}
	return s.buttons[btn]
}

func (j *Joysticks) GetHat(js, hat int) int {
	if !j.cfg.Enabled() {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil || hat < 0 || hat >= len(s.hats) {
		return 0
	}
	return s.hats[hat]
}

// RawButtons returns the raw pressed-state slice for a joystick regardless
// of the enabled gate. The button-packing encoders operate on the wire
// value the robot will see, which must reflect neutral-when-disabled
// exactly like GetButton; encoders therefore call GetButton per index
// rather than this helper in production paths. RawButtons exists for
// tests that assert packing math independent of the enabled gate.
func (j *Joysticks) RawButtons(js int) []bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.stickLocked(js)
	if s == nil {
		return nil
	}
	out := make([]bool, len(s.buttons))
	copy(out, s.buttons)
	return out
}
