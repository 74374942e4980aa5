package store

import (
	"testing"

	"github.com/fieldstation/dsengine/internal/events"
)

func TestJoystickRejectAllZero(t *testing.T) {
	q := events.New(32)
	c := NewConfig(q, nil)
	j := NewJoysticks(c, q)

	if j.Add(0, 0, 0) {
		t.Fatal("expected all-zero joystick to be rejected")
	}
	if j.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", j.Count())
	}
	if len(drain(q)) != 0 {
		t.Fatal("expected no event for rejected joystick")
	}
}

func TestJoystickNeutralWhenDisabled(t *testing.T) {
	q := events.New(32)
	c := NewConfig(q, nil)
	j := NewJoysticks(c, q)
	j.Add(4, 10, 1)

	j.SetAxis(0, 0, 0.75)
	j.SetButton(0, 2, true)
	j.SetHat(0, 0, 90)

	// Robot is disabled by default.
	if got := j.GetAxis(0, 0); got != 0.0 {
		t.Fatalf("GetAxis while disabled = %f, want 0", got)
	}
	if got := j.GetButton(0, 2); got != false {
		t.Fatalf("GetButton while disabled = %v, want false", got)
	}
	if got := j.GetHat(0, 0); got != 0 {
		t.Fatalf("GetHat while disabled = %d, want 0", got)
	}

	c.SetEnabled(true)
	if got := j.GetAxis(0, 0); got != 0.75 {
		t.Fatalf("GetAxis while enabled = %f, want 0.75", got)
	}
	if got := j.GetButton(0, 2); got != true {
		t.Fatalf("GetButton while enabled = %v, want true", got)
	}
	if got := j.GetHat(0, 0); got != 90 {
		t.Fatalf("GetHat while enabled = %d, want 90", got)
	}
}

func TestJoystickOutOfRangeIgnored(t *testing.T) {
	q := events.New(32)
	c := NewConfig(q, nil)
	j := NewJoysticks(c, q)
	j.Add(2, 2, 1)

	j.SetAxis(0, 5, 0.5)   // out of range axis, ignored
	j.SetButton(5, 0, true) // out of range joystick, ignored
	j.SetHat(0, 0, 999)     // invalid angle, ignored

	c.SetEnabled(true)
	if got := j.GetAxis(0, 0); got != 0 {
		t.Fatalf("unexpected axis mutation: %f", got)
	}
	if got := j.GetHat(0, 0); got != 0 {
		t.Fatalf("unexpected hat mutation: %d", got)
	}
}

func TestJoystickResetStartsNewEpoch(t *testing.T) {
	q := events.New(32)
	c := NewConfig(q, nil)
	j := NewJoysticks(c, q)
	j.Add(1, 1, 1)
	j.Reset()
	if j.Count() != 0 {
		t.Fatalf("Count() after Reset = %d, want 0", j.Count())
	}
}
