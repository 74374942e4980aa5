package timer

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestIsExpiredEdge(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var tm Timer
	tm.now = clock.now
	tm.Init(20)
	tm.Start()

	if tm.IsExpired() {
		t.Fatal("expected not expired immediately after Start")
	}
	clock.advance(19 * time.Millisecond)
	if tm.IsExpired() {
		t.Fatal("expected not expired at 19ms of a 20ms period")
	}
	clock.advance(2 * time.Millisecond)
	if !tm.IsExpired() {
		t.Fatal("expected expired at 21ms of a 20ms period")
	}
	// Stays expired until Reset.
	if !tm.IsExpired() {
		t.Fatal("expected expiry to stay latched until Reset")
	}
	tm.Reset()
	if tm.IsExpired() {
		t.Fatal("expected not expired immediately after Reset")
	}
}

func TestStopSuppressesExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var tm Timer
	tm.now = clock.now
	tm.Init(5)
	tm.Start()
	tm.Stop()
	clock.advance(time.Second)
	if tm.IsExpired() {
		t.Fatal("a stopped timer must never report expired")
	}
}

func TestSetPeriodDoesNotResetEdge(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var tm Timer
	tm.now = clock.now
	tm.Init(100)
	tm.Start()
	clock.advance(10 * time.Millisecond)
	tm.SetPeriod(5)
	if !tm.IsExpired() {
		t.Fatal("expected expired once period shrinks below already-elapsed duration")
	}
}
