package debugserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldstation/dsengine/internal/events"
	"github.com/fieldstation/dsengine/internal/facade"
)

func newTestClient(t *testing.T) *facade.Client {
	t.Helper()
	c := facade.New(16)
	c.Init()
	t.Cleanup(c.Close)
	return c
}

func TestHandleHealthzBeforeInit(t *testing.T) {
	c := facade.New(16)
	s := New(Config{}, c, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 before Init", rec.Code)
	}
}

func TestHandleStatusReflectsFacadeState(t *testing.T) {
	c := newTestClient(t)
	c.SetTeam(1114)

	s := New(Config{}, c, nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
	var snap statusSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode status body: %v", err)
	}
	if snap.Team != 1114 {
		t.Fatalf("team = %d, want 1114", snap.Team)
	}
}

func TestSinkForwardsEventsToHub(t *testing.T) {
	c := newTestClient(t)
	s := New(Config{}, c, nil)
	go s.hub.run()

	dash := &client{id: "test-dashboard", send: make(chan []byte, 1)}
	s.hub.register <- dash

	sink := s.Sink()
	rec := events.Record{Kind: events.KindRobotEnabledChanged, Payload: true}
	if err := sink.Publish(context.Background(), rec); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case <-dash.send:
	case <-time.After(time.Second):
		t.Fatal("expected the published event to reach a registered dashboard client")
	}

	if err := sink.(interface {
		Close() error
	}).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestRouterServesHealthzAndStatus(t *testing.T) {
	c := newTestClient(t)
	s := New(Config{}, c, nil)
	r := s.router()

	for _, path := range []string{"/healthz", "/status"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
