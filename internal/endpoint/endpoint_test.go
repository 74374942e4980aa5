package endpoint

import (
	"testing"
	"time"
)

func TestUDPSendRecvLoopback(t *testing.T) {
	aPort, bPort := 17001, 17002

	a := New(Template{LocalPort: aPort, RemotePort: bPort, Transport: UDP}, "127.0.0.1", nil)
	b := New(Template{LocalPort: bPort, RemotePort: aPort, Transport: UDP}, "127.0.0.1", nil)

	if err := a.Open(); err != nil {
		t.Fatalf("a.Open() = %v", err)
	}
	defer a.Close()
	if err := b.Open(); err != nil {
		t.Fatalf("b.Open() = %v", err)
	}
	defer b.Close()

	n := a.Send([]byte("hello"))
	if n <= 0 {
		t.Fatalf("Send() = %d, want > 0", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	var got []byte
	for time.Now().Before(deadline) {
		got = b.Recv()
		if got != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if string(got) != "hello" {
		t.Fatalf("Recv() = %q, want %q", got, "hello")
	}
}

func TestDisabledEndpointSendIsNoop(t *testing.T) {
	e := New(Template{LocalPort: 0, RemotePort: 1, Transport: UDP}, "256.256.256.256", nil)
	e.disabled = true
	if n := e.Send([]byte("x")); n != 0 {
		t.Fatalf("Send() on disabled endpoint = %d, want 0", n)
	}
}

func TestReceiveOnlyEndpointNeverSends(t *testing.T) {
	e := New(Template{LocalPort: 17003, RemotePort: 17004, Transport: UDP, ReceiveOnly: true}, "127.0.0.1", nil)
	if err := e.Open(); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer e.Close()
	if n := e.Send([]byte("x")); n != 0 {
		t.Fatalf("Send() on receive-only endpoint = %d, want 0", n)
	}
}
