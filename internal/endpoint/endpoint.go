// Package endpoint implements the local+remote socket pair the engine
// sends and receives through: one per stream (FMS, radio, robot,
// netconsole), built around net.UDPConn/net.TCPConn with a
// Connect/Disconnect lifecycle and reconnect support. The receive side is
// a single-slot mailbox: the listener goroutine overwrites it, latest
// datagram wins.
package endpoint

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Transport selects the socket kind an Endpoint opens.
type Transport int

const (
	UDP Transport = iota
	TCP
)

// maxRecvBuffer is the largest single buffer recv() retains.
const maxRecvBuffer = 4096

// Template describes how to construct an Endpoint: the protocol record
// carries one per stream (FMS, radio, robot, netconsole).
type Template struct {
	LocalPort   int
	RemotePort  int
	Transport   Transport
	Broadcast   bool
	ReceiveOnly bool // netconsole never sends
}

// Endpoint is one local-bound + remote-bound socket pair. The zero value
// is not usable; construct with New.
type Endpoint struct {
	mu sync.Mutex // serializes close-then-open rebinds

	template   Template
	remoteHost string
	disabled   bool

	udpConn *net.UDPConn
	tcpConn *net.TCPConn

	mailbox atomic.Pointer[[]byte]
	closeCh chan struct{}
	log     *zap.Logger
}

// New constructs an Endpoint from a template and an initial remote host.
// It does not open any socket; call Open.
func New(tpl Template, remoteHost string, log *zap.Logger) *Endpoint {
	if log == nil {
		log = zap.NewNop()
	}
	if remoteHost == "" {
		remoteHost = "0.0.0.0"
	}
	return &Endpoint{template: tpl, remoteHost: remoteHost, log: log}
}

// Open binds the local listener and, for TCP, connects to the remote
// host:port. Opening never blocks the caller past socket setup — DNS
// resolution and connect happen on the calling goroutine, but the engine
// invokes Open only from the dedicated configuration path, never from the
// per-cycle send/receive loop.
func (e *Endpoint) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openLocked()
}

func (e *Endpoint) openLocked() error {
	switch e.template.Transport {
	case UDP:
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: e.template.LocalPort})
		if err != nil {
			e.disabled = true
			return fmt.Errorf("endpoint: udp listen on %d: %w", e.template.LocalPort, err)
		}
		e.udpConn = conn
		e.disabled = false
		e.closeCh = make(chan struct{})
		go e.udpListenLoop(conn, e.closeCh)
		return nil
	case TCP:
		addr := net.JoinHostPort(e.remoteHost, fmt.Sprintf("%d", e.template.RemotePort))
		raddr, err := net.ResolveTCPAddr("tcp4", addr)
		if err != nil {
			e.disabled = true
			return fmt.Errorf("endpoint: resolve %s: %w", addr, err)
		}
		conn, err := net.DialTCP("tcp4", &net.TCPAddr{Port: e.template.LocalPort}, raddr)
		if err != nil {
			e.disabled = true
			return fmt.Errorf("endpoint: tcp dial %s: %w", addr, err)
		}
		e.tcpConn = conn
		e.disabled = false
		e.closeCh = make(chan struct{})
		go e.tcpListenLoop(conn, e.closeCh)
		return nil
	default:
		return fmt.Errorf("endpoint: unknown transport")
	}
}

func (e *Endpoint) udpListenLoop(conn *net.UDPConn, done chan struct{}) {
	buf := make([]byte, maxRecvBuffer)
	for {
		select {
		case <-done:
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		if n == 0 {
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		e.mailbox.Store(&out)
	}
}

func (e *Endpoint) tcpListenLoop(conn *net.TCPConn, done chan struct{}) {
	buf := make([]byte, maxRecvBuffer)
	for {
		select {
		case <-done:
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := conn.Read(buf)
		if err != nil {
			continue
		}
		if n == 0 {
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		e.mailbox.Store(&out)
	}
}

// Close stops the listener goroutine, closes the socket, and clears the
// receive slot. A disabled endpoint's Close is a harmless no-op.
func (e *Endpoint) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *Endpoint) closeLocked() {
	if e.closeCh != nil {
		close(e.closeCh)
		e.closeCh = nil
	}
	if e.udpConn != nil {
		e.udpConn.Close()
		e.udpConn = nil
	}
	if e.tcpConn != nil {
		e.tcpConn.Close()
		e.tcpConn = nil
	}
	e.mailbox.Store(nil)
}

// Send writes payload to the configured remote host:port. A disabled
// endpoint, or the receive-only netconsole template, makes this a no-op
// returning 0. Returns -1 on a write failure.
func (e *Endpoint) Send(payload []byte) int {
	e.mu.Lock()
	disabled := e.disabled
	receiveOnly := e.template.ReceiveOnly
	udpConn := e.udpConn
	tcpConn := e.tcpConn
	host := e.remoteHost
	port := e.template.RemotePort
	e.mu.Unlock()

	if disabled || receiveOnly {
		return 0
	}

	switch e.template.Transport {
	case UDP:
		if udpConn == nil {
			return -1
		}
		raddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
		if err != nil {
			return -1
		}
		n, err := udpConn.WriteToUDP(payload, raddr)
		if err != nil {
			return -1
		}
		return n
	case TCP:
		if tcpConn == nil {
			return -1
		}
		n, err := tcpConn.Write(payload)
		if err != nil {
			return -1
		}
		return n
	default:
		return -1
	}
}

// Recv returns the most recently received buffer and clears the slot. A
// nil/empty return means nothing arrived since the last call.
func (e *Endpoint) Recv() []byte {
	p := e.mailbox.Swap(nil)
	if p == nil {
		return nil
	}
	return *p
}

// SetAddress replaces the remote host and atomically reopens the
// endpoint (close then open), serialized by the endpoint's own mutex so
// no send races the rebind.
func (e *Endpoint) SetAddress(host string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
	e.remoteHost = host
	return e.openLocked()
}

// Disabled reports whether the endpoint's last open attempt failed; it
// stays disabled until the next configure or address change.
func (e *Endpoint) Disabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disabled
}
