package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/tcpchat/internal/netpoll"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// fakeConn records writes. Methods not overridden panic through the nil embedded Conn.
type fakeConn struct {
	net.Conn

	addr string

	mu       sync.Mutex
	out      bytes.Buffer
	closed   bool
	writeErr error
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{addr: addr}
}

func (c *fakeConn) Read([]byte) (int, error) { return 0, io.EOF }

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.out.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr { return fakeAddr(c.addr) }

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// lines drains everything written so far.
func (c *fakeConn) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw := c.out.String()
	c.out.Reset()
	if raw == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
}

// fakeMux is a readiness set fed by hand.
type fakeMux struct {
	events  chan netpoll.Event
	watched map[string]io.Reader
}

func newFakeMux() *fakeMux {
	return &fakeMux{
		events:  make(chan netpoll.Event),
		watched: make(map[string]io.Reader),
	}
}

func (m *fakeMux) Events() <-chan netpoll.Event { return m.events }

func (m *fakeMux) Watch(id string, r io.Reader) error {
	if _, ok := m.watched[id]; ok {
		return netpoll.ErrAlreadyWatched
	}
	m.watched[id] = r
	return nil
}

func (m *fakeMux) Forget(id string) (io.Reader, bool) {
	r, ok := m.watched[id]
	if !ok {
		return nil, false
	}
	delete(m.watched, id)
	return r, true
}

func (m *fakeMux) Watching(id string) bool {
	_, ok := m.watched[id]
	return ok
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
}

// harness runs a hub loop over a fakeMux.
type harness struct {
	t      *testing.T
	hub    *Hub
	mux    *fakeMux
	cancel context.CancelFunc
	done   chan struct{}
	conns  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mux := newFakeMux()
	hub := NewHub(mux, nil, WithIDGenerator(sequentialIDs()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	h := &harness{t: t, hub: hub, mux: mux, cancel: cancel, done: done}
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func (h *harness) push(ev netpoll.Event) {
	h.t.Helper()

	select {
	case h.mux.events <- ev:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("hub did not accept event %+v", ev)
	}
}

// connect accepts a new fake connection and returns it with its handle.
func (h *harness) connect() (*fakeConn, string) {
	h.t.Helper()

	h.conns++
	conn := newFakeConn(fmt.Sprintf("10.0.0.%d:5000", h.conns))
	h.push(netpoll.Event{Kind: netpoll.KindAccept, Conn: conn})
	return conn, fmt.Sprintf("c%d", h.conns)
}

func (h *harness) send(id, line string) {
	h.t.Helper()
	h.push(netpoll.Event{Kind: netpoll.KindData, ID: id, Data: []byte(line + "\n")})
}

// snapshot waits for every pushed event to be processed.
func (h *harness) snapshot() []ClientInfo {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	infos, err := h.hub.Snapshot(ctx)
	if err != nil {
		h.t.Fatalf("snapshot: %v", err)
	}
	return infos
}

// drain discards output written so far, after the hub is idle.
func (h *harness) drain(conns ...*fakeConn) {
	h.t.Helper()

	h.snapshot()
	for _, c := range conns {
		c.lines()
	}
}

func (h *harness) nickname(id string) string {
	h.t.Helper()

	for _, info := range h.snapshot() {
		if info.ID == id {
			return info.Nickname
		}
	}
	h.t.Fatalf("client %s not in registry", id)
	return ""
}

func mustLines(t *testing.T, conn *fakeConn, want ...string) {
	t.Helper()

	got := conn.lines()
	if len(got) != len(want) {
		t.Fatalf("expected lines %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
