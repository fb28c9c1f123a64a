package core

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tcpchat/internal/netpoll"
	"github.com/vovakirdan/tcpchat/internal/proto"
	"github.com/vovakirdan/tcpchat/internal/utils"
)

// Multiplexer reports readiness for the listener and every watched handle.
// *netpoll.Poller implements it.
type Multiplexer interface {
	Events() <-chan netpoll.Event
	Watch(id string, r io.Reader) error
	Forget(id string) (io.Reader, bool)
	Watching(id string) bool
}

// Option customizes a Hub.
type Option func(*Hub)

// WithWriteTimeout bounds every write to a client. Zero disables the bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

// WithIDGenerator replaces the handle generator.
func WithIDGenerator(fn func() string) Option {
	return func(h *Hub) {
		h.newID = fn
	}
}

type snapshotRequest struct {
	reply chan []ClientInfo
}

// Hub runs the event loop. All registry and readiness-set mutations happen
// on the goroutine executing Run.
type Hub struct {
	registry     *Registry
	mux          Multiplexer
	log          *zerolog.Logger
	writeTimeout time.Duration
	newID        func() string
	now          func() time.Time
	snapshots    chan snapshotRequest
}

// NewHub creates a hub reading readiness from mux.
func NewHub(mux Multiplexer, logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		registry:  NewRegistry(),
		mux:       mux,
		log:       logger,
		newID:     utils.NewID,
		now:       time.Now,
		snapshots: make(chan snapshotRequest),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes readiness until ctx is cancelled or the event stream ends,
// then closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	events := h.mux.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.handleEvent(ev)
		case req := <-h.snapshots:
			req.reply <- h.registry.Snapshot()
		}
	}
}

// Snapshot returns a copy of the registry taken inside the loop.
func (h *Hub) Snapshot(ctx context.Context) ([]ClientInfo, error) {
	req := snapshotRequest{reply: make(chan []ClientInfo, 1)}
	select {
	case h.snapshots <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case infos := <-req.reply:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handleEvent(ev netpoll.Event) {
	if ev.Kind == netpoll.KindAccept {
		h.admit(ev.Conn)
		return
	}
	if ev.ID == "" {
		h.log.Error().Err(ev.Err).Msg("accept failed")
		return
	}
	if !h.mux.Watching(ev.ID) {
		h.log.Debug().Str("conn_id", ev.ID).Stringer("kind", ev.Kind).Msg("readiness for closed handle ignored")
		return
	}
	client, ok := h.registry.Get(ev.ID)
	if !ok {
		h.log.Error().Str("conn_id", ev.ID).Msg("watched handle missing from registry")
		if r, ok := h.mux.Forget(ev.ID); ok {
			if c, isCloser := r.(io.Closer); isCloser {
				_ = c.Close()
			}
		}
		return
	}

	switch ev.Kind {
	case netpoll.KindData:
		line, err := proto.DecodeLine(ev.Data)
		if err != nil {
			h.log.Error().Err(err).Str("remote_addr", client.RemoteAddr).Msg("error handling message")
			h.disconnect(client.ID, "decode error")
			return
		}
		h.dispatch(client, line)
	case netpoll.KindClosed:
		h.log.Info().Str("remote_addr", client.RemoteAddr).Msg("connection closed by peer")
		h.disconnect(client.ID, "peer closed")
	case netpoll.KindError:
		if isReset(ev.Err) {
			h.log.Info().Str("remote_addr", client.RemoteAddr).Msg("connection reset by peer")
		} else {
			h.log.Error().Err(ev.Err).Str("remote_addr", client.RemoteAddr).Msg("read failed")
		}
		h.disconnect(client.ID, "read error")
	}
}

func (h *Hub) admit(conn net.Conn) {
	id := h.newID()
	remote := conn.RemoteAddr().String()

	if _, err := h.registry.Add(id, remote, conn, h.now()); err != nil {
		h.log.Error().Err(err).Str("remote_addr", remote).Msg("rejecting connection")
		_ = conn.Close()
		return
	}
	if err := h.mux.Watch(id, conn); err != nil {
		h.log.Error().Err(err).Str("remote_addr", remote).Msg("rejecting connection")
		_, _ = h.registry.Remove(id)
		_ = conn.Close()
		return
	}
	h.log.Info().Str("conn_id", id).Str("remote_addr", remote).Msg("new connection")
}

// disconnect is the terminal transition. It is a no-op for a handle that is
// already gone.
func (h *Hub) disconnect(id, reason string) {
	h.mux.Forget(id)
	client, ok := h.registry.Get(id)
	if !ok {
		return
	}
	if _, err := h.registry.Remove(id); err != nil {
		h.log.Error().Err(err).Str("conn_id", id).Msg("remove client")
		return
	}
	if err := client.transport.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		h.log.Debug().Err(err).Str("conn_id", id).Msg("close transport")
	}
	h.log.Debug().
		Str("conn_id", id).
		Str("nickname", client.Nickname).
		Str("reason", reason).
		Int("clients", h.registry.Len()).
		Msg("client disconnected")
}

func (h *Hub) closeAll() {
	for _, info := range h.registry.Snapshot() {
		h.disconnect(info.ID, "shutdown")
	}
}

func isReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
