// Package netpoll multiplexes a listener and a set of connections into a
// single stream of readiness events, so one goroutine can own every
// connection's state while the runtime network poller does the waiting.
package netpoll

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Kind classifies a readiness report.
type Kind int

const (
	// KindAccept reports a newly accepted connection in Event.Conn.
	KindAccept Kind = iota
	// KindData reports the bytes of one bounded read in Event.Data.
	KindData
	// KindClosed reports an orderly close by the peer (zero-byte read).
	KindClosed
	// KindError reports a read or accept failure in Event.Err.
	// ID is empty when the listener failed.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindAccept:
		return "accept"
	case KindData:
		return "data"
	case KindClosed:
		return "closed"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one readiness report.
type Event struct {
	Kind Kind
	ID   string
	Conn net.Conn
	Data []byte
	Err  error
}

// ErrAlreadyWatched is returned by Watch for a handle that is already in the set.
var ErrAlreadyWatched = errors.New("handle already watched")

const (
	// DefaultBufferSize bounds a single read.
	DefaultBufferSize = 1024

	maxAcceptDelay = time.Second
)

type watch struct {
	r    io.Reader
	stop chan struct{}
}

// Poller owns the readiness set. Watch, Forget, Watching and Len are not
// safe for concurrent use: call them from the goroutine that drains Events.
type Poller struct {
	bufSize int
	events  chan Event
	watched map[string]*watch
	log     *zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	listeners []net.Listener
}

// New creates a poller whose reads are bounded by bufSize bytes.
func New(bufSize int, logger *zerolog.Logger) *Poller {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Poller{
		bufSize: bufSize,
		events:  make(chan Event),
		watched: make(map[string]*watch),
		log:     logger,
		done:    make(chan struct{}),
	}
}

// Events returns the channel every readiness report is delivered on.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Listen starts reporting connections accepted on ln. The listener is closed by Close.
func (p *Poller) Listen(ln net.Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, ln)
	p.mu.Unlock()

	go p.acceptLoop(ln)
}

// Watch adds a handle to the readiness set and starts reporting reads from r.
func (p *Poller) Watch(id string, r io.Reader) error {
	if _, ok := p.watched[id]; ok {
		return ErrAlreadyWatched
	}
	w := &watch{r: r, stop: make(chan struct{})}
	p.watched[id] = w
	go p.readLoop(id, w)
	return nil
}

// Forget removes a handle from the readiness set. A report for id that was
// already in flight may still be received afterwards; check Watching before
// acting on it. The reader is handed back; the caller owns it and must close
// it to release the read goroutine.
func (p *Poller) Forget(id string) (io.Reader, bool) {
	w, ok := p.watched[id]
	if !ok {
		return nil, false
	}
	delete(p.watched, id)
	close(w.stop)
	return w.r, true
}

// Watching reports whether id is in the readiness set.
func (p *Poller) Watching(id string) bool {
	_, ok := p.watched[id]
	return ok
}

// Len returns the number of watched handles.
func (p *Poller) Len() int {
	return len(p.watched)
}

// Close stops every listener and releases goroutines blocked on delivery.
func (p *Poller) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		defer p.mu.Unlock()
		for _, ln := range p.listeners {
			if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
	})
	return err
}

func (p *Poller) acceptLoop(ln net.Listener) {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if !p.send(nil, Event{Kind: KindError, Err: err}) {
				return
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			select {
			case <-time.After(delay):
			case <-p.done:
				return
			}
			continue
		}
		delay = 0

		if !p.send(nil, Event{Kind: KindAccept, Conn: conn}) {
			_ = conn.Close()
			return
		}
	}
}

func (p *Poller) readLoop(id string, w *watch) {
	buf := make([]byte, p.bufSize)
	for {
		n, err := w.r.Read(buf)

		var ev Event
		switch {
		case n > 0:
			data := make([]byte, n)
			copy(data, buf[:n])
			ev = Event{Kind: KindData, ID: id, Data: data}
		case errors.Is(err, io.EOF):
			ev = Event{Kind: KindClosed, ID: id}
		case err != nil:
			ev = Event{Kind: KindError, ID: id, Err: err}
		default:
			continue
		}

		if !p.send(w.stop, ev) {
			p.log.Debug().Str("conn_id", id).Stringer("kind", ev.Kind).Msg("dropped readiness for forgotten handle")
			return
		}
		if ev.Kind != KindData {
			return
		}
	}
}

func (p *Poller) send(stop <-chan struct{}, ev Event) bool {
	select {
	case <-stop:
		return false
	default:
	}

	select {
	case p.events <- ev:
		return true
	case <-stop:
		return false
	case <-p.done:
		return false
	}
}
