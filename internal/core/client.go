package core

import (
	"io"
	"time"

	"github.com/vovakirdan/tcpchat/internal/proto"
)

// Transport is the byte stream behind a client. net.Conn satisfies it.
type Transport interface {
	io.ReadWriteCloser
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Client is a connected peer as seen by the core layer.
type Client struct {
	ID          string
	RemoteAddr  string
	Nickname    string
	ConnectedAt time.Time

	transport Transport
}

// Registered reports whether the client holds a nickname.
func (c *Client) Registered() bool {
	return c.Nickname != ""
}

// send writes one framed line. A positive timeout bounds the write when the
// transport supports deadlines.
func (c *Client) send(text string, timeout time.Duration) error {
	if timeout > 0 {
		if d, ok := c.transport.(writeDeadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
		}
	}
	_, err := c.transport.Write(proto.EncodeLine(text))
	return err
}
