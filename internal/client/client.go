// Package client is a line-oriented terminal client for the chat server.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/vovakirdan/tcpchat/internal/proto"
)

type closeWriter interface {
	CloseWrite() error
}

// Run dials addr, registers nick when it is non-empty, then relays lines from
// in to the server and everything the server sends to out. It returns when
// the server closes the connection, when in is exhausted and the server has
// hung up, or when ctx is cancelled.
func Run(ctx context.Context, addr, nick string, in io.Reader, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	r := bufio.NewReader(conn)
	if nick != "" {
		if _, err := conn.Write(proto.EncodeLine(proto.CommandRegister + " " + nick)); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		// Wait for the answer so the next line is not read together with it.
		reply, err := r.ReadString('\n')
		if _, werr := io.WriteString(out, reply); werr != nil {
			return werr
		}
		if err != nil {
			return serverClosed(ctx, err)
		}
	}

	incoming := make(chan error, 1)
	go func() {
		_, err := io.Copy(out, r)
		incoming <- err
	}()

	outgoing := make(chan error, 1)
	go func() {
		outgoing <- sendLines(in, conn)
	}()

	select {
	case err := <-incoming:
		return serverClosed(ctx, err)
	case err := <-outgoing:
		if err != nil {
			return serverClosed(ctx, err)
		}
		if cw, ok := conn.(closeWriter); ok {
			_ = cw.CloseWrite()
		}
		return serverClosed(ctx, <-incoming)
	case <-ctx.Done():
		return nil
	}
}

func sendLines(in io.Reader, conn net.Conn) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if _, err := conn.Write(proto.EncodeLine(scanner.Text())); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	return scanner.Err()
}

func serverClosed(ctx context.Context, err error) error {
	if err == nil || err == io.EOF || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("connection: %w", err)
}
