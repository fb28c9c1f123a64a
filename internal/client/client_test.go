package client

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer answers every line with "echo: <line>" and records what it saw.
func fakeServer(t *testing.T) (string, <-chan []string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	seen := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var lines []string
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, line)
			if _, err := conn.Write([]byte("echo: " + line + "\n")); err != nil {
				break
			}
		}
		seen <- lines
	}()
	return ln.Addr().String(), seen
}

func TestRunRegistersAndRelays(t *testing.T) {
	addr, seen := fakeServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := strings.NewReader("bob hello\n")
	var out bytes.Buffer

	require.NoError(t, Run(ctx, addr, "alice", in, &out))

	select {
	case lines := <-seen:
		require.Equal(t, []string{"/register alice", "bob hello"}, lines)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish")
	}
	require.Equal(t, "echo: /register alice\necho: bob hello\n", out.String())
}

func TestRunWithoutNickname(t *testing.T) {
	addr, seen := fakeServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, Run(ctx, addr, "", strings.NewReader(""), &out))

	select {
	case lines := <-seen:
		require.Empty(t, lines)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish")
	}
	require.Empty(t, out.String())
}

func TestRunDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = Run(context.Background(), addr, "alice", strings.NewReader(""), &bytes.Buffer{})
	require.ErrorContains(t, err, "dial")
}
