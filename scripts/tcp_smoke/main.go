package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

type peer struct {
	name string
	conn net.Conn
	r    *bufio.Reader
}

func main() {
	addr := flag.String("addr", "127.0.0.1:12345", "chat server address")
	from := flag.String("from", "smoke-a", "sender nickname")
	to := flag.String("to", "smoke-b", "recipient nickname")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sender := mustDial(ctx, *addr, *from)
	defer sender.conn.Close()
	recipient := mustDial(ctx, *addr, *to)
	defer recipient.conn.Close()

	deadline, _ := ctx.Deadline()
	_ = sender.conn.SetDeadline(deadline)
	_ = recipient.conn.SetDeadline(deadline)

	sender.mustExpect("/register "+*from, "Nickname set to "+*from)
	recipient.mustExpect("/register "+*to, "Nickname set to "+*to)

	sender.mustExpect(*to+" "+*text, "Message sent successfully")

	got, err := recipient.r.ReadString('\n')
	if err != nil {
		log.Fatalf("%s read: %v", recipient.name, err)
	}
	want := *from + ": " + *text
	if strings.TrimRight(got, "\n") != want {
		log.Fatalf("%s received %q, want %q", recipient.name, got, want)
	}
	fmt.Printf("Delivered: %s\n", want)

	sender.mustExpect("/exit", "You have been removed from the server.")
	recipient.mustExpect("/exit", "You have been removed from the server.")
}

func mustDial(ctx context.Context, addr, name string) *peer {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Fatalf("%s dial: %v", name, err)
	}
	return &peer{name: name, conn: conn, r: bufio.NewReader(conn)}
}

func (p *peer) mustExpect(line, want string) {
	if _, err := p.conn.Write([]byte(line + "\n")); err != nil {
		log.Fatalf("%s send: %v", p.name, err)
	}
	got, err := p.r.ReadString('\n')
	if err != nil {
		log.Fatalf("%s read: %v", p.name, err)
	}
	if strings.TrimRight(got, "\n") != want {
		log.Fatalf("%s got %q, want %q", p.name, got, want)
	}
	fmt.Printf("%s: %s -> %s\n", p.name, line, want)
}
