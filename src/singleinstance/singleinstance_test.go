package singleinstance

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"
)

func TestServerClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	delegatedCh := make(chan struct{})
	go func() {
		defer close(delegatedCh)
		delegated, reply, err := client.Send(ctx, CommandToggle)
		if err != nil {
			t.Errorf("client: %v", err)
		}
		if !delegated {
			t.Errorf("expected delegation")
		}
		if reply != "recording started" {
			t.Errorf("reply = %q", reply)
		}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if conn.Request().Command != CommandToggle {
		t.Errorf("command = %q, want TOGGLE", conn.Request().Command)
	}
	if err := conn.RespondSuccess("recording started"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	// The reply payload is read until EOF, so the client only returns once
	// the resident closes its side.
	_ = conn.Close()
	<-delegatedCh
}

// A resident that replies but forgets to close the connection must not hang
// clients; the dial deadline bounds the payload read.
func TestClientReturnsWhenResidentHoldsConnection(t *testing.T) {
	t.Setenv("SCREENREC_PORT_START", "49630")
	t.Setenv("SCREENREC_PORT_END", "49630")

	lis, err := net.Listen("tcp", "127.0.0.1:49630")
	if err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer lis.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			c, err := lis.Accept()
			if err != nil {
				return
			}
			br := bufio.NewReader(c)
			line, _ := br.ReadString('\n')
			if line == "PING\n" {
				_, _ = c.Write([]byte("PONG\n"))
				_ = c.Close()
				continue
			}
			_, _ = c.Write([]byte("SUCCESS\nok"))
			// Hold the connection open instead of closing.
			go func(held net.Conn) {
				<-stop
				_ = held.Close()
			}(c)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	var delegated bool
	var reply string
	go func() {
		defer close(done)
		delegated, reply, _ = NewClient().Send(ctx, CommandStatus)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("client hung on a resident that never closed the connection")
	}
	if !delegated {
		t.Fatal("expected delegation to resident")
	}
	if reply != "ok" {
		t.Errorf("reply = %q, want ok", reply)
	}
}

func TestDetectResidentPort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	port, found := DetectResidentPort(ctx)
	if !found {
		t.Fatal("resident not detected")
	}
	if port != srv.Port() {
		t.Errorf("detected port %d, want %d", port, srv.Port())
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	client := NewClient()
	delegated, _, err := client.Send(ctx, "EXPLODE")
	if !delegated {
		t.Fatal("expected delegation to resident")
	}
	if err == nil {
		t.Error("unknown command did not error")
	}
}

func TestGetPortRangeClamps(t *testing.T) {
	t.Setenv("SCREENREC_PORT_START", "100")
	t.Setenv("SCREENREC_PORT_END", "70000")
	start, end := getPortRange()
	if start != 1024 || end != 65535 {
		t.Errorf("range = [%d,%d], want [1024,65535]", start, end)
	}
}
