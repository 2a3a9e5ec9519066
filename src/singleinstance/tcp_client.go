package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, command string) (bool, string, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	// Scan configured range for a resident using PING, then forward.
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, deadline) {
			continue
		}
		conn, err := net.DialTimeout("tcp", addr, deadline)
		if err != nil {
			continue
		}
		// A resident that never closes its side must not hang us past the
		// deadline; the reply payload read below runs until EOF.
		_ = conn.SetDeadline(time.Now().Add(deadline))
		w := bufio.NewWriter(conn)
		if _, err := w.WriteString(command + "\n"); err != nil {
			conn.Close()
			return true, "", err
		}
		if err := w.Flush(); err != nil {
			conn.Close()
			return true, "", err
		}
		br := bufio.NewReader(conn)
		status, err := br.ReadString('\n')
		if err != nil {
			conn.Close()
			return true, "", err
		}
		if status == "SUCCESS\n" {
			b, _ := io.ReadAll(br)
			conn.Close()
			return true, string(b), nil
		}
		if status == "ERROR\n" {
			msg, _ := io.ReadAll(br)
			conn.Close()
			return true, "", errors.New(string(msg))
		}
		conn.Close()
	}
	return false, "", nil
}
