package singleinstance

// This file defines the API for single-instance ownership and command
// delegation. A second invocation (for example `screen-rec --toggle` bound
// to a shell shortcut) finds the resident process over loopback TCP and
// forwards its command instead of starting another instance.

import (
	"context"
)

// Commands a secondary invocation can forward to the resident.
const (
	CommandStart  = "START"
	CommandStop   = "STOP"
	CommandToggle = "TOGGLE"
	CommandStatus = "STATUS"
)

// Server owns the TCP endpoint and answers forwarded commands.
type Server interface {
	// Start begins listening on the start port of the configured range and
	// accepting client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess sends success with an optional reply payload (status
	// text, saved file path).
	RespondSuccess(text string) error
	// RespondError sends an error with a human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request is a single forwarded command.
type Request struct {
	Command string
}

// Client attempts to delegate a command to a resident server.
type Client interface {
	// Send scans the configured TCP range, performs the PING handshake, and
	// forwards the command. If no resident is found, returns
	// delegated=false, err=nil.
	Send(ctx context.Context, command string) (delegated bool, reply string, err error)
}

// NewServer returns the TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns the TCP implementation.
func NewClient() Client { return newTcpClient() }
