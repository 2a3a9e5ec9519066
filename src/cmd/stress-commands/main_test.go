package main

import (
	"testing"
	"time"

	"screen-rec/src/singleinstance"
)

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 50 {
		t.Fatalf("Expected default n=50, got %d", opts.n)
	}
	if opts.command != singleinstance.CommandStatus {
		t.Fatalf("Expected default command=STATUS, got %q", opts.command)
	}
	if opts.deadline != 5*time.Second {
		t.Fatalf("Expected default deadline=5s, got %v", opts.deadline)
	}
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--n", "3", "--command", "TOGGLE", "--deadline", "7s"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.n != 3 {
		t.Fatalf("Expected n=3, got %d", opts.n)
	}
	if opts.command != singleinstance.CommandToggle {
		t.Fatalf("Expected command=TOGGLE, got %q", opts.command)
	}
	if opts.deadline != 7*time.Second {
		t.Fatalf("Expected deadline=7s, got %v", opts.deadline)
	}
}
