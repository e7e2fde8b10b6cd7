package actions

import (
	"net"
	"strconv"
	"testing"
	"time"

	"cpra/internal/engine"
)

func TestTCPPulseSucceedsWhenPortIsListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	p := &TCPPulse{Host: host, Port: port, Timeout: time.Second, Retries: 0}
	if err := p.Perform(&engine.ActionContext{}); err != nil {
		t.Fatalf("Perform: %v", err)
	}
}

func TestTCPPulseFailsAfterRetriesWhenNothingListens(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	ln.Close() // nothing listens on this port anymore

	p := &TCPPulse{Host: host, Port: port, Timeout: 100 * time.Millisecond, Retries: 1}
	if err := p.Perform(&engine.ActionContext{}); err == nil {
		t.Fatalf("Perform returned nil error when nothing was listening")
	}
}
