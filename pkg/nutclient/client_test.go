// SPDX-License-Identifier: BSD-3-Clause

package nutclient

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeUpsd is a minimal upsd stand-in driven by a script of
// request->reply(s), enough to exercise this package's framing without a
// real NUT daemon.
func fakeUpsd(t *testing.T, handle func(conn net.Conn, req string)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			handle(conn, strings.TrimRight(line, "\r\n"))
		}
	}()

	return ln.Addr().String()
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestListDevices(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		switch req {
		case "SET TRACKING ON":
			conn.Write([]byte("OK\n"))
		case "LIST UPS":
			conn.Write([]byte("BEGIN LIST UPS\nUPS ups-1 \"desc\"\nUPS ups-2 \"desc\"\nEND LIST UPS\n"))
		}
	})

	c := dial(t, addr)
	devices, err := c.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 || devices[0] != "ups-1" || devices[1] != "ups-2" {
		t.Fatalf("unexpected devices: %v", devices)
	}
}

func TestGetVariableSplitsCommaList(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		switch req {
		case "SET TRACKING ON":
			conn.Write([]byte("OK\n"))
		case "GET VAR ups-1 ups.alarm":
			conn.Write([]byte("VAR ups-1 ups.alarm \"OB,LB\"\n"))
		}
	})

	c := dial(t, addr)
	values, err := c.GetVariable(context.Background(), "ups-1", "ups.alarm")
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if len(values) != 2 || values[0] != "OB" || values[1] != "LB" {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestGetAllVariables(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		switch req {
		case "SET TRACKING ON":
			conn.Write([]byte("OK\n"))
		case "LIST VAR ups-1":
			conn.Write([]byte("BEGIN LIST VAR ups-1\n" +
				"VAR ups-1 battery.charge \"100\"\n" +
				"VAR ups-1 ups.status \"OL\"\n" +
				"END LIST VAR ups-1\n"))
		}
	})

	c := dial(t, addr)
	vars, err := c.GetAllVariables(context.Background(), "ups-1")
	if err != nil {
		t.Fatalf("GetAllVariables: %v", err)
	}
	if vars["battery.charge"][0] != "100" || vars["ups.status"][0] != "OL" {
		t.Fatalf("unexpected variables: %v", vars)
	}
}

func TestSendInstantCommandReturnsTrackingID(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		switch req {
		case "SET TRACKING ON":
			conn.Write([]byte("OK\n"))
		case "INSTCMD ups-1 load.off":
			conn.Write([]byte("OK TRACKING abc-123\n"))
		case "GET TRACKING abc-123":
			conn.Write([]byte("SUCCESS\n"))
		}
	})

	c := dial(t, addr)
	id, err := c.SendInstantCommand(context.Background(), "ups-1", "load.off", "")
	if err != nil {
		t.Fatalf("SendInstantCommand: %v", err)
	}
	if id != "abc-123" {
		t.Fatalf("tracking id = %q, want abc-123", id)
	}

	status, err := c.PollTracking(context.Background(), id)
	if err != nil {
		t.Fatalf("PollTracking: %v", err)
	}
	if status != TrackingSuccess {
		t.Fatalf("status = %q, want SUCCESS", status)
	}
}

func TestErrReplyClassifiesAsCommunicationError(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		switch req {
		case "SET TRACKING ON":
			conn.Write([]byte("OK\n"))
		case "GET VAR missing-ups nope":
			conn.Write([]byte("ERR UNKNOWN-UPS\n"))
		}
	})

	c := dial(t, addr)
	_, err := c.GetVariable(context.Background(), "missing-ups", "nope")
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected ErrCommunication, got %v", err)
	}
}

func TestRoundTripOnClosedConnFailsWithCommunicationError(t *testing.T) {
	addr := fakeUpsd(t, func(conn net.Conn, req string) {
		if req == "SET TRACKING ON" {
			conn.Write([]byte("OK\n"))
		}
	})

	c := dial(t, addr)
	_ = c.Close()

	_, err := c.ListDevices(context.Background())
	if !errors.Is(err, ErrCommunication) {
		t.Fatalf("expected ErrCommunication after close, got %v", err)
	}
}
