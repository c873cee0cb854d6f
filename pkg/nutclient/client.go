// SPDX-License-Identifier: BSD-3-Clause

// Package nutclient implements the NUT (Network UPS Tools) upsd line
// protocol directly over net/bufio. No third-party NUT client library
// exists in the wider Go ecosystem that this project could bind to
// (unlike, say, database drivers or message brokers), so this adapter
// speaks the documented wire format itself.
package nutclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultAddress is the well-known upsd listen address.
const DefaultAddress = "localhost:3493"

// TrackingStatus is the completion state of an instant command tracking ID.
type TrackingStatus string

const (
	TrackingPending TrackingStatus = "PENDING"
	TrackingSuccess TrackingStatus = "SUCCESS"
	TrackingFailure TrackingStatus = "FAILED"
	TrackingUnknown TrackingStatus = "UNKNOWN"
)

// Client is a connection to one upsd daemon. It is not safe for concurrent
// use by multiple goroutines; callers serialize requests (the command
// tracker and polling engine each own their own Client).
type Client struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	trackingEnabled bool
}

// Dial connects to a upsd daemon at addr (DefaultAddress if empty) and
// enables command tracking so SendInstantCommand can report a tracking ID.
func Dial(ctx context.Context, addr string) (*Client, error) {
	if addr == "" {
		addr = DefaultAddress
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrCommunication, addr, err)
	}

	c := &Client{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: 5 * time.Second,
	}

	if err := c.enableTracking(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

// Close terminates the underlying TCP session. The caller must not retry
// commands on an adapter after Close; NUT sessions are not reconnected
// silently.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) enableTracking(ctx context.Context) error {
	line, err := c.roundTrip(ctx, "SET TRACKING ON")
	if err != nil {
		return err
	}
	c.trackingEnabled = strings.HasPrefix(line, "OK")
	return nil
}

// ListDevices returns every UPS-class device name known to the daemon.
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	lines, err := c.roundTripList(ctx, "LIST UPS", "UPS", "END LIST UPS")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(lines))
	for _, fields := range lines {
		if len(fields) >= 2 {
			names = append(names, fields[1])
		}
	}
	return names, nil
}

// GetVariable reads one NUT variable. NUT values are semicolon-free
// comma-separated lists; they are returned here as an ordered slice.
func (c *Client) GetVariable(ctx context.Context, device, name string) ([]string, error) {
	line, err := c.roundTrip(ctx, fmt.Sprintf("GET VAR %s %s", device, name))
	if err != nil {
		return nil, err
	}

	fields := tokenize(line)
	// VAR <device> <name> "<value>"
	if len(fields) < 4 || fields[0] != "VAR" {
		return nil, fmt.Errorf("%w: unexpected GET VAR reply %q", ErrMalformedReply, line)
	}
	return splitValue(fields[3]), nil
}

// GetAllVariables reads every NUT variable exposed for a device.
func (c *Client) GetAllVariables(ctx context.Context, device string) (map[string][]string, error) {
	lines, err := c.roundTripList(ctx, fmt.Sprintf("LIST VAR %s", device), "VAR", fmt.Sprintf("END LIST VAR %s", device))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(lines))
	for _, fields := range lines {
		// VAR <device> <name> "<value>"
		if len(fields) < 4 {
			continue
		}
		out[fields[2]] = splitValue(fields[3])
	}
	return out, nil
}

// SendInstantCommand issues an instant command and returns the tracking ID
// the daemon assigned to it. arg may be empty for commands that take none.
func (c *Client) SendInstantCommand(ctx context.Context, device, cmd, arg string) (string, error) {
	req := fmt.Sprintf("INSTCMD %s %s", device, cmd)
	if arg != "" {
		req = fmt.Sprintf("%s %s", req, arg)
	}

	line, err := c.roundTrip(ctx, req)
	if err != nil {
		return "", err
	}

	fields := tokenize(line)
	if len(fields) >= 3 && fields[0] == "OK" && fields[1] == "TRACKING" {
		return fields[2], nil
	}
	if len(fields) >= 1 && fields[0] == "OK" {
		// Daemon accepted the command but tracking was not granted; the
		// caller has nothing to poll, so synthesize a resolved status.
		return "", nil
	}
	return "", fmt.Errorf("%w: unexpected INSTCMD reply %q", ErrMalformedReply, line)
}

// PollTracking reports the completion state of a tracking ID returned by
// SendInstantCommand.
func (c *Client) PollTracking(ctx context.Context, id string) (TrackingStatus, error) {
	if id == "" {
		return TrackingSuccess, nil
	}

	line, err := c.roundTrip(ctx, fmt.Sprintf("GET TRACKING %s", id))
	if err != nil {
		return "", err
	}

	switch strings.TrimSpace(line) {
	case string(TrackingPending):
		return TrackingPending, nil
	case string(TrackingSuccess):
		return TrackingSuccess, nil
	case string(TrackingFailure):
		return TrackingFailure, nil
	default:
		return TrackingUnknown, nil
	}
}

// roundTrip sends one request line and reads one reply line.
func (c *Client) roundTrip(ctx context.Context, request string) (string, error) {
	if c.conn == nil {
		return "", ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	if _, err := fmt.Fprintf(c.conn, "%s\n", request); err != nil {
		return "", fmt.Errorf("%w: write %q: %w", ErrCommunication, request, err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: read reply to %q: %w", ErrCommunication, request, err)
	}
	line = strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(line, "ERR") {
		return "", fmt.Errorf("%w: %s", ErrCommunication, line)
	}
	return line, nil
}

// roundTripList sends a LIST-style request and reads the BEGIN/...(items
// of prefix)/END bracketed reply, returning the tokenized item lines.
func (c *Client) roundTripList(ctx context.Context, request, itemPrefix, endLine string) ([][]string, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	if _, err := fmt.Fprintf(c.conn, "%s\n", request); err != nil {
		return nil, fmt.Errorf("%w: write %q: %w", ErrCommunication, request, err)
	}

	first, err := c.reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: read BEGIN for %q: %w", ErrCommunication, request, err)
	}
	first = strings.TrimRight(first, "\r\n")
	if strings.HasPrefix(first, "ERR") {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, first)
	}
	if !strings.HasPrefix(first, "BEGIN") {
		return nil, fmt.Errorf("%w: expected BEGIN reply, got %q", ErrMalformedReply, first)
	}

	var items [][]string
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: read list body for %q: %w", ErrCommunication, request, err)
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == strings.TrimSpace("END "+endLine) || line == endLine {
			break
		}
		if strings.HasPrefix(line, endLine) {
			break
		}
		fields := tokenize(line)
		if len(fields) > 0 && fields[0] == itemPrefix {
			items = append(items, fields)
		}
	}

	return items, nil
}

// tokenize splits a upsd reply line into fields, respecting double-quoted
// values that may contain spaces.
func tokenize(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return fields
}

// splitValue turns a NUT variable value into an ordered list on its
// comma-separated components.
func splitValue(value string) []string {
	if value == "" {
		return []string{""}
	}
	return strings.Split(value, ",")
}
