// Package flightlink speaks the external flight simulator's line-oriented
// protocol: one JSON request object per line, one JSON response object per
// line, over a single TCP connection. The rest of the system only ever sees
// it as a flight.Link.
package flightlink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/signalsfoundry/descent-simulator/flight"
)

// Client is a flight.Link over a single connection. The protocol has no
// request IDs, so calls are serialized: at most one request is in flight.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to the simulator at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("flightlink: dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection. Handy for tests over net.Pipe.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

type request struct {
	Op    string   `json:"op"`
	Value *float64 `json:"value,omitempty"`
}

type response struct {
	Height   *float64 `json:"height,omitempty"`
	Velocity *float64 `json:"velocity,omitempty"`
	OK       bool     `json:"ok"`
	Error    string   `json:"error,omitempty"`
}

// ReadState implements flight.Link.
func (c *Client) ReadState(ctx context.Context) (flight.Telemetry, error) {
	var resp response
	if err := c.roundTrip(ctx, request{Op: "read_state"}, &resp); err != nil {
		return flight.Telemetry{}, err
	}
	if resp.Error != "" {
		return flight.Telemetry{}, fmt.Errorf("flightlink: read_state rejected: %s", resp.Error)
	}
	if resp.Height == nil || resp.Velocity == nil {
		return flight.Telemetry{}, fmt.Errorf("flightlink: read_state response missing height or velocity")
	}
	return flight.Telemetry{Height: *resp.Height, Velocity: *resp.Velocity}, nil
}

// SetThrottle implements flight.Link.
func (c *Client) SetThrottle(ctx context.Context, fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("flightlink: throttle %v outside [0, 1]", fraction)
	}
	var resp response
	if err := c.roundTrip(ctx, request{Op: "set_throttle", Value: &fraction}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("flightlink: set_throttle rejected: %s", resp.Error)
	}
	return nil
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(ctx context.Context, req request, resp *response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The context deadline maps onto the connection deadline, so a stuck
	// simulator surfaces as a timeout rather than a hung controller.
	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("flightlink: set deadline: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("flightlink: encode %s: %w", req.Op, err)
	}
	payload = append(payload, '\n')
	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf("flightlink: write %s: %w", req.Op, err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("flightlink: read %s response: %w", req.Op, err)
	}
	if err := json.Unmarshal(line, resp); err != nil {
		return fmt.Errorf("flightlink: decode %s response: %w", req.Op, err)
	}
	return nil
}
