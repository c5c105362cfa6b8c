// Package haetcp pulls workouts from the Health Auto Export app's TCP server.
package haetcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/claude/workoutkit/internal/models"
)

// DefaultPort is the port the HAE app listens on.
const DefaultPort = 9000

// Client connects to the HAE TCP server (JSON-RPC 2.0). Each call opens a
// new connection; the server closes the socket after sending the response.
type Client struct {
	host    string
	port    int
	timeout time.Duration
	log     *slog.Logger

	// retry pacing while the app restarts after a crash
	probeAttempts int
	probeInterval time.Duration
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const maxRetries = 3

// New creates a client for the HAE server at host:port.
func New(host string, port int, log *slog.Logger) *Client {
	return &Client{
		host:          host,
		port:          port,
		timeout:       120 * time.Second,
		log:           log,
		probeAttempts: 10,
		probeInterval: 3 * time.Second,
	}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// QueryWorkouts returns the workouts that started in [start, end).
func (c *Client) QueryWorkouts(ctx context.Context, start, end time.Time) (*models.HAEPayload, error) {
	args := map[string]any{
		"start":           start.Format(models.HAETimeLayout),
		"end":             end.Format(models.HAETimeLayout),
		"includeMetadata": true,
		"includeRoutes":   false,
	}
	result, err := c.callTool(ctx, "workouts", args)
	if err != nil {
		return nil, err
	}

	payload := &models.HAEPayload{}
	if len(result) == 0 || string(result) == "null" {
		return payload, nil
	}
	if err := json.Unmarshal(result, payload); err != nil {
		return nil, fmt.Errorf("parsing workouts: %w", err)
	}
	return payload, nil
}

// QueryWorkoutsWithRetry retries QueryWorkouts, waiting for the server to
// accept connections again between attempts.
func (c *Client) QueryWorkoutsWithRetry(ctx context.Context, start, end time.Time) (*models.HAEPayload, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Info("retrying workout query", "attempt", attempt+1)
			if err := c.waitForServer(ctx); err != nil {
				return nil, err
			}
		}
		payload, err := c.QueryWorkouts(ctx, start, end)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		c.log.Warn("query failed, will retry", "error", err)
	}
	return nil, lastErr
}

// callTool sends a JSON-RPC callTool request and returns the result.
func (c *Client) callTool(ctx context.Context, toolName string, args map[string]any) (json.RawMessage, error) {
	reqData, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "callTool",
		Params:  callToolParams{Name: toolName, Arguments: args},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.addr(), err)
	}
	defer conn.Close() //nolint:errcheck

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}

	// newline-delimited framing
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	respData, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(respData) == 0 {
		return nil, fmt.Errorf("empty response from %s", c.addr())
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("HAE error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// waitForServer polls until the server accepts a connection.
func (c *Client) waitForServer(ctx context.Context) error {
	dialer := net.Dialer{Timeout: 2 * time.Second}
	for i := 0; i < c.probeAttempts; i++ {
		conn, err := dialer.DialContext(ctx, "tcp", c.addr())
		if err == nil {
			conn.Close() //nolint:errcheck
			return nil
		}
		c.log.Info("waiting for HAE server to come back", "attempt", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.probeInterval):
		}
	}
	return fmt.Errorf("HAE server at %s did not recover", c.addr())
}
