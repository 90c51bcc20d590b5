package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// NodeState is the electrical/thermal state of one simulated node, as
// reported by the co-simulation host.
type NodeState struct {
	Handle      string  `json:"handle"`
	Voltage     float64 `json:"voltage"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
}

// SetpointRequest asks the host to apply a new setpoint to a device.
type SetpointRequest struct {
	Handle   string  `json:"handle"`
	Setpoint float64 `json:"setpoint"`
}

// ConstantPowerLoadRequest asks the host to apply a constant-power load to
// a node for the current period.
type ConstantPowerLoadRequest struct {
	Handle string  `json:"handle"`
	Power  float64 `json:"power"`
}

// Config configures the bridge client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the co-simulation host's REST API. GetNodeState calls are
// protected by a circuit breaker: once the host's error rate trips the
// breaker, callers get gobreaker.ErrOpenState immediately instead of
// blocking on a failing host.
type Client struct {
	http    *resty.Client
	rl      *RateLimiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a bridge REST client with rate limiting, retry, and
// circuit breaking.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bridge-node-state",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	})

	return &Client{
		http:    httpClient,
		rl:      NewRateLimiter(),
		breaker: breaker,
		logger:  logger.With("component", "bridge"),
	}
}

// GetNodeState fetches one node's current electrical/thermal state,
// circuit-breaker protected.
func (c *Client) GetNodeState(ctx context.Context, handle string) (*NodeState, error) {
	if err := c.rl.NodeState.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (any, error) {
		var ns NodeState
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("handle", handle).
			SetResult(&ns).
			Get("/node-state")
		if err != nil {
			return nil, fmt.Errorf("get node state: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("get node state: status %d: %s", resp.StatusCode(), resp.String())
		}
		return &ns, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*NodeState), nil
}

// PostSetpoint applies a setpoint change to a device.
func (c *Client) PostSetpoint(ctx context.Context, req SetpointRequest) error {
	if err := c.rl.Setpoint.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/setpoint")
	if err != nil {
		return fmt.Errorf("post setpoint: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("post setpoint: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// PostConstantPowerLoad applies a constant-power load to a node, replacing
// whatever this generator applied in the previous period.
func (c *Client) PostConstantPowerLoad(ctx context.Context, req ConstantPowerLoadRequest) error {
	if err := c.rl.Setpoint.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/constant-power-load")
	if err != nil {
		return fmt.Errorf("post constant power load: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("post constant power load: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
