package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fairuzakhdan/smartvowd/internal/circuitbreaker"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/ratelimit"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
)

// Client is a JSON-RPC 2.0 client for an EVM endpoint. The same type serves
// both the node endpoint (reads, receipts) and the wallet endpoint (account
// requests, transaction submission); they differ only in URL and method set.
type Client struct {
	httpClient *http.Client
	rpcURL     string
	name       string
	requestID  atomic.Int64
	limiter    *ratelimit.Limiter
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger
}

type Option func(*Client)

// WithRateLimiter smooths the client's call rate.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBreaker fails calls fast while the endpoint is down.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func NewClient(rpcURL, name string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rpcURL:     rpcURL,
		name:       name,
		logger:     logger.With("endpoint", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", method, err)
		}
	}

	start := time.Now()
	result, err := c.doCall(ctx, method, params)
	metrics.RPCCallLatency.WithLabelValues(c.name, method).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RPCCallsTotal.WithLabelValues(c.name, method, status).Inc()

	if c.breaker != nil {
		// RPC-level errors (reverts, unknown methods) are endpoint health,
		// not endpoint death; only transport failures feed the breaker.
		var rpcErr *RPCError
		if err == nil || errors.As(err, &rpcErr) {
			c.breaker.Record(nil)
		} else {
			c.breaker.Record(err)
		}
	}
	return result, err
}

func (c *Client) doCall(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	id := int(c.requestID.Add(1))
	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}
