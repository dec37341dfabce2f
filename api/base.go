package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chinmay1088/bucks/log"
	"github.com/chinmay1088/bucks/metrics"
)

// Client handles HTTP calls to one upstream service
type Client struct {
	httpClient *http.Client
	upstream   string
	header     http.Header
}

// NewHTTPClient returns the http.Client shared by every upstream.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewClient creates a new API client. upstream names the service in logs
// and metrics.
func NewClient(upstream string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	return &Client{
		httpClient: httpClient,
		upstream:   upstream,
		header:     make(http.Header),
	}
}

// SetHeader adds a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// postJSON sends a POST request with JSON payload and decodes the response
// into out.
func (c *Client) postJSON(ctx context.Context, op, url string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, op, req, out)
}

// getJSON sends a GET request and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, op, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(ctx, op, req, out)
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(c.upstream, op, start, err)
	}()

	req.Header.Set("Accept", "application/json")
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.ExtractLogger(ctx).Debugw("upstream request",
		"upstream", c.upstream,
		"op", op,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Upstream: c.upstream, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Helper to convert hex string to int
func parseHexInt(hexStr string) (uint64, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	return strconv.ParseUint(hexStr, 16, 64)
}

// Helper to convert hex string to big.Int. Leading zeros are allowed, the
// indexer pads balances to 32 bytes.
func parseHexBigInt(hexStr string) (*big.Int, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return new(big.Int), nil
	}

	value := new(big.Int)
	if _, ok := value.SetString(hexStr, 16); !ok {
		return nil, fmt.Errorf("invalid hex value: %s", hexStr)
	}
	return value, nil
}
