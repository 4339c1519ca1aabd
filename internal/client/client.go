package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dm/pidash/internal/model"
)

// DeviceClient defines the request/response interface of the device's HTTP API.
type DeviceClient interface {
	GetStatus(ctx context.Context) (*model.StatusSnapshot, error)
	GetConfig(ctx context.Context) (model.ConfigMap, error)
	ToggleConfig(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements DeviceClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config ClientConfig
}

const maxResponseBytes = 4 * 1024 * 1024 // status and config payloads are a few hundred bytes

// NewDefaultClient constructs a DefaultClient from the given config.
// RequestTimeout is an upper bound for every call; the status loop applies its
// own, shorter deadline through the context.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
			// The device answers a toggle with a redirect to its web page;
			// the redirect itself is the acknowledgement.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the device.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// doGet performs a GET request to the given path (relative to BaseURL).
// Returns the response body bytes or an error on non-2xx status.
func (c *DefaultClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", status, truncate(body, 200))
	}
	return body, nil
}

// doPostJSON performs a POST with a JSON body. 2xx and 3xx responses count as success.
func (c *DefaultClient) doPostJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 400 {
		return fmt.Errorf("unexpected status %d: %s", status, truncate(body, 200))
	}
	return nil
}

func (c *DefaultClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return 0, nil, fmt.Errorf("response body exceeds %d MB limit", maxResponseBytes/(1024*1024))
	}
	return resp.StatusCode, body, nil
}

func (c *DefaultClient) url(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}

// Ping checks connectivity by requesting the status endpoint with a 1s timeout.
func (c *DefaultClient) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := c.doGet(pingCtx, endpointStatus)
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
