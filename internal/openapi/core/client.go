package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/config"
)

// Request headers attached to every call.
const (
	HeaderAppKey           = "x-app-key"
	HeaderSignature        = "x-signature"
	HeaderSignatureVersion = "x-signature-version"
	HeaderTimestamp        = "x-timestamp"
	HeaderRequestID        = "x-request-id"
	HeaderRegionID         = "x-region-id"
)

const defaultTimeout = 15 * time.Second

// Client is the signed HTTP transport for one endpoint host.
type Client struct {
	baseURL  string
	regionID string
	signer   *Signer
	http     *http.Client
	log      zerolog.Logger
	now      func() time.Time
	nonce    func() string
}

// Option configures Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL overrides the derived https://<endpoint> base URL. Tests use
// this to point the client at an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock overrides the timestamp source. Tests use this for
// deterministic signatures.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNonce overrides the request id source.
func WithNonce(nonce func() string) Option {
	return func(c *Client) {
		if nonce != nil {
			c.nonce = nonce
		}
	}
}

// New builds a client from the injected harness configuration.
// Construction performs no I/O.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:  "https://" + cfg.Endpoint,
		regionID: cfg.RegionID,
		signer:   NewSigner(cfg.AppKey, cfg.AppSecret),
		http:     &http.Client{Timeout: defaultTimeout},
		log:      zerolog.Nop(),
		now:      time.Now,
		nonce:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved base URL, mostly for logging.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a signed GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a signed POST with a JSON body and decodes into out.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, query, body, out)
}

// Do performs one signed request. A non-2xx response is returned as an
// *APIError; out may be nil when the caller only cares about success.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	nonce := c.nonce()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAppKey, c.signer.appKey)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderRequestID, nonce)
	req.Header.Set(HeaderSignatureVersion, SignatureVersion)
	req.Header.Set(HeaderSignature, c.signer.Sign(method, path, query, timestamp, nonce))
	if c.regionID != "" {
		req.Header.Set(HeaderRegionID, c.regionID)
	}

	c.log.Debug().Str("method", method).Str("path", path).Str("request_id", nonce).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			HTTPStatus: resp.StatusCode,
			RequestID:  resp.Header.Get(HeaderRequestID),
		}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "HTTP_" + strconv.Itoa(resp.StatusCode)
			apiErr.Message = string(truncate(data, 200))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
