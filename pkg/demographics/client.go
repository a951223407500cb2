// Package demographics provides a client for the census population and
// housing API.
package demographics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/model"
)

// Client defines the census API operations. Calls are idempotent and may be
// retried by the caller; the client itself never retries.
type Client interface {
	// Population fetches age and race change statistics for a town.
	Population(ctx context.Context, req model.PopulationRequest) (*model.PopulationResponse, error)
	// Housing fetches block-group housing unit change as GeoJSON.
	Housing(ctx context.Context, req model.HousingRequest) (*model.HousingResponse, error)
}

// Origin classifies where a failure came from.
type Origin int

const (
	// OriginServerReported is a non-2xx response from the API.
	OriginServerReported Origin = iota + 1
	// OriginTransport is a network failure or an unreadable success body.
	OriginTransport
)

func (o Origin) String() string {
	switch o {
	case OriginServerReported:
		return "server-reported"
	case OriginTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// TransportMessage is the fixed message of every transport error.
const TransportMessage = "Network error: Could not connect to server"

// Error is the normalized failure of a Client call.
type Error struct {
	Origin  Origin
	Message string
	Status  int // HTTP status; 0 for transport errors
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("demographics: %s (status %d)", e.Message, e.Status)
	}
	return "demographics: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// configured HTTP client, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = &d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	timeout *time.Duration
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewClient creates a census API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{baseURL: "http://localhost:5000"}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = defaultHTTPClient()
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	return c
}

func (c *httpClient) Population(ctx context.Context, req model.PopulationRequest) (*model.PopulationResponse, error) {
	var out model.PopulationResponse
	if err := c.post(ctx, "/api/population", req, &out, "Failed to fetch population data"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Housing(ctx context.Context, req model.HousingRequest) (*model.HousingResponse, error) {
	var out model.HousingResponse
	if err := c.post(ctx, "/api/housing", req, &out, "Failed to fetch housing data"); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become server-reported errors carrying the body's "error" field,
// or fallback when the body has none.
func (c *httpClient) post(ctx context.Context, path string, body, out any, fallback string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return transportError(eris.Wrap(err, "demographics: marshal request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return transportError(eris.Wrap(err, "demographics: create request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(eris.Wrapf(err, "demographics: POST %s", path))
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(eris.Wrap(err, "demographics: read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		var e model.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &Error{Origin: OriginServerReported, Message: msg, Status: resp.StatusCode}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return transportError(eris.Wrap(err, "demographics: unmarshal response"))
	}
	return nil
}

func transportError(err error) *Error {
	return &Error{Origin: OriginTransport, Message: TransportMessage, Err: err}
}
