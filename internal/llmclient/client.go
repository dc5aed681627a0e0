// Package llmclient provides the HTTP client shared by the vendor adapters.
//
// Every call is a single attempt: no retries, no backoff and no circuit
// breaking. Failures are normalised into provider errors so adapters only
// deal with decoded payloads.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/httpclient"
)

// maxResponseBytes caps how much of a vendor body is read into memory.
const maxResponseBytes = 8 << 20

// Config holds configuration for the LLM client
type Config struct {
	// ProviderName identifies the provider for error messages and metrics
	ProviderName string

	// BaseURL is the API base URL
	BaseURL string

	// Hooks observe every completed call. Optional.
	Hooks Hooks
}

// CallInfo describes one finished vendor call.
type CallInfo struct {
	Provider string
	Model    string
	// StatusCode is zero when no response was received.
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Hooks are observability callbacks invoked by the client.
type Hooks struct {
	OnCallDone func(ctx context.Context, info CallInfo)
}

// HeaderSetter is a function that sets headers on an HTTP request
type HeaderSetter func(req *http.Request)

// Client is a base HTTP client for LLM providers
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
}

// New creates a new LLM client with the given configuration
func New(config Config, headerSetter HeaderSetter) *Client {
	return NewWithHTTPClient(nil, config, headerSetter)
}

// NewWithHTTPClient creates a new LLM client with a custom HTTP client.
// A nil httpClient gets the package default transport.
func NewWithHTTPClient(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewHTTPClient(nil)
	}
	return &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
}

// SetBaseURL updates the base URL
func (c *Client) SetBaseURL(url string) {
	c.config.BaseURL = url
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request represents an HTTP request to be made
type Request struct {
	Method   string
	Endpoint string
	// Model is the canonical model ID, used for metrics labels only.
	Model   string
	Body    interface{} // Will be JSON marshaled if not nil
	Headers map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes the request once and returns the raw 2xx body.
// Transport failures and non-2xx statuses come back as provider errors.
func (c *Client) Do(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		if c.config.Hooks.OnCallDone == nil {
			return
		}
		info := CallInfo{
			Provider: c.config.ProviderName,
			Model:    req.Model,
			Duration: time.Since(start),
			Err:      err,
		}
		if resp != nil {
			info.StatusCode = resp.StatusCode
		} else {
			var gwErr *core.GatewayError
			if errors.As(err, &gwErr) {
				info.StatusCode = gwErr.UpstreamStatus
			}
		}
		c.config.Hooks.OnCallDone(ctx, info)
	}()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, core.NewProviderError(c.config.ProviderName, 0, "request canceled: "+ctxErr.Error(), ctxErr)
		}
		return nil, core.NewProviderError(c.config.ProviderName, 0, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, httpResp.StatusCode, "failed to read response: "+err.Error(), err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, core.ParseProviderError(c.config.ProviderName, httpResp.StatusCode, body)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}, nil
}

// buildRequest creates an HTTP request from a Request
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewProviderError(c.config.ProviderName, 0, "failed to marshal request: "+err.Error(), err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, core.NewProviderError(c.config.ProviderName, 0, "failed to create request: "+err.Error(), err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requestID := core.GetRequestID(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	// Apply provider-specific headers
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}

	// Apply request-specific headers
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}
