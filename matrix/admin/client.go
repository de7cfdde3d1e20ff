package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "go-commune/admin"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20

	// HeaderRequestID correlates client logs with homeserver logs.
	HeaderRequestID = "X-Request-ID"
)

// Config configures the admin API client.
type Config struct {
	// BaseURL is the homeserver base URL (e.g., "https://matrix.example.com").
	BaseURL string

	// AccessToken belongs to a server admin and is sent as a bearer token.
	AccessToken string

	// ServerName is the homeserver name used as the domain of user ids
	// (e.g., "example.com").
	ServerName string

	// HTTPClient is used for every request.
	// Default: &http.Client{Timeout: 10 * time.Second}.
	HTTPClient *http.Client
}

// Requester is the authenticated transport the resource functions run on.
// *Client implements it.
type Requester interface {
	ServerName() string
	GetJSON(ctx context.Context, path string) (*Response, error)
	GetQuery(ctx context.Context, path string, params url.Values) (*Response, error)
	PutJSON(ctx context.Context, path string, body any) (*Response, error)
	PostJSON(ctx context.Context, path string, body any) (*Response, error)
}

// Response is a successful (2xx) admin API response.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if r == nil {
		return wrapError(ErrDecode, nil, map[string]any{"reason": "empty response"})
	}

	if err := json.Unmarshal(r.Body, out); err != nil {
		return wrapError(ErrDecode, err, map[string]any{
			"method": r.Method,
			"path":   r.Path,
			"status": r.StatusCode,
		})
	}
	return nil
}

// Client talks to the Synapse admin API.
type Client struct {
	baseURL    string
	token      string
	serverName string
	userAgent  string
	httpClient *http.Client
	logger     Logger
	debug      bool
}

// Option customizes a Client.
type Option func(*Client) *Client

// WithLogger sets the client logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) *Client {
		if logger != nil {
			c.logger = logger
		}
		return c
	}
}

// WithDebug dumps redacted response payloads at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) *Client {
		c.debug = debug
		return c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) *Client {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
		return c
	}
}

// WithMetrics instruments the client transport with m.
// The configured http.Client is copied, never mutated.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) *Client {
		if m == nil {
			return c
		}
		hc := *c.httpClient
		hc.Transport = m.RoundTripper(hc.Transport)
		c.httpClient = &hc
		return c
	}
}

// New creates an admin API client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, invalidRequest("base url is required", nil)
	}

	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, invalidRequest("base url must be absolute", map[string]any{"base_url": base})
	}

	serverName := strings.TrimSpace(cfg.ServerName)
	if serverName == "" {
		return nil, invalidRequest("server name is required", nil)
	}

	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, invalidRequest("access token is required", nil)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{
		baseURL:    base,
		token:      token,
		serverName: serverName,
		userAgent:  defaultUserAgent,
		httpClient: httpClient,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c, nil
}

// ServerName returns the configured homeserver name.
func (c *Client) ServerName() string {
	return c.serverName
}

// GetJSON issues a GET request.
func (c *Client) GetJSON(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// GetQuery issues a GET request with query string params.
func (c *Client) GetQuery(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// PutJSON issues a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// PostJSON issues a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, wrapError(ErrInvalidRequest, err, map[string]any{
				"method": method,
				"path":   path,
				"reason": "failed to encode request body",
			})
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, wrapError(ErrInvalidRequest, err, map[string]any{
			"method": method,
			"path":   path,
		})
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("admin request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("admin request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, wrapError(ErrTransport, err, map[string]any{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("admin response read failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, wrapError(ErrTransport, err, map[string]any{
			"method":     method,
			"path":       path,
			"status":     resp.StatusCode,
			"request_id": requestID,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(method, path, resp.StatusCode, data)
		c.logger.Warn("admin request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"errcode", apiErr.ErrCode,
			"request_id", requestID,
		)
		return nil, wrapAPIError(apiErr)
	}

	if c.debug {
		c.logger.Debug("admin response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"body", print.MaybePrettyJSON(redact(data)),
		)
	}

	return &Response{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       data,
	}, nil
}

var sensitiveKeys = map[string]bool{
	"access_token": true,
	"password":     true,
	"mac":          true,
	"nonce":        true,
}

// redact masks credentials in a JSON payload before it is logged.
func redact(data []byte) any {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return string(data)
	}
	return redactValue(payload)
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			if sensitiveKeys[k] {
				val[k] = "***"
				continue
			}
			val[k] = redactValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = redactValue(inner)
		}
		return val
	}
	return v
}

var _ Requester = (*Client)(nil)
