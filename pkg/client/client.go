// Package client is the single point of outbound traffic to the portfolio
// REST API. Every request passes through the same pipeline: request id,
// bearer token, 401 interceptor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/devfolio/portfolio-sync/internal/models"
)

// Client talks to the portfolio API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         *slog.Logger
	userAgent      string
	timeout        time.Duration
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout. It applies to the client's own
// copy, so an *http.Client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTokenSource sets where the bearer token is read from
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithUnauthorizedHandler sets the 401 side effect
func WithUnauthorizedHandler(handler UnauthorizedHandler) Option {
	return func(c *Client) {
		c.onUnauthorized = handler
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new API client. baseURL includes the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    slog.Default(),
		userAgent: "portfolio-sync",
	}

	for _, opt := range opts {
		opt(c)
	}

	// Copy so the caller's client keeps its own transport
	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.Transport = Chain(hc.Transport,
		RequestID(),
		Bearer(c.tokens),
		Logging(c.logger),
		Unauthorized(c.onUnauthorized),
	)
	c.httpClient = &hc

	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Auth marks "my data" endpoints; they are never sent without a token
	Auth bool
}

// File is an upload payload
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Call sends req and decodes the envelope payload into out (may be nil)
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	if err := c.checkAuth(req); err != nil {
		return err
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := c.newRequest(ctx, req, body)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return c.do(httpReq, req, out)
}

// Upload sends file as multipart/form-data under the "file" field
func (c *Client) Upload(ctx context.Context, req Request, file File, out any) error {
	if err := c.checkAuth(req); err != nil {
		return err
	}
	if file.Reader == nil {
		return fmt.Errorf("upload %s: no file content", req.Path)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	if req.Method == "" {
		req.Method = http.MethodPost
	}
	httpReq, err := c.newRequest(ctx, req, &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(httpReq, req, out)
}

func (c *Client) checkAuth(req Request) error {
	if !req.Auth {
		return nil
	}
	if c.tokens == nil || c.tokens.AccessToken() == "" {
		c.logger.Debug("blocked request without token", "method", req.Method, "path", req.Path)
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrNotAuthenticated)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request, body io.Reader) (*http.Request, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}

// do performs the request and unwraps the envelope
func (c *Client) do(httpReq *http.Request, req Request, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env models.RawEnvelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Method: req.Method, Path: req.Path}
		if decodeErr == nil {
			apiErr.Message = env.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		if out != nil {
			return fmt.Errorf("%s %s: %w: empty body", req.Method, req.Path, ErrMalformedResponse)
		}
		return nil
	}

	if decodeErr != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.Path, ErrMalformedResponse, decodeErr)
	}

	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message, Method: req.Method, Path: req.Path}
	}

	if out == nil {
		return nil
	}

	// A null payload leaves out untouched; services validate what they got
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.Path, ErrMalformedResponse, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
