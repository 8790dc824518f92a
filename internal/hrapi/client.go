// Package hrapi is the authenticated client for the HR REST backend.
//
// Every call is a single attempt: no retries and no caching. Non-2xx responses
// surface as *APIError carrying the body verbatim so callers can show the
// backend's own message.
package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSupplier returns the bearer token for the current caller, or "".
type TokenSupplier func(ctx context.Context) string

// RequestObserver receives one callback per completed round trip.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration, err error)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      TokenSupplier
	HTTPClient *http.Client
	Observer   RequestObserver
	Logger     *slog.Logger
}

// Client issues requests against one backend base URL.
type Client struct {
	base     *url.URL
	token    TokenSupplier
	http     *http.Client
	observer RequestObserver
	logger   *slog.Logger
}

// New validates the base URL and builds a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("hrapi: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("hrapi: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("hrapi: base URL must be http(s), got %q", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:     base,
		token:    opts.Token,
		http:     hc,
		observer: opts.Observer,
		logger:   logger,
	}, nil
}

// WithToken returns a copy of c that authenticates with the given supplier.
func (c *Client) WithToken(token TokenSupplier) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// StaticToken supplies a fixed token.
func StaticToken(token string) TokenSupplier {
	return func(context.Context) string { return token }
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Response is a successful (2xx) backend response.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Empty reports whether the backend acknowledged with 204 and no payload.
func (r *Response) Empty() bool { return r.StatusCode == http.StatusNoContent }

// Decode unmarshals the body into out. It is a no-op for 204 responses or a
// nil out.
func (r *Response) Decode(out any) error {
	if r.Empty() || out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &DecodeError{Method: r.Method, Path: r.Path, StatusCode: r.StatusCode, Err: err}
	}
	return nil
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with an optional JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with an optional JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE and decodes the response into out, if any.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.Send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Send performs one request. A nil body sends no payload and no Content-Type.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("hrapi: encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("hrapi: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	status, header, data, err := c.do(req, path)
	if err != nil {
		return nil, err
	}
	return &Response{Method: method, Path: path, StatusCode: status, Header: header, Body: data}, nil
}

func (c *Client) do(req *http.Request, path string) (int, http.Header, []byte, error) {
	if c.token != nil {
		if tok := c.token(req.Context()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("hrapi: %s %s: %w", req.Method, path, err)
		c.observe(req.Method, path, 0, start, err)
		return 0, nil, nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", "path", path, "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("hrapi: read %s %s response: %w", req.Method, path, err)
		c.observe(req.Method, path, resp.StatusCode, start, err)
		return 0, nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			RawBody:    string(data),
		}
		c.observe(req.Method, path, resp.StatusCode, start, apiErr)
		return 0, nil, nil, apiErr
	}

	c.observe(req.Method, path, resp.StatusCode, start, nil)
	return resp.StatusCode, resp.Header, data, nil
}

func (c *Client) observe(method, path string, status int, start time.Time, err error) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(method, path, status, time.Since(start), err)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func detailFromBody(body string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
