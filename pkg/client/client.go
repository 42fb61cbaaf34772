// Package client is the socialblog API client.
//
// Every request made through a Client goes through an authorizing transport:
// the cached access token is attached as a bearer credential and, when the
// server answers 401, the token is refreshed with the refresh cookie and the
// request is retried once. Concurrent refreshes share a single call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/thebigwealth89/socialblog/pkg/session"
)

// API paths.
const (
	pathRegister = "/api/auth/register"
	pathLogin    = "/api/auth/login"
	pathRefresh  = "/api/auth/refresh"
	pathLogout   = "/api/auth/logout"
	pathPosts    = "/api/posts/"
)

// DefaultTimeout bounds every HTTP call, refreshes included.
const DefaultTimeout = 30 * time.Second

// Client is the socialblog API client.
type Client struct {
	baseURL  string
	session  *session.Session
	redirect Redirector
	log      zerolog.Logger

	timeout time.Duration
	base    http.RoundTripper
	jar     http.CookieJar

	// httpClient authorizes and refreshes; refreshClient is used for the
	// refresh call itself and shares the cookie jar.
	httpClient    *http.Client
	refreshClient *http.Client

	flight singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRedirector sets where forced sign-outs are sent.
func WithRedirector(r Redirector) Option {
	return func(c *Client) { c.redirect = r }
}

// WithCookieJar sets the jar that carries the refresh cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

// WithTransport sets the underlying transport. Defaults to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a new API client bound to sess.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		session:  sess,
		redirect: RedirectFunc(func(string) {}),
		log:      zerolog.Nop(),
		timeout:  DefaultTimeout,
		base:     http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jar == nil {
		jar, _ := cookiejar.New(nil) //nolint:errcheck // nil options never fail
		c.jar = jar
	}
	c.httpClient = &http.Client{
		Timeout:   c.timeout,
		Jar:       c.jar,
		Transport: &authTransport{client: c, base: c.base},
	}
	c.refreshClient = &http.Client{
		Timeout:   c.timeout,
		Jar:       c.jar,
		Transport: c.base,
	}
	return c
}

// Session returns the session the client reads and writes.
func (c *Client) Session() *session.Session { return c.session }

// Do sends an authorized request and returns the raw response. body, when
// non-nil, is sent as JSON. Non-2xx responses are returned without error; the
// caller must close the body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.do(ctx, c.httpClient, method, path, body)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, c.httpClient, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, c.httpClient, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, method, path string, body any, out any) error {
	resp, err := c.do(ctx, hc, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w: %w", ErrServer, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	c.log.Debug().Str("request_id", reqID).Str("method", method).Str("path", path).Msg("request")

	resp, err := hc.Do(req)
	if err != nil {
		if refreshErr := refreshFailure(err); refreshErr != nil {
			return nil, refreshErr
		}
		return nil, &NetworkError{Op: "do request", Err: err}
	}
	c.log.Debug().Str("request_id", reqID).Int("status", resp.StatusCode).Msg("response")
	return resp, nil
}

// refreshFailure extracts an error produced by the refresh step from the
// *url.Error the http.Client wraps transport errors in.
func refreshFailure(err error) error {
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr
	}
	return nil
}
