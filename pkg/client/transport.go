package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// authTransport attaches the bearer credential and recovers once from an
// expired access token.
type authTransport struct {
	client *Client
	base   http.RoundTripper
}

// credentialPaths never carry a bearer credential and never trigger a refresh.
var credentialPaths = []string{pathLogin, pathRegister, pathRefresh}

func isCredentialPath(p string) bool {
	for _, cp := range credentialPaths {
		if strings.HasSuffix(p, cp) {
			return true
		}
	}
	return false
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isCredentialPath(req.URL.Path) {
		out := req.Clone(req.Context())
		out.Header.Del("Authorization")
		return t.base.RoundTrip(out)
	}

	sent := t.client.session.Token()
	resp, err := t.base.RoundTrip(withBearer(req, sent))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if !replayable(req) {
		return resp, nil
	}
	drain(resp)

	log := t.client.log.With().Str("request_id", req.Header.Get("X-Request-ID")).Str("path", req.URL.Path).Logger()
	log.Debug().Msg("access token rejected, refreshing")

	fresh, err := t.client.refreshToken(req.Context(), sent)
	if err != nil {
		log.Debug().Err(err).Msg("refresh failed")
		return nil, err
	}

	retry := withBearer(req, fresh)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		retry.Body = body
	}
	log.Debug().Msg("retrying with refreshed token")
	return t.base.RoundTrip(retry)
}

func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token == "" {
		out.Header.Del("Authorization")
	} else {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16)) //nolint:errcheck // best-effort drain for connection reuse
	resp.Body.Close()                                     //nolint:errcheck // best-effort close
}

// RefreshError is returned when a request could not be recovered because the
// token refresh failed. It wraps the refresh failure: ErrSessionExpired after
// a forced sign-out, otherwise the *HTTPError or *NetworkError of the call.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh access token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// refreshToken returns a fresh access token. Concurrent callers share one
// refresh call. stale is the token the failed request carried; when the
// session already holds a different token, that token is returned without a
// network call. When the session was cleared after the request went out, the
// sign-out has already happened and ErrSessionExpired is returned as is.
func (c *Client) refreshToken(ctx context.Context, stale string) (string, error) {
	ch := c.flight.DoChan("refresh", func() (any, error) {
		current := c.session.Token()
		switch {
		case current != "" && current != stale:
			return current, nil
		case current == "" && stale != "":
			return "", &RefreshError{Err: ErrSessionExpired}
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &NetworkError{Op: "wait for refresh", Err: ctx.Err()}
	}
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.doRequest(ctx, c.refreshClient, http.MethodPost, pathRefresh, struct{}{}, &out)
	if err != nil {
		if IsStatus(err, http.StatusForbidden) {
			c.log.Warn().Err(err).Msg("refresh token rejected, ending session")
			c.endSession(ReasonSessionInvalid)
			return "", &RefreshError{Err: fmt.Errorf("%w: %w", ErrSessionExpired, err)}
		}
		return "", &RefreshError{Err: err}
	}
	if out.AccessToken == "" {
		return "", &RefreshError{Err: fmt.Errorf("%w: no access token in refresh response", ErrServer)}
	}

	if err := c.session.SetToken(out.AccessToken); err != nil {
		c.log.Debug().Err(err).Msg("refreshed token not cached")
	}
	c.log.Info().Msg("access token refreshed")
	return out.AccessToken, nil
}

// Redirector sends the user back to the login entry point.
type Redirector interface {
	RedirectToLogin(reason string)
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(reason string)

func (f RedirectFunc) RedirectToLogin(reason string) { f(reason) }

// Reasons passed to Redirector.
const (
	ReasonSessionInvalid = "Session invalid or token reused. Please log in again."
	ReasonLoggedOut      = "You have been logged out."
	ReasonLoginRequired  = "You must be logged in to create a post."
)

func (c *Client) endSession(reason string) {
	if err := c.session.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("clear session")
	}
	c.redirect.RedirectToLogin(reason)
}
