package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/thebigwealth89/socialblog/pkg/domain"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

// SignupRequest is the input to Signup.
type SignupRequest struct {
	Username string
	Email    string
	Password string
	// ProfilePicture is inline image data, usually a data URL from EncodeImageFile.
	ProfilePicture string
	AcceptTerms    bool
}

type registerBody struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
}

// Login authenticates with a username or email and caches the session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	if err := ValidateLogin(identifier, password); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}

	var out loginResponse
	if err := c.post(ctx, pathLogin, loginBody{Email: identifier, Password: password}, &out); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("client.Login: %w: %w", ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("client.Login: %w: no access token received", ErrServer)
	}

	if err := c.session.Set(out.User, out.AccessToken); err != nil {
		c.log.Warn().Err(err).Msg("persist session")
	}
	c.log.Info().Str("user_id", out.User.ID).Msg("logged in")
	return &out.User, nil
}

// Signup registers a new account. It does not sign the user in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	if err := ValidateSignup(req); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}

	var raw json.RawMessage
	body := registerBody{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	}
	if err := c.post(ctx, pathRegister, body, &raw); err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}

	user, err := decodeRegistered(raw)
	if err != nil {
		return nil, fmt.Errorf("client.Signup: %w", err)
	}
	if user.Username == "" && user.ID == "" {
		user.Username = req.Username
		user.Email = req.Email
	}
	return user, nil
}

// decodeRegistered reads either {"user": {...}} or a bare profile.
func decodeRegistered(raw json.RawMessage) (*domain.User, error) {
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", ErrServer, err)
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", ErrServer, err)
	}
	return &user, nil
}

// Logout tells the server the session is over, then clears the local session
// and redirects to login. A failed server call is logged and otherwise ignored.
// When the call itself ended the session through a rejected refresh, the user
// has already been redirected and nothing more is done.
func (c *Client) Logout(ctx context.Context) {
	if err := c.post(ctx, pathLogout, struct{}{}, nil); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			c.log.Info().Msg("session already ended during logout")
			return
		}
		c.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
	c.endSession(ReasonLoggedOut)
}

// CurrentSession returns the cached session without a network call.
func (c *Client) CurrentSession() (session.Snapshot, bool) {
	return c.session.Get()
}
