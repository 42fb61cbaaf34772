package fakeapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/thebigwealth89/socialblog/pkg/domain"
)

type ctxKey int

const userIDKey ctxKey = iota

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

type registerRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	fields := make(map[string]string)
	if req.Username == "" {
		fields["username"] = "Username is required."
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "A valid email is required."
	}
	if len(req.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters."
	}
	if len(fields) > 0 {
		writeFieldErrors(w, http.StatusBadRequest, fields)
		return
	}

	user, err := s.createAccount(req.Username, req.Email, req.Password, req.ProfilePicture)
	if err != nil {
		if conflict, ok := err.(conflictError); ok {
			writeFieldErrors(w, http.StatusConflict, conflict)
			return
		}
		s.log.Error().Err(err).Msg("create account")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("account registered")
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

type conflictError map[string]string

func (e conflictError) Error() string { return "account exists" }

// SeedUser registers an account directly, as tests and the dev server's
// demo data do.
func (s *Server) SeedUser(username, email, password string) (domain.User, error) {
	return s.createAccount(username, strings.ToLower(email), password, "")
}

func (s *Server) createAccount(username, email, password, picture string) (domain.User, error) {
	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	conflict := make(conflictError)
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, username) {
			conflict["username"] = "Username is already taken."
		}
		if a.user.Email == email {
			conflict["email"] = "Email is already registered."
		}
	}
	if len(conflict) > 0 {
		return domain.User{}, conflict
	}

	user := domain.User{
		ID:             ulid.Make().String(),
		Username:       username,
		Email:          email,
		ProfilePicture: picture,
		CreatedAt:      now.UTC(),
	}
	s.accounts[user.ID] = &account{user: user, hash: hash}
	return user, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	acct := s.findAccount(strings.TrimSpace(req.Email))
	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		s.metrics.logins.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := s.now()
	access, err := s.issueAccessToken(acct.user.ID, now)
	if err != nil {
		s.log.Error().Err(err).Msg("issue access token")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	s.mu.Lock()
	refresh, err := s.newRefreshToken(acct.user.ID, "", now)
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("issue refresh token")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.setRefreshCookie(w, refresh, now)
	s.metrics.logins.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", acct.user.ID).Msg("login")
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": access,
		"user":        acct.user,
	})
}

// findAccount matches identifier against emails, then usernames.
func (s *Server) findAccount(identifier string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, identifier) {
			return a
		}
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, identifier) {
			return a
		}
	}
	return nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	fail := s.refreshFail
	s.mu.Unlock()

	if fail != 0 {
		s.metrics.refreshes.WithLabelValues("forced").Inc()
		writeError(w, fail, http.StatusText(fail))
		return
	}

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		s.metrics.refreshes.WithLabelValues("missing").Inc()
		writeError(w, http.StatusUnauthorized, "No refresh token")
		return
	}

	now := s.now()
	s.mu.Lock()
	rec, ok := s.refresh[hashToken(cookie.Value)]
	switch {
	case !ok || rec.revoked || now.After(rec.expiresAt):
		s.mu.Unlock()
		s.metrics.refreshes.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusForbidden, "Invalid refresh token")
		return
	case rec.replaced:
		s.revokeFamily(rec.family)
		s.mu.Unlock()
		s.metrics.refreshes.WithLabelValues("reused").Inc()
		s.log.Warn().Str("user_id", rec.userID).Msg("refresh token reuse detected, family revoked")
		writeError(w, http.StatusForbidden, "Refresh token reuse detected")
		return
	}
	next, err := s.newRefreshToken(rec.userID, rec.family, now)
	if err == nil {
		rec.replaced = true
	}
	userID := rec.userID
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("rotate refresh token")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	access, err := s.issueAccessToken(userID, now)
	if err != nil {
		s.log.Error().Err(err).Msg("issue access token")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	s.setRefreshCookie(w, next, now)
	s.metrics.refreshes.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		s.mu.Lock()
		if rec, ok := s.refresh[hashToken(cookie.Value)]; ok {
			s.revokeFamily(rec.family)
		}
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	s.log.Info().Str("user_id", userIDFrom(r.Context())).Msg("logout")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		Expires:  now.Add(s.cfg.RefreshTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// requireUser rejects requests without a valid bearer access token.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		userID, err := s.verifyAccessToken(raw, s.now())
		if err != nil {
			msg := "Invalid token"
			if err == errTokenExpired {
				msg = "Token expired"
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	posts := make([]domain.Post, len(s.posts))
	copy(posts, s.posts)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Post not found")
}

type createPostRequest struct {
	Text  string   `json:"text"`
	Image string   `json:"image"`
	Tags  []string `json:"tags"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeFieldErrors(w, http.StatusBadRequest, map[string]string{"text": "Post text is required."})
		return
	}

	post, err := s.addPost(userIDFrom(r.Context()), req.Text, req.Image, req.Tags)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unknown user")
		return
	}
	s.metrics.postsCreated.Inc()
	writeJSON(w, http.StatusCreated, post)
}

// SeedPost adds a post authored by userID.
func (s *Server) SeedPost(userID, text string, tags ...string) (domain.Post, error) {
	return s.addPost(userID, text, "", tags)
}

func (s *Server) addPost(userID, text, image string, tags []string) (domain.Post, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return domain.Post{}, errTokenInvalid
	}
	author := acct.user
	post := domain.Post{
		ID:        ulid.Make().String(),
		Text:      strings.TrimSpace(text),
		Image:     image,
		Tags:      tags,
		UserID:    userID,
		Author:    &author,
		CreatedAt: now.UTC(),
	}
	s.posts = append([]domain.Post{post}, s.posts...)
	return post, nil
}
