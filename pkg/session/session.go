// Package session holds the client-side record of the signed-in user and
// their access token.
//
// The user profile and the access token are one unit: they are set and
// cleared together, and a persisted copy with either half missing or corrupt
// loads as no session at all.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thebigwealth89/socialblog/pkg/domain"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("no session")

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	User  domain.User
	Token string
}

// Listener is called after every change. ok is false once the session is cleared.
type Listener func(snap Snapshot, ok bool)

// Session is safe for concurrent use.
type Session struct {
	store Store
	log   zerolog.Logger

	// persistMu orders writers so the store matches memory after each change.
	persistMu sync.Mutex

	mu        sync.RWMutex
	user      *domain.User
	token     string
	listeners map[int]Listener
	nextID    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New returns a Session loaded from store.
func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:     store,
		log:       zerolog.Nop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *Session) load() {
	token, tokErr := s.store.Get(KeyAccessToken)
	raw, userErr := s.store.Get(KeyUser)

	var user domain.User
	if userErr == nil {
		if raw == "" || raw == "undefined" || raw == "null" {
			userErr = ErrNotFound
		} else if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable cached user")
			userErr = err
		}
	}
	if tokErr == nil && token == "" {
		tokErr = ErrNotFound
	}

	if tokErr != nil || userErr != nil {
		if tokErr == nil || userErr == nil {
			s.log.Debug().Msg("discarding half of a cached session")
		}
		if err := s.store.Delete(KeyUser, KeyAccessToken); err != nil {
			s.log.Warn().Err(err).Msg("clear cached session")
		}
		return
	}
	s.user = &user
	s.token = token
}

// Get returns the current session. It never touches the network.
func (s *Session) Get() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() (Snapshot, bool) {
	if s.user == nil || s.token == "" {
		return Snapshot{}, false
	}
	return Snapshot{User: *s.user, Token: s.token}, true
}

// Token returns the cached access token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the session with user and token.
//
// The in-memory session is updated even when persisting fails; the error is
// returned so callers can report it.
func (s *Session) Set(user domain.User, token string) error {
	if token == "" {
		return fmt.Errorf("session.Set: empty access token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session.Set: encode user: %w", err)
	}

	s.persistMu.Lock()
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.mu.Unlock()
	err = s.store.Set(KeyUser, string(raw))
	if err == nil {
		err = s.store.Set(KeyAccessToken, token)
	}
	s.persistMu.Unlock()
	s.notify()

	if err != nil {
		return fmt.Errorf("session.Set: %w", err)
	}
	return nil
}

// SetToken replaces the access token of an existing session.
// It returns ErrNoSession when no user is cached.
func (s *Session) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("session.SetToken: empty access token")
	}
	s.persistMu.Lock()
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return ErrNoSession
	}
	if s.token == token {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return nil
	}
	s.token = token
	s.mu.Unlock()
	err := s.store.Set(KeyAccessToken, token)
	s.persistMu.Unlock()
	s.notify()

	if err != nil {
		return fmt.Errorf("session.SetToken: %w", err)
	}
	return nil
}

// Clear removes the user and the token together.
func (s *Session) Clear() error {
	s.persistMu.Lock()
	s.mu.Lock()
	had := s.user != nil || s.token != ""
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	err := s.store.Delete(KeyUser, KeyAccessToken)
	s.persistMu.Unlock()
	if had {
		s.notify()
	}

	if err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// OnChange registers fn to run after every change and returns a function
// that unregisters it. Listeners run on the goroutine that made the change.
func (s *Session) OnChange(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.RLock()
	snap, ok := s.snapshotLocked()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap, ok)
	}
}
