package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thebigwealth89/socialblog/pkg/session"
)

// PersistentJar is an http.CookieJar that mirrors the cookies visible to the
// auth endpoints into a session.Store, so the refresh cookie outlives the
// process. Cookie values are kept opaque.
type PersistentJar struct {
	jar   *cookiejar.Jar
	store session.Store
	scope *url.URL
	log   zerolog.Logger

	mu sync.Mutex
}

var _ http.CookieJar = (*PersistentJar)(nil)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewPersistentJar returns a jar for the API at baseURL, restoring any cookies
// previously saved in store. Unreadable saved cookies are dropped.
func NewPersistentJar(store session.Store, baseURL string, log zerolog.Logger) (*PersistentJar, error) {
	scope, err := url.Parse(strings.TrimRight(baseURL, "/") + pathRefresh)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &PersistentJar{jar: jar, store: store, scope: scope, log: log}
	j.restore()
	return j, nil
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	j.persist()
}

func (j *PersistentJar) restore() {
	raw, err := j.store.Get(session.KeyCookies)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			j.log.Warn().Err(err).Msg("read saved cookies")
		}
		return
	}
	var saved []storedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		j.log.Warn().Err(err).Msg("discarding unreadable saved cookies")
		if err := j.store.Delete(session.KeyCookies); err != nil {
			j.log.Warn().Err(err).Msg("delete saved cookies")
		}
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	j.jar.SetCookies(j.scope, cookies)
}

func (j *PersistentJar) persist() {
	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.jar.Cookies(j.scope)
	if len(current) == 0 {
		if err := j.store.Delete(session.KeyCookies); err != nil {
			j.log.Warn().Err(err).Msg("delete saved cookies")
		}
		return
	}
	saved := make([]storedCookie, 0, len(current))
	for _, c := range current {
		saved = append(saved, storedCookie{Name: c.Name, Value: c.Value})
	}
	raw, err := json.Marshal(saved)
	if err != nil {
		j.log.Warn().Err(err).Msg("encode cookies")
		return
	}
	if err := j.store.Set(session.KeyCookies, string(raw)); err != nil {
		j.log.Warn().Err(err).Msg("save cookies")
	}
}
