package client

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebigwealth89/socialblog/pkg/session"
)

func TestPersistentJarSurvivesRestart(t *testing.T) {
	env := newTestEnv(t)

	jar, err := NewPersistentJar(env.store, env.srv.URL, zerolog.Nop())
	require.NoError(t, err)
	c := New(env.srv.URL, env.sess, WithCookieJar(jar))
	_, err = c.Login(context.Background(), "ada", "secret1")
	require.NoError(t, err)

	raw, err := env.store.Get(session.KeyCookies)
	require.NoError(t, err)
	assert.Contains(t, raw, `"name":"refreshToken"`)

	// A new process: fresh session and jar over the same store.
	jar2, err := NewPersistentJar(env.store, env.srv.URL, zerolog.Nop())
	require.NoError(t, err)
	c2 := New(env.srv.URL, session.New(env.store), WithCookieJar(jar2))

	env.api.Advance(2 * time.Minute)
	_, err = c2.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.RefreshCalls())
}

func TestPersistentJarDropsCorruptCookies(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.KeyCookies, "{nope"))

	jar, err := NewPersistentJar(store, "http://localhost:2011", zerolog.Nop())
	require.NoError(t, err)

	u, err := url.Parse("http://localhost:2011/api/auth/refresh")
	require.NoError(t, err)
	assert.Empty(t, jar.Cookies(u))
	_, err = store.Get(session.KeyCookies)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestPersistentJarForgetsExpiredCookie(t *testing.T) {
	store := session.NewMemoryStore()
	jar, err := NewPersistentJar(store, "http://localhost:2011", zerolog.Nop())
	require.NoError(t, err)

	u, err := url.Parse("http://localhost:2011/api/auth/login")
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/api/auth"}})
	_, err = store.Get(session.KeyCookies)
	require.NoError(t, err)

	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/api/auth", MaxAge: -1}})
	_, err = store.Get(session.KeyCookies)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
