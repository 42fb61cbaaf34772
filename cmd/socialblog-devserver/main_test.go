package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebigwealth89/socialblog/internal/config"
	"github.com/thebigwealth89/socialblog/internal/fakeapi"
	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

func TestSeedDemo(t *testing.T) {
	api := fakeapi.New(fakeapi.Config{})
	require.NoError(t, seedDemo(api))

	srv := httptest.NewServer(api)
	defer srv.Close()

	c := client.New(srv.URL, session.New(session.NewMemoryStore()))
	ctx := context.Background()
	user, err := c.Login(ctx, demoUsername, demoPassword)
	require.NoError(t, err)
	assert.Equal(t, demoEmail, user.Email)

	posts, err := c.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, len(demoPosts))
	assert.Equal(t, demoPosts[len(demoPosts)-1].text, posts[0].Text, "newest first")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, config.DevServer{Addr: addr, AccessTTL: time.Minute}, zerolog.Nop(), false)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close() //nolint:errcheck
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
