// Command socialblog-devserver runs an in-memory socialblog API for local
// development and demos.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/thebigwealth89/socialblog/internal/config"
	"github.com/thebigwealth89/socialblog/internal/fakeapi"
	"github.com/thebigwealth89/socialblog/internal/logging"
)

func main() {
	seed := flag.Bool("seed", false, "create a demo account and a few posts")
	flag.Parse()

	cfg, err := config.LoadDevServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logging.Console(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	figure.NewFigure("socialblog dev", "cybermedium", true).Print()
	fmt.Println()

	if err := run(ctx, cfg, log, *seed); err != nil {
		log.Fatal().Err(err).Msg("devserver stopped")
	}
}

func run(ctx context.Context, cfg config.DevServer, log zerolog.Logger, seed bool) error {
	api := fakeapi.New(fakeapi.Config{
		Secret:     []byte(cfg.Secret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Logger:     log,
	})
	if seed {
		if err := seedDemo(api); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info().Str("login", demoUsername).Str("password", demoPassword).Msg("demo data loaded")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Dur("access_ttl", cfg.AccessTTL).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	return shutdown(srv)
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

const (
	demoUsername = "demo"
	demoEmail    = "demo@socialblog.local"
	demoPassword = "demo123"
)

var demoPosts = []struct {
	text string
	tags []string
}{
	{"Welcome to socialblog. Press n in the feed to write your first post.", []string{"welcome"}},
	{"Access tokens here live for fifteen minutes.\nThe client refreshes them for you.", []string{"auth", "tokens"}},
	{"Tip: tags are comma separated.", nil},
}

func seedDemo(api *fakeapi.Server) error {
	user, err := api.SeedUser(demoUsername, demoEmail, demoPassword)
	if err != nil {
		return err
	}
	for _, p := range demoPosts {
		if _, err := api.SeedPost(user.ID, p.text, p.tags...); err != nil {
			return err
		}
	}
	return nil
}
