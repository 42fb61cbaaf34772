package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/thebigwealth89/socialblog/internal/config"
	"github.com/thebigwealth89/socialblog/internal/logging"
	"github.com/thebigwealth89/socialblog/internal/tui"
	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("socialblog " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logging.File(cfg.LogFile(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		events := tui.NewEvents()
		c, err := newClient(cfg, store, log, events)
		if err != nil {
			return err
		}
		p := tea.NewProgram(tui.NewApp(c, events, version), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("tui error: %w", err)
		}
		return nil
	}

	cli := newCLI(os.Stdin, os.Stdout, os.Stderr, os.Getenv(config.EnvPassword))
	c, err := newClient(cfg, store, log, cli.redirector())
	if err != nil {
		return err
	}
	cli.client = c
	return cli.run(context.Background(), args)
}

// openStore opens the session file. A corrupt file is logged and replaced by
// an empty store so the user simply starts signed out.
func openStore(cfg config.Config, log zerolog.Logger) (session.Store, error) {
	store, err := session.NewFileStore(cfg.SessionFile())
	if err != nil {
		var corrupt *session.CorruptFileError
		if !errors.As(err, &corrupt) {
			return nil, fmt.Errorf("open session: %w", err)
		}
		log.Warn().Err(err).Msg("session file unreadable, starting signed out")
	}
	return store, nil
}

func newClient(cfg config.Config, store session.Store, log zerolog.Logger, redirect client.Redirector) (*client.Client, error) {
	jar, err := client.NewPersistentJar(store, cfg.APIURL, log)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	sess := session.New(store, session.WithLogger(log))
	return client.New(cfg.APIURL, sess,
		client.WithLogger(log),
		client.WithRedirector(redirect),
		client.WithCookieJar(jar),
		client.WithTimeout(cfg.Timeout),
	), nil
}
