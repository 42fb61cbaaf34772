// Package browser opens links in the user's default browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedURL is returned for anything but an absolute http(s) link.
// Post images may be inline data URLs, which are never handed to the OS.
var ErrUnsupportedURL = errors.New("only http and https links can be opened")

// startCommand launches the opener without waiting for it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens rawURL in the user's default browser.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("browser.Open: %w", ErrUnsupportedURL)
	}
	name, args, err := opener(runtime.GOOS)
	if err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	return startCommand(name, append(args, u.String())...)
}

func opener(goos string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}
