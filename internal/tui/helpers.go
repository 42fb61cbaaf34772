package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// formatTime renders a relative timestamp for feed entries.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatExpiry renders how long an access token has left.
func formatExpiry(exp, now time.Time) string {
	d := exp.Sub(now)
	switch {
	case d <= 0:
		return "token expired"
	case d < time.Minute:
		return "token expires in <1m"
	case d < time.Hour:
		return fmt.Sprintf("token expires in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("token expires in %dh", int(d.Hours()))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// oneLine collapses whitespace so post text fits a single feed row.
func oneLine(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// linkURL returns s when it is an http(s) URL that can be opened in a browser.
// Inline data URLs are not.
func linkURL(s string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
