package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

var taglines = [...]string{
	"Write it down before it turns into a tweet.",
	"Your drafts folder called. It wants out.",
	"Short posts, long thoughts.",
	"Somebody out there is waiting for exactly this post.",
	"Publish first. Polish in the next one.",
	"Tags are how future you finds this again.",
}

func printHelp(w io.Writer) {
	banner := figure.NewFigure("socialblog", "small", true).String()
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2dd4bf")).
		Bold(true).
		Render(banner)

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(taglines[rand.IntN(len(taglines))])

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"socialblog", "Open the feed (interactive TUI)"},
		{"socialblog login <id>", "Log in with a username or email"},
		{"socialblog signup <user> <email>", "Create an account (--accept-terms, --picture path)"},
		{"socialblog logout", "End your session"},
		{"socialblog whoami", "Show the cached session"},
		{"socialblog posts", "List posts"},
		{"socialblog post <id>", "Show one post"},
		{"socialblog new <text>", "Publish a post (--tags a,b, --image path|url)"},
		{"socialblog version", "Show version"},
		{"socialblog help", "You are here"},
	}

	fmt.Fprintf(w, "\n%s\n  %s\n\n  Commands:\n", title, quote) //nolint:errcheck
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-34s", c.cmd)), descStyle.Render(c.desc)) //nolint:errcheck
	}
	env := descStyle.Render("Password is read from SOCIALBLOG_PASSWORD or stdin. API: SOCIALBLOG_API_URL.")
	fmt.Fprintf(w, "\n  %s\n\n", env) //nolint:errcheck
}
