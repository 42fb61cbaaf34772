package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thebigwealth89/socialblog/pkg/client"
)

type view int

const (
	viewAuth view = iota
	viewFeed
	viewCreate
)

// Chrome: header(2) + blank(1) + help(1).
const chromeLines = 4

type loggedOutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	client   *client.Client
	events   *Events
	version  string
	view     view
	auth     authModel
	feed     feedModel
	create   createModel
	helpOpen bool
	width    int
	height   int
	frame    int
	now      func() time.Time
}

// NewApp creates the TUI. events must be the Redirector the client was built
// with; NewApp also subscribes it to the client's session.
func NewApp(c *client.Client, events *Events, version string) App {
	c.Session().OnChange(events.SessionChanged)

	a := App{
		client:  c,
		events:  events,
		version: version,
		auth:    newAuthModel(c),
		feed:    newFeedModel(c),
		create:  newCreateModel(c),
		now:     time.Now,
	}
	if _, ok := c.CurrentSession(); ok {
		a.view = viewFeed
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), a.events.wait()}
	if a.view == viewFeed {
		cmds = append(cmds, a.feed.Init())
	}
	return tea.Batch(cmds...)
}

// toLogin drops all signed-in state and shows the login form.
func (a App) toLogin(notice string) App {
	a.view = viewAuth
	a.helpOpen = false
	a.auth = a.auth.reset(notice)
	a.feed = a.resized(newFeedModel(a.client))
	a.create = newCreateModel(a.client)
	return a
}

func (a App) resized(f feedModel) feedModel {
	f.width = a.width
	f.height = a.height - chromeLines
	return f
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.feed, _ = a.feed.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - chromeLines})
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case redirectMsg:
		return a.toLogin(msg.reason), a.events.wait()

	case sessionMsg:
		if !msg.ok && a.view != viewAuth {
			a = a.toLogin("")
		}
		return a, a.events.wait()

	case loggedOutMsg:
		if a.view != viewAuth {
			a = a.toLogin(client.ReasonLoggedOut)
		}
		return a, nil

	case loggedInMsg, signedUpMsg:
		var cmd tea.Cmd
		a.auth, cmd = a.auth.Update(msg)
		if m, ok := msg.(loggedInMsg); ok && m.err == nil {
			a.view = viewFeed
			a.feed = a.resized(newFeedModel(a.client))
			return a, a.feed.Init()
		}
		return a, cmd

	case postCreatedMsg:
		var cmd tea.Cmd
		a.create, cmd = a.create.Update(msg)
		if msg.err == nil {
			a.view = viewFeed
			a.feed.loading = true
			a.feed.statusMsg = "post published"
			return a, a.feed.Init()
		}
		return a, cmd

	case postsLoadedMsg, postLoadedMsg, copyResultMsg, openResultMsg:
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.helpOpen {
		switch key {
		case "?", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	if !a.isEditing() {
		switch key {
		case "q":
			return a, tea.Quit
		case "?":
			a.helpOpen = true
			return a, nil
		case "n":
			if a.feed.detail == nil {
				a.view = viewCreate
				return a, nil
			}
		case "L":
			c := a.client
			return a, func() tea.Msg {
				c.Logout(context.Background())
				return loggedOutMsg{}
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewAuth:
		if key == "esc" {
			return a, tea.Quit
		}
		a.auth, cmd = a.auth.Update(msg)
	case viewFeed:
		a.feed, cmd = a.feed.Update(msg)
	case viewCreate:
		if key == "esc" {
			a.view = viewFeed
			return a, nil
		}
		a.create, cmd = a.create.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	return a.view == viewAuth || a.view == viewCreate
}

func (a App) header() string {
	logo := renderShimmerLogo(a.frame)

	status := metaStyle.Render("not signed in")
	if snap, ok := a.client.CurrentSession(); ok {
		status = accentStyle.Render("@" + snap.User.Username)
		if exp, ok := snap.ExpiresAt(); ok {
			status += metaStyle.Render(" · " + formatExpiry(exp, a.now()))
		}
	}
	return center(logo, a.width) + "\n" + center(status, a.width)
}

func center(s string, width int) string {
	pad := max((width-lipgloss.Width(s))/2, 0)
	return strings.Repeat(" ", pad) + s
}

func (a App) View() string {
	var body, help string
	switch a.view {
	case viewAuth:
		body = a.auth.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+t", "login/signup") + "  " + helpEntry("esc", "quit")
	case viewFeed:
		body = a.feed.View()
		if a.feed.detail != nil {
			help = " " + helpEntry("c", "copy") + "  " + helpEntry("o", "open image") + "  " + helpEntry("esc", "back") + "  " + helpEntry("q", "quit")
		} else {
			help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("n", "new") + "  " + helpEntry("r", "reload") + "  " + helpEntry("L", "logout") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		}
	case viewCreate:
		body = a.create.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "publish") + "  " + helpEntry("esc", "cancel")
	}

	if a.helpOpen {
		body = helpView(a.version)
		help = " " + helpEntry("esc", "close")
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-chromeLines), "\n")
	return a.header() + "\n\n" + body + "\n" + help
}
