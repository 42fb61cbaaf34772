package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

// redirectMsg is a forced return to the login view.
type redirectMsg struct {
	reason string
}

// sessionMsg reports a session change made anywhere in the process.
type sessionMsg struct {
	snap session.Snapshot
	ok   bool
}

// Events carries session events raised on client goroutines into the
// program. It is the client's Redirector and a session listener.
type Events struct {
	ch chan tea.Msg
}

var _ client.Redirector = (*Events)(nil)

// NewEvents returns an Events ready to be passed to client.WithRedirector.
func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 64)}
}

func (e *Events) RedirectToLogin(reason string) {
	e.send(redirectMsg{reason: reason})
}

// SessionChanged is a session.Listener.
func (e *Events) SessionChanged(snap session.Snapshot, ok bool) {
	e.send(sessionMsg{snap: snap, ok: ok})
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

// wait returns a command that delivers the next event.
func (e *Events) wait() tea.Cmd {
	return func() tea.Msg { return <-e.ch }
}
