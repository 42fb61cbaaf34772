package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/domain"
)

type authMode int

const (
	modeLogin authMode = iota
	modeSignup
)

type authField int

// Login uses fieldIdentifier and fieldPassword only.
const (
	fieldIdentifier authField = iota
	fieldUsername
	fieldEmail
	fieldPassword
	fieldPicture
	fieldTerms
	numAuthFields
)

var (
	loginFields  = []authField{fieldIdentifier, fieldPassword}
	signupFields = []authField{fieldUsername, fieldEmail, fieldPassword, fieldPicture, fieldTerms}
)

// Field keys used by the API and client validation.
var authFieldKeys = map[authField]string{
	fieldIdentifier: "email",
	fieldUsername:   "username",
	fieldEmail:      "email",
	fieldPassword:   "password",
	fieldPicture:    "profilePicture",
	fieldTerms:      "terms",
}

type authModel struct {
	client    *client.Client
	mode      authMode
	values    [numAuthFields]string
	terms     bool
	focus     int
	fieldErrs map[string]string
	banner    string
	notice    string
	busy      bool
}

type loggedInMsg struct {
	user *domain.User
	err  error
}

type signedUpMsg struct {
	user *domain.User
	err  error
}

func newAuthModel(c *client.Client) authModel {
	return authModel{client: c}
}

// reset clears the form and shows notice above it.
func (m authModel) reset(notice string) authModel {
	next := newAuthModel(m.client)
	next.notice = notice
	return next
}

func (m authModel) fields() []authField {
	if m.mode == modeSignup {
		return signupFields
	}
	return loginFields
}

func (m authModel) focused() authField {
	return m.fields()[m.focus]
}

func (m authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		m.busy = false
		if msg.err != nil {
			m.fieldErrs, m.banner = client.FormErrors(msg.err)
			m.values[fieldPassword] = ""
			return m, nil
		}
		return m.reset(""), nil

	case signedUpMsg:
		m.busy = false
		if msg.err != nil {
			m.fieldErrs, m.banner = client.FormErrors(msg.err)
			return m, nil
		}
		username := msg.user.Username
		m = m.reset("Account created. Please log in.")
		m.values[fieldIdentifier] = username
		m.focus = 1
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m authModel) updateKeys(msg tea.KeyMsg) (authModel, tea.Cmd) {
	n := len(m.fields())
	switch msg.String() {
	case "ctrl+t":
		if m.mode == modeLogin {
			m.mode = modeSignup
		} else {
			m.mode = modeLogin
		}
		m.focus = 0
		m.fieldErrs = nil
		m.banner = ""
	case "tab", "down":
		m.focus = (m.focus + 1) % n
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + n) % n
	case "enter":
		return m.submit()
	case " ":
		if m.focused() == fieldTerms {
			m.terms = !m.terms
			return m, nil
		}
		m.values[m.focused()] = editRune(m.values[m.focused()], " ")
	default:
		if f := m.focused(); f != fieldTerms {
			m.values[f] = editRune(m.values[f], msg.String())
		}
	}
	return m, nil
}

func (m authModel) submit() (authModel, tea.Cmd) {
	m.fieldErrs = nil
	m.banner = ""
	m.notice = ""
	c := m.client

	if m.mode == modeLogin {
		identifier := strings.TrimSpace(m.values[fieldIdentifier])
		password := m.values[fieldPassword]
		if err := client.ValidateLogin(identifier, password); err != nil {
			m.fieldErrs, m.banner = client.FormErrors(err)
			return m, nil
		}
		m.busy = true
		return m, func() tea.Msg {
			user, err := c.Login(context.Background(), identifier, password)
			return loggedInMsg{user: user, err: err}
		}
	}

	req := client.SignupRequest{
		Username:    strings.TrimSpace(m.values[fieldUsername]),
		Email:       strings.TrimSpace(m.values[fieldEmail]),
		Password:    m.values[fieldPassword],
		AcceptTerms: m.terms,
	}
	if err := client.ValidateSignup(req); err != nil {
		m.fieldErrs, m.banner = client.FormErrors(err)
		return m, nil
	}
	picture := strings.TrimSpace(m.values[fieldPicture])
	m.busy = true
	return m, func() tea.Msg {
		if picture != "" {
			data, err := client.EncodeImageFile(picture)
			if err != nil {
				return signedUpMsg{err: &client.ValidationError{Fields: map[string]string{"profilePicture": err.Error()}}}
			}
			req.ProfilePicture = data
		}
		user, err := c.Signup(context.Background(), req)
		return signedUpMsg{user: user, err: err}
	}
}

func (m authModel) View() string {
	var b strings.Builder

	title := "LOG IN"
	other := "ctrl+t to sign up"
	if m.mode == modeSignup {
		title = "SIGN UP"
		other = "ctrl+t to log in"
	}
	b.WriteString(" " + titleStyle.Render(title) + "  " + metaStyle.Render(other) + "\n\n")

	if m.notice != "" {
		b.WriteString(" " + noticeStyle.Render(m.notice) + "\n\n")
	}

	labels := map[authField]string{
		fieldIdentifier: "username or email",
		fieldUsername:   "username",
		fieldEmail:      "email",
		fieldPassword:   "password",
		fieldPicture:    "picture (path)",
		fieldTerms:      "terms",
	}
	for i, f := range m.fields() {
		value := m.values[f]
		switch f {
		case fieldPassword:
			value = mask(value)
		case fieldTerms:
			box := "[ ]"
			if m.terms {
				box = "[x]"
			}
			value = box + " " + dimStyle.Render("I accept the Terms and Privacy Policy")
		}
		b.WriteString(renderField(labels[f], value, m.fieldErrs[authFieldKeys[f]], i == m.focus))
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("please wait..."))
	case m.banner != "":
		b.WriteString(" " + errorStyle.Render(m.banner))
	}
	return b.String()
}
