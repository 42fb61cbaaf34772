package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/thebigwealth89/socialblog/internal/fakeapi"
	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/domain"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

type tuiEnv struct {
	api    *fakeapi.Server
	client *client.Client
	events *Events
	user   domain.User
}

func newTUIEnv(t *testing.T) *tuiEnv {
	t.Helper()
	api := fakeapi.New(fakeapi.Config{AccessTTL: time.Minute, BcryptCost: bcrypt.MinCost})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	user, err := api.SeedUser("ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SeedUser: %v", err)
	}
	events := NewEvents()
	c := client.New(srv.URL, session.New(session.NewMemoryStore()), client.WithRedirector(events))
	return &tuiEnv{api: api, client: c, events: events, user: user}
}

func (e *tuiEnv) newApp() App {
	a := NewApp(e.client, e.events, "test")
	a.width = 100
	a.height = 40
	return a
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(a App, s string) App {
	for _, r := range s {
		model, _ := a.Update(keyRunes(string(r)))
		a = model.(App)
	}
	return a
}

func press(a App, k tea.KeyType) (App, tea.Cmd) {
	model, cmd := a.Update(tea.KeyMsg{Type: k})
	return model.(App), cmd
}

// run executes cmd and feeds its message back into the app.
func run(t *testing.T, a App, cmd tea.Cmd) (App, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	model, next := a.Update(cmd())
	return model.(App), next
}

// drainEvents feeds every queued session event into the app.
func drainEvents(a App, events *Events) App {
	for {
		select {
		case msg := <-events.ch:
			model, _ := a.Update(msg)
			a = model.(App)
		default:
			return a
		}
	}
}

func loginThroughForm(t *testing.T, a App) App {
	t.Helper()
	a = typeText(a, "ada@example.com")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "secret1")
	a, cmd := press(a, tea.KeyEnter)
	a, cmd = run(t, a, cmd)
	if a.view != viewFeed {
		t.Fatalf("after login: view = %d, want feed (banner %q, fields %v)", a.view, a.auth.banner, a.auth.fieldErrs)
	}
	a, _ = run(t, a, cmd)
	return a
}

func TestNewAppStartsOnLoginWithoutSession(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()
	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
	if !strings.Contains(a.View(), "not signed in") {
		t.Error("header should say not signed in")
	}
}

func TestNewAppStartsOnFeedWithSession(t *testing.T) {
	env := newTUIEnv(t)
	if err := env.client.Session().Set(env.user, "T1"); err != nil {
		t.Fatal(err)
	}
	a := env.newApp()
	if a.view != viewFeed {
		t.Errorf("view = %d, want feed", a.view)
	}
}

func TestLoginThroughForm(t *testing.T) {
	env := newTUIEnv(t)
	if _, err := env.api.SeedPost(env.user.ID, "hello world"); err != nil {
		t.Fatal(err)
	}
	a := loginThroughForm(t, env.newApp())

	if len(a.feed.posts) != 1 {
		t.Fatalf("feed has %d posts, want 1 (err %v)", len(a.feed.posts), a.feed.err)
	}
	view := a.View()
	if !strings.Contains(view, "@ada") {
		t.Error("header should show the signed-in user")
	}
	if !strings.Contains(view, "token expires in") {
		t.Error("header should show token expiry")
	}
	if !strings.Contains(view, "hello world") {
		t.Error("feed should list the post")
	}
}

func TestLoginFormValidatesLocally(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()

	a, cmd := press(a, tea.KeyEnter)
	if cmd != nil {
		t.Error("invalid form should not send a request")
	}
	if a.auth.fieldErrs["email"] == "" || a.auth.fieldErrs["password"] == "" {
		t.Errorf("fieldErrs = %v, want email and password", a.auth.fieldErrs)
	}
	if _, ok := env.api.LastAuthorization("/api/auth/login"); ok {
		t.Error("login endpoint was called")
	}
}

func TestLoginRejectedShowsBanner(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()
	a = typeText(a, "ada")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "wrong-pw")
	a, cmd := press(a, tea.KeyEnter)
	a, _ = run(t, a, cmd)

	if a.view != viewAuth {
		t.Fatalf("view = %d, want auth", a.view)
	}
	if a.auth.banner != "Invalid credentials" {
		t.Errorf("banner = %q, want server message", a.auth.banner)
	}
	if a.auth.values[fieldPassword] != "" {
		t.Error("password should be cleared after a failed login")
	}
}

func TestQInFormTypesInsteadOfQuitting(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()
	model, cmd := a.Update(keyRunes("q"))
	a = model.(App)
	if cmd != nil {
		t.Error("q in a form should not quit")
	}
	if a.auth.values[fieldIdentifier] != "q" {
		t.Errorf("identifier = %q, want q", a.auth.values[fieldIdentifier])
	}
}

func TestSignupThroughForm(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()

	a, _ = press(a, tea.KeyCtrlT)
	if a.auth.mode != modeSignup {
		t.Fatal("ctrl+t should switch to signup")
	}
	a = typeText(a, "grace")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "grace@example.com")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "hopper1")
	a, _ = press(a, tea.KeyTab)
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, " ")
	if !a.auth.terms {
		t.Fatal("space on terms should accept them")
	}
	a, cmd := press(a, tea.KeyEnter)
	a, _ = run(t, a, cmd)

	if a.auth.mode != modeLogin {
		t.Errorf("after signup mode = %d, want login", a.auth.mode)
	}
	if a.auth.values[fieldIdentifier] != "grace" {
		t.Errorf("identifier = %q, want grace", a.auth.values[fieldIdentifier])
	}
	if !strings.Contains(a.auth.notice, "Account created") {
		t.Errorf("notice = %q", a.auth.notice)
	}
	if _, ok := env.client.CurrentSession(); ok {
		t.Error("signup should not sign in")
	}
}

func TestSignupRequiresTerms(t *testing.T) {
	env := newTUIEnv(t)
	a := env.newApp()
	a, _ = press(a, tea.KeyCtrlT)
	a = typeText(a, "grace")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "grace@example.com")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "hopper1")

	a, cmd := press(a, tea.KeyEnter)
	if cmd != nil {
		t.Error("signup without terms should not send a request")
	}
	if a.auth.fieldErrs["terms"] == "" {
		t.Errorf("fieldErrs = %v, want terms", a.auth.fieldErrs)
	}
	if !strings.Contains(a.View(), "You must accept the Terms") {
		t.Error("terms error should render")
	}
}

func TestRedirectShowsLoginWithReason(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())

	model, cmd := a.Update(redirectMsg{reason: client.ReasonSessionInvalid})
	a = model.(App)
	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
	if a.auth.notice != client.ReasonSessionInvalid {
		t.Errorf("notice = %q", a.auth.notice)
	}
	if cmd == nil {
		t.Error("app should keep listening for events")
	}
	if !strings.Contains(a.View(), client.ReasonSessionInvalid) {
		t.Error("reason should be visible")
	}
}

func TestRefreshRejectedReturnsToLogin(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())
	a = drainEvents(a, env.events)

	env.api.FailRefresh(http.StatusForbidden)
	env.api.Advance(2 * time.Minute)

	model, cmd := a.Update(keyRunes("r"))
	a = model.(App)
	a, _ = run(t, a, cmd)
	a = drainEvents(a, env.events)

	if a.view != viewAuth {
		t.Fatalf("view = %d, want auth", a.view)
	}
	if a.auth.notice != client.ReasonSessionInvalid {
		t.Errorf("notice = %q, want %q", a.auth.notice, client.ReasonSessionInvalid)
	}
	if _, ok := env.client.CurrentSession(); ok {
		t.Error("session should be cleared")
	}
}

func TestEventsDeliverRedirect(t *testing.T) {
	events := NewEvents()
	events.RedirectToLogin("bye")
	msg, ok := events.wait()().(redirectMsg)
	if !ok || msg.reason != "bye" {
		t.Errorf("wait() = %#v", msg)
	}
}

func TestSessionClearedSwitchesToLogin(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())

	model, _ := a.Update(sessionMsg{ok: false})
	a = model.(App)
	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
}

func TestCreatePostThroughForm(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())

	model, _ := a.Update(keyRunes("n"))
	a = model.(App)
	if a.view != viewCreate {
		t.Fatalf("view = %d, want create", a.view)
	}
	a = typeText(a, "first post")
	a, _ = press(a, tea.KeyTab)
	a = typeText(a, "go, cli")
	a, cmd := press(a, tea.KeyCtrlS)
	a, cmd = run(t, a, cmd)

	if a.view != viewFeed {
		t.Fatalf("view = %d, want feed (banner %q)", a.view, a.create.banner)
	}
	if a.feed.statusMsg != "post published" {
		t.Errorf("statusMsg = %q", a.feed.statusMsg)
	}
	a, _ = run(t, a, cmd)
	if len(a.feed.posts) != 1 || a.feed.posts[0].Text != "first post" {
		t.Fatalf("posts = %+v", a.feed.posts)
	}
	if got := a.feed.posts[0].Tags; len(got) != 2 || got[0] != "go" || got[1] != "cli" {
		t.Errorf("tags = %v", got)
	}
}

func TestCreatePostRequiresText(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())
	model, _ := a.Update(keyRunes("n"))
	a = model.(App)

	a, cmd := press(a, tea.KeyCtrlS)
	if cmd != nil {
		t.Error("empty post should not be sent")
	}
	if a.create.fieldErrs["text"] == "" {
		t.Errorf("fieldErrs = %v", a.create.fieldErrs)
	}
}

func TestEscFromCreateReturnsToFeed(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())
	model, _ := a.Update(keyRunes("n"))
	a = model.(App)
	a, _ = press(a, tea.KeyEsc)
	if a.view != viewFeed {
		t.Errorf("view = %d, want feed", a.view)
	}
}

func TestPostDetail(t *testing.T) {
	env := newTUIEnv(t)
	if _, err := env.api.SeedPost(env.user.ID, "line one\nline two", "intro"); err != nil {
		t.Fatal(err)
	}
	a := loginThroughForm(t, env.newApp())

	a, cmd := press(a, tea.KeyEnter)
	if a.feed.detail == nil {
		t.Fatal("enter should open the post")
	}
	a, _ = run(t, a, cmd)
	view := a.View()
	if !strings.Contains(view, "line two") || !strings.Contains(view, "#intro") {
		t.Errorf("detail view missing content:\n%s", view)
	}

	model, _ := a.Update(keyRunes("o"))
	a = model.(App)
	if a.feed.statusMsg != "no image link to open" {
		t.Errorf("statusMsg = %q", a.feed.statusMsg)
	}

	a, _ = press(a, tea.KeyEsc)
	if a.feed.detail != nil {
		t.Error("esc should close the post")
	}
}

func TestLogoutKey(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())

	model, cmd := a.Update(keyRunes("L"))
	a = model.(App)
	a, _ = run(t, a, cmd)

	if a.view != viewAuth {
		t.Errorf("view = %d, want auth", a.view)
	}
	if a.auth.notice != client.ReasonLoggedOut {
		t.Errorf("notice = %q", a.auth.notice)
	}
	if _, ok := env.client.CurrentSession(); ok {
		t.Error("session should be cleared")
	}
}

func TestQuitOnQInFeed(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())
	_, cmd := a.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q'")
	}
}

func TestHelpOverlay(t *testing.T) {
	env := newTUIEnv(t)
	a := loginThroughForm(t, env.newApp())

	model, _ := a.Update(keyRunes("?"))
	a = model.(App)
	if !a.helpOpen || !strings.Contains(a.View(), "open post") {
		t.Fatal("? should open help")
	}
	a, _ = press(a, tea.KeyEsc)
	if a.helpOpen {
		t.Error("esc should close help")
	}
}
