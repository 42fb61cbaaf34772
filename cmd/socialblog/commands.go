package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/domain"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

const loginHint = "run: socialblog login <username or email>"

var (
	userStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	dimText   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tagText   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A017"))
)

// cli runs one-shot subcommands against the API.
type cli struct {
	client   *client.Client
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	password string
}

func newCLI(in io.Reader, out, errOut io.Writer, password string) *cli {
	return &cli{in: bufio.NewReader(in), out: out, errOut: errOut, password: password}
}

// redirector reports forced sign-outs on stderr.
func (c *cli) redirector() client.Redirector {
	return client.RedirectFunc(func(reason string) {
		fmt.Fprintf(c.errOut, "%s\n  %s\n", reason, loginHint) //nolint:errcheck
	})
}

func (c *cli) run(ctx context.Context, args []string) error {
	var err error
	switch args[0] {
	case "login":
		err = c.login(ctx, args[1:])
	case "signup":
		err = c.signup(ctx, args[1:])
	case "logout":
		c.client.Logout(ctx)
		fmt.Fprintln(c.out, "Logged out.") //nolint:errcheck
	case "whoami":
		c.whoami()
	case "posts":
		err = c.listPosts(ctx)
	case "post":
		err = c.showPost(ctx, args[1:])
	case "new":
		err = c.newPost(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q (see: socialblog help)", args[0])
	}
	if err != nil {
		return describe(err)
	}
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: socialblog login <username or email>")
	}
	password, err := c.readPassword()
	if err != nil {
		return err
	}
	user, err := c.client.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", userStyle.Render("@"+user.Username)) //nolint:errcheck
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	picture := fs.String("picture", "", "profile picture file")
	accept := fs.Bool("accept-terms", false, "accept the Terms and Privacy Policy")
	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return errors.New("usage: socialblog signup <username> <email> [--picture path] --accept-terms")
	}

	password, err := c.readPassword()
	if err != nil {
		return err
	}
	req := client.SignupRequest{
		Username:    positional[0],
		Email:       positional[1],
		Password:    password,
		AcceptTerms: *accept,
	}
	if err := client.ValidateSignup(req); err != nil {
		return err
	}
	if *picture != "" {
		data, err := client.EncodeImageFile(*picture)
		if err != nil {
			return &client.ValidationError{Fields: map[string]string{"profilePicture": err.Error()}}
		}
		req.ProfilePicture = data
	}

	user, err := c.client.Signup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Account created for %s. Log in with: socialblog login %s\n", userStyle.Render("@"+user.Username), user.Username) //nolint:errcheck
	return nil
}

// whoami reports the cached session without touching the network.
func (c *cli) whoami() {
	snap, ok := c.client.CurrentSession()
	if !ok {
		fmt.Fprintf(c.out, "Not signed in.\n  %s\n", loginHint) //nolint:errcheck
		return
	}
	line := userStyle.Render("@"+snap.User.Username) + " " + dimText.Render(snap.User.Email)
	if exp, ok := snap.ExpiresAt(); ok {
		if d := time.Until(exp); d > 0 {
			line += dimText.Render(fmt.Sprintf(" · token expires in %s", d.Round(time.Second)))
		} else {
			line += dimText.Render(" · token expired, it is refreshed on the next request")
		}
	}
	fmt.Fprintln(c.out, line) //nolint:errcheck
}

func (c *cli) listPosts(ctx context.Context) error {
	posts, err := c.client.ListPosts(ctx)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(c.out, "No posts yet.") //nolint:errcheck
		return nil
	}
	for _, p := range posts {
		text := strings.Join(strings.Fields(p.Text), " ")
		if r := []rune(text); len(r) > 72 {
			text = string(r[:71]) + "…"
		}
		fmt.Fprintf(c.out, "%s  %s  %s\n  %s\n", //nolint:errcheck
			userStyle.Render("@"+p.AuthorName()), dimText.Render(formatDate(p.CreatedAt)), dimText.Render(p.ID), text)
	}
	return nil
}

func (c *cli) showPost(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: socialblog post <id>")
	}
	p, err := c.client.GetPost(ctx, args[0])
	if err != nil {
		return err
	}
	printPost(c.out, p)
	return nil
}

func (c *cli) newPost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	tags := fs.String("tags", "", "comma separated tags")
	image := fs.String("image", "", "image file or http(s) url")
	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}

	req := client.CreatePostRequest{
		Text: strings.Join(positional, " "),
		Tags: domain.ParseTags(*tags),
	}
	if img := strings.TrimSpace(*image); img != "" {
		if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			req.Image = img
		} else {
			data, err := client.EncodeImageFile(img)
			if err != nil {
				return &client.ValidationError{Fields: map[string]string{"image": err.Error()}}
			}
			req.Image = data
		}
	}

	p, err := c.client.CreatePost(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Published post %s\n", p.ID) //nolint:errcheck
	return nil
}

// readPassword takes the password from the environment, or one line of stdin.
func (c *cli) readPassword() (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	fmt.Fprint(c.errOut, "Password: ") //nolint:errcheck
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printPost(w io.Writer, p *domain.Post) {
	fmt.Fprintf(w, "%s  %s\n\n", userStyle.Render("@"+p.AuthorName()), dimText.Render(formatDate(p.CreatedAt))) //nolint:errcheck
	fmt.Fprintln(w, p.Text)                                                                                   //nolint:errcheck
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = "#" + t
		}
		fmt.Fprintln(w, "\n"+tagText.Render(strings.Join(tags, " "))) //nolint:errcheck
	}
	fmt.Fprintln(w, dimText.Render(fmt.Sprintf("%d likes · %d comments", len(p.Likes), p.CommentCount))) //nolint:errcheck
	if p.Image != "" && !strings.HasPrefix(p.Image, "data:") {
		fmt.Fprintln(w, dimText.Render("image: "+p.Image)) //nolint:errcheck
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2 15:04")
}

// parseInterleaved parses fs allowing flags before, between and after
// positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// describe turns a client error into the message shown on the terminal.
func describe(err error) error {
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, client.ErrSessionExpired) {
		return errors.New("not signed in")
	}
	fields, general := client.FormErrors(err)
	if len(fields) == 0 {
		if general == client.GenericErrorMessage {
			return err
		}
		return errors.New(general)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + fields[k]
	}
	return errors.New(strings.Join(lines, "\n  "))
}
