package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thebigwealth89/socialblog/internal/browser"
	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/domain"
)

type feedModel struct {
	client    *client.Client
	posts     []domain.Post
	cursor    int
	detail    *domain.Post
	loading   bool
	err       error
	statusMsg string
	width     int
	height    int
}

type postsLoadedMsg struct {
	posts []domain.Post
	err   error
}

type postLoadedMsg struct {
	post *domain.Post
	err  error
}

type copyResultMsg struct{ err error }
type openResultMsg struct{ err error }

func newFeedModel(c *client.Client) feedModel {
	return feedModel{client: c, loading: true}
}

func (m feedModel) Init() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		posts, err := c.ListPosts(context.Background())
		return postsLoadedMsg{posts: posts, err: err}
	}
}

func (m feedModel) loadPost(id string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		post, err := c.GetPost(context.Background(), id)
		return postLoadedMsg{post: post, err: err}
	}
}

func (m feedModel) Update(msg tea.Msg) (feedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postsLoadedMsg:
		m.loading = false
		m.posts = msg.posts
		m.err = msg.err
		if m.cursor >= len(m.posts) {
			m.cursor = 0
		}
		return m, nil

	case postLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("could not load post: %v", msg.err)
			return m, nil
		}
		m.detail = msg.post
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("open failed: %v", msg.err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m feedModel) updateList(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.posts)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.posts) {
			post := m.posts[m.cursor]
			m.detail = &post
			m.loading = true
			return m, m.loadPost(post.ID)
		}
	case "r":
		m.loading = true
		return m, m.Init()
	}
	return m, nil
}

func (m feedModel) updateDetail(msg tea.KeyMsg) (feedModel, tea.Cmd) {
	post := *m.detail
	switch msg.String() {
	case "esc", "backspace":
		m.detail = nil
		m.loading = false
	case "c":
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(post.Text)}
		}
	case "o":
		link, ok := linkURL(post.Image)
		if !ok {
			m.statusMsg = "no image link to open"
			return m, nil
		}
		return m, func() tea.Msg {
			return openResultMsg{err: browser.Open(link)}
		}
	}
	return m, nil
}

func (m feedModel) View() string {
	if m.detail != nil {
		return m.viewDetail()
	}

	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("FEED") + "\n")
	sepW := max(m.width-2, 4)
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}
	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}
	if m.err != nil {
		fields, general := client.FormErrors(m.err)
		if general == "" {
			general = fmt.Sprint(fields)
		}
		b.WriteString(" " + errorStyle.Render(general) + "\n")
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("(%v)", m.err)))
		return b.String()
	}
	if len(m.posts) == 0 {
		b.WriteString(" " + dimStyle.Render("no posts yet. press n to write one"))
		return b.String()
	}

	textW := max(m.width-32, 20)
	for i, p := range m.posts {
		cursor := "  "
		row := fmt.Sprintf("%-14s %s", truncStr("@"+p.AuthorName(), 14), truncStr(oneLine(p.Text), textW))
		style := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render("> ")
			style = selectedStyle
		}
		line := cursor + style.Render(row) + "  " + metaStyle.Render(formatTime(p.CreatedAt))
		if i == m.cursor {
			line = selectedRowBg.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m feedModel) viewDetail() string {
	p := m.detail
	var b strings.Builder

	b.WriteString(" " + titleStyle.Render("@"+p.AuthorName()) + "  " + metaStyle.Render(formatTime(p.CreatedAt)) + "\n\n")
	for _, line := range strings.Split(p.Text, "\n") {
		b.WriteString(" " + normalStyle.Render(line) + "\n")
	}
	b.WriteString("\n")
	if len(p.Tags) > 0 {
		b.WriteString(" " + renderTags(p.Tags) + "\n")
	}
	meta := fmt.Sprintf("%d likes · %d comments", len(p.Likes), p.CommentCount)
	b.WriteString(" " + dimStyle.Render(meta) + "\n")
	if p.Image != "" {
		if link, ok := linkURL(p.Image); ok {
			b.WriteString(" " + dimStyle.Render("image: "+truncStr(link, max(m.width-10, 20))) + "\n")
		} else {
			b.WriteString(" " + dimStyle.Render("image attached") + "\n")
		}
	}
	if m.loading {
		b.WriteString(" " + metaStyle.Render("refreshing...") + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n " + okStyle.Render(m.statusMsg))
	}
	return b.String()
}
