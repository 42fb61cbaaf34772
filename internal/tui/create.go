package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thebigwealth89/socialblog/pkg/client"
	"github.com/thebigwealth89/socialblog/pkg/domain"
)

type createField int

const (
	fieldText createField = iota
	fieldTags
	fieldImage
	numFields
)

var createFieldKeys = [numFields]string{"text", "tags", "image"}

type createModel struct {
	client    *client.Client
	fields    [numFields]string
	focus     createField
	fieldErrs map[string]string
	banner    string
	submitted bool
}

type postCreatedMsg struct {
	post *domain.Post
	err  error
}

func newCreateModel(c *client.Client) createModel {
	return createModel{client: c}
}

func (m createModel) Update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postCreatedMsg:
		m.submitted = false
		if msg.err != nil {
			m.fieldErrs, m.banner = client.FormErrors(msg.err)
			return m, nil
		}
		return newCreateModel(m.client), nil

	case tea.KeyMsg:
		if m.submitted {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m createModel) updateKeys(msg tea.KeyMsg) (createModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numFields) % numFields
	case "enter":
		if m.focus == fieldText {
			m.fields[fieldText] = editRune(m.fields[fieldText], "\n")
		} else {
			m.focus = (m.focus + 1) % numFields
		}
	default:
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m createModel) submit() (createModel, tea.Cmd) {
	m.fieldErrs = nil
	m.banner = ""

	req := client.CreatePostRequest{
		Text: strings.TrimSpace(m.fields[fieldText]),
		Tags: domain.ParseTags(m.fields[fieldTags]),
	}
	if req.Text == "" {
		m.fieldErrs = map[string]string{"text": "Post text is required."}
		return m, nil
	}
	image := strings.TrimSpace(m.fields[fieldImage])

	m.submitted = true
	c := m.client
	return m, func() tea.Msg {
		if image != "" {
			if link, ok := linkURL(image); ok {
				req.Image = link
			} else {
				data, err := client.EncodeImageFile(image)
				if err != nil {
					return postCreatedMsg{err: &client.ValidationError{Fields: map[string]string{"image": err.Error()}}}
				}
				req.Image = data
			}
		}
		post, err := c.CreatePost(context.Background(), req)
		return postCreatedMsg{post: post, err: err}
	}
}

func (m createModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("NEW POST") + "\n\n")

	labels := [numFields]string{"text", "tags (comma separated)", "image (path or url)"}
	for i := createField(0); i < numFields; i++ {
		value := m.fields[i]
		if i == fieldTags {
			if tags := domain.ParseTags(value); len(tags) > 0 && i != m.focus {
				value = renderTags(tags)
			}
		}
		b.WriteString(renderField(labels[i], value, m.fieldErrs[createFieldKeys[i]], i == m.focus))
	}

	b.WriteString("\n")
	switch {
	case m.submitted:
		b.WriteString(" " + dimStyle.Render("publishing..."))
	case m.banner != "":
		b.WriteString(" " + errorStyle.Render(m.banner))
	}
	return b.String()
}
