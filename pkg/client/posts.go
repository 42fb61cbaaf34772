package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/thebigwealth89/socialblog/pkg/domain"
	"github.com/thebigwealth89/socialblog/pkg/session"
)

// CreatePostRequest is the payload for creating a new post.
type CreatePostRequest struct {
	Text  string   `json:"text"`
	Image string   `json:"image"`
	Tags  []string `json:"tags"`
}

// ListPosts fetches all posts.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := c.get(ctx, pathPosts, &posts); err != nil {
		return nil, fmt.Errorf("client.ListPosts: %w", err)
	}
	return posts, nil
}

// GetPost fetches a single post by ID.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("client.GetPost: %w", &ValidationError{Message: "post id is required"})
	}
	var post domain.Post
	if err := c.get(ctx, pathPosts+url.PathEscape(id), &post); err != nil {
		return nil, fmt.Errorf("client.GetPost: %w", err)
	}
	return &post, nil
}

// CreatePost creates a new post. Without a signed-in user it redirects to
// login and returns session.ErrNoSession.
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*domain.Post, error) {
	if _, ok := c.session.Get(); !ok {
		c.redirect.RedirectToLogin(ReasonLoginRequired)
		return nil, fmt.Errorf("client.CreatePost: %w", session.ErrNoSession)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("client.CreatePost: %w", &ValidationError{Fields: map[string]string{"text": "Post text is required."}})
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	var created domain.Post
	if err := c.post(ctx, pathPosts, req, &created); err != nil {
		return nil, fmt.Errorf("client.CreatePost: %w", err)
	}
	return &created, nil
}
