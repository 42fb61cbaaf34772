package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Post is a blog post from the content service.
type Post struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Image        string    `json:"image,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Likes        []string  `json:"likes,omitempty"`
	CommentCount int       `json:"commentCount"`
	UserID       string    `json:"userId,omitempty"`
	Author       *User     `json:"user,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts "_id" as an alias of "id", and "user" as either a
// populated profile or a bare user id.
func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	var raw struct {
		alias
		MongoID string          `json:"_id"`
		User    json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Post(raw.alias)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	p.Author = nil

	user := bytes.TrimSpace(raw.User)
	switch {
	case len(user) == 0 || bytes.Equal(user, []byte("null")):
	case user[0] == '"':
		var id string
		if err := json.Unmarshal(user, &id); err != nil {
			return fmt.Errorf("post user id: %w", err)
		}
		if p.UserID == "" {
			p.UserID = id
		}
	default:
		var u User
		if err := json.Unmarshal(user, &u); err != nil {
			return fmt.Errorf("post user: %w", err)
		}
		p.Author = &u
		if p.UserID == "" {
			p.UserID = u.ID
		}
	}
	return nil
}

// AuthorName returns the author's username, falling back to the user id.
func (p Post) AuthorName() string {
	if p.Author != nil && p.Author.Username != "" {
		return p.Author.Username
	}
	if p.UserID != "" {
		return p.UserID
	}
	return "unknown"
}

// ParseTags splits a comma separated tag list, trimming blanks and dropping empties.
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
