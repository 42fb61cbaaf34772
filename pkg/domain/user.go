package domain

import (
	"encoding/json"
	"time"
)

// User is the authenticated user's profile as returned by the auth service.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Website        string    `json:"website,omitempty"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts "_id" as an alias of "id".
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}
