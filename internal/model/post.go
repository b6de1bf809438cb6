package model

import "time"

// PostStatus is the visibility state of a marketplace post.
type PostStatus string

const (
	PostActive PostStatus = "ACTIVE"
	PostLocked PostStatus = "LOCKED"
)

// Post represents an editorial post shown on the marketplace front page.
type Post struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	ImageURL       string     `json:"image_url"`
	EditorID       int64      `json:"editor_id"`
	EditorRealname string     `json:"editor_realname"`
	Status         PostStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
