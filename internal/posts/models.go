package posts

import "time"

type Post struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	ImagePath string    `json:"image_path"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// Event is the websocket payload pushed when a post is created.
type Event struct {
	Type string `json:"type"`
	Post Post   `json:"post"`
}
