package models

import "time"

// Post is a piece of content published by a user. The author field is a
// username reference, not ownership: deleting the author cascades through
// the service layer, not through the entity.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
