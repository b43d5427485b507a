package models

import "time"

// Comment is a reply attached to a parent entity. ParentID refers to either
// a post or another comment, which is what makes nested reply threads work.
type Comment struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
