package models

import (
	"time"
)

// MaxCommentLength is the number of runes of a comment that are stored.
const MaxCommentLength = 500

// Comment is a note attached to archived posts. Text is stored lower-cased
// and is unique, so the same note sent twice is shared by both posts.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	Text      string `gorm:"uniqueIndex;size:500;not null"`
	CreatedAt time.Time

	Posts []Post `gorm:"many2many:post_comments;"`
}

// TableName overrides the table name
func (Comment) TableName() string {
	return "comments"
}
