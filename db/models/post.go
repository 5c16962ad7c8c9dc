package models

import (
	"time"
)

// MaxPostTextLength is the number of runes of post text that are stored.
const MaxPostTextLength = 4000

// Post is an archived post. CreatedAt is the ingestion time, PostCreatedAt
// the time the platform reports.
type Post struct {
	ID            uint   `gorm:"primaryKey"`
	PostID        int64  `gorm:"uniqueIndex;not null"`
	AuthorID      uint   `gorm:"index;not null"`
	URL           string `gorm:"size:200"`
	Text          string `gorm:"size:4000"`
	PostCreatedAt time.Time
	CreatedAt     time.Time

	Author   Author
	Comments []Comment `gorm:"many2many:post_comments;"`
}

// TableName overrides the table name
func (Post) TableName() string {
	return "posts"
}
