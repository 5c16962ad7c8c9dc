package models

import (
	"time"
)

// DeletedPost stands in for a post that was sent to the bot but could not be
// fetched anymore.
type DeletedPost struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       int64  `gorm:"uniqueIndex;not null"`
	URL          string `gorm:"size:200"`
	AuthorHandle string `gorm:"size:500"`
	Comment      string `gorm:"size:500"`
	CreatedAt    time.Time
}

// TableName overrides the table name
func (DeletedPost) TableName() string {
	return "deleted_posts"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Author{},
		&AuthorName{},
		&AuthorHandle{},
		&Post{},
		&Comment{},
		&DeletedPost{},
	}
}
