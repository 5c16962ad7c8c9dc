package models

import (
	"time"
)

// Author is a platform account that published at least one archived post.
type Author struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time

	Names   []AuthorName
	Handles []AuthorHandle
	Posts   []Post
}

// TableName overrides the table name
func (Author) TableName() string {
	return "authors"
}

// AuthorName is one entry of an author's display-name history.
type AuthorName struct {
	ID         uint      `gorm:"primaryKey"`
	AuthorID   uint      `gorm:"index;not null"`
	Name       string    `gorm:"size:500"`
	RecordedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (AuthorName) TableName() string {
	return "author_names"
}

// AuthorHandle is one entry of an author's handle history.
type AuthorHandle struct {
	ID         uint      `gorm:"primaryKey"`
	AuthorID   uint      `gorm:"index;not null"`
	Handle     string    `gorm:"size:500"`
	RecordedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (AuthorHandle) TableName() string {
	return "author_handles"
}
