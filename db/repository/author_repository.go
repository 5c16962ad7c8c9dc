package repository

import (
	"time"

	"github.com/agnosto/dm-archiver/db/models"
	"gorm.io/gorm"
)

// AuthorRepository defines the interface for author operations
type AuthorRepository interface {
	Create(author *models.Author) error
	FindByUserID(userID int64) (*models.Author, error)
	LatestName(authorID uint) (*models.AuthorName, error)
	LatestHandle(authorID uint) (*models.AuthorHandle, error)
	AppendName(authorID uint, name string, at time.Time) error
	AppendHandle(authorID uint, handle string, at time.Time) error
	Stats() ([]AuthorStats, error)
	Count() (int64, error)
}

// AuthorStats is one row of the per-author report.
type AuthorStats struct {
	ID          uint
	UserID      int64
	Handle      string
	Name        string
	PostCount   int64
	NameCount   int64
	HandleCount int64
}

// GormAuthorRepository implements AuthorRepository using GORM
type GormAuthorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &GormAuthorRepository{db: db}
}

// Create adds a new author to the database
func (r *GormAuthorRepository) Create(author *models.Author) error {
	return r.db.Create(author).Error
}

// FindByUserID finds an author by platform user id
func (r *GormAuthorRepository) FindByUserID(userID int64) (*models.Author, error) {
	var author models.Author
	err := r.db.Where("user_id = ?", userID).First(&author).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// LatestName returns the current display name of the author
func (r *GormAuthorRepository) LatestName(authorID uint) (*models.AuthorName, error) {
	var name models.AuthorName
	err := r.db.Where("author_id = ?", authorID).
		Order("recorded_at DESC").Order("id DESC").
		First(&name).Error
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// LatestHandle returns the current handle of the author
func (r *GormAuthorRepository) LatestHandle(authorID uint) (*models.AuthorHandle, error) {
	var handle models.AuthorHandle
	err := r.db.Where("author_id = ?", authorID).
		Order("recorded_at DESC").Order("id DESC").
		First(&handle).Error
	if err != nil {
		return nil, err
	}
	return &handle, nil
}

// AppendName adds a display-name history entry
func (r *GormAuthorRepository) AppendName(authorID uint, name string, at time.Time) error {
	return r.db.Create(&models.AuthorName{AuthorID: authorID, Name: name, RecordedAt: at}).Error
}

// AppendHandle adds a handle history entry
func (r *GormAuthorRepository) AppendHandle(authorID uint, handle string, at time.Time) error {
	return r.db.Create(&models.AuthorHandle{AuthorID: authorID, Handle: handle, RecordedAt: at}).Error
}

// Stats returns one report row per author, most prolific first
func (r *GormAuthorRepository) Stats() ([]AuthorStats, error) {
	var stats []AuthorStats
	err := r.db.Raw(`SELECT a.id, a.user_id,
            COALESCE((SELECT h.handle FROM author_handles h WHERE h.author_id = a.id
                ORDER BY h.recorded_at DESC, h.id DESC LIMIT 1), '') AS handle,
            COALESCE((SELECT n.name FROM author_names n WHERE n.author_id = a.id
                ORDER BY n.recorded_at DESC, n.id DESC LIMIT 1), '') AS name,
            (SELECT COUNT(*) FROM posts p WHERE p.author_id = a.id) AS post_count,
            (SELECT COUNT(*) FROM author_names n WHERE n.author_id = a.id) AS name_count,
            (SELECT COUNT(*) FROM author_handles h WHERE h.author_id = a.id) AS handle_count
        FROM authors a
        ORDER BY post_count DESC, a.id`).Scan(&stats).Error
	return stats, err
}

// Count returns the number of authors
func (r *GormAuthorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Author{}).Count(&count).Error
	return count, err
}
