package repository

import (
	"github.com/agnosto/dm-archiver/db/models"
	"gorm.io/gorm"
)

// DeletedPostRepository defines the interface for tombstone operations
type DeletedPostRepository interface {
	Create(post *models.DeletedPost) error
	ExistsByPostID(postID int64) (bool, error)
	DeleteByPostID(postID int64) (bool, error)
	List() ([]models.DeletedPost, error)
	Count() (int64, error)
}

// GormDeletedPostRepository implements DeletedPostRepository using GORM
type GormDeletedPostRepository struct {
	db *gorm.DB
}

// NewDeletedPostRepository creates a new tombstone repository
func NewDeletedPostRepository(db *gorm.DB) DeletedPostRepository {
	return &GormDeletedPostRepository{db: db}
}

// Create adds a new tombstone to the database
func (r *GormDeletedPostRepository) Create(post *models.DeletedPost) error {
	return r.db.Create(post).Error
}

// ExistsByPostID checks if a tombstone exists for the platform id
func (r *GormDeletedPostRepository) ExistsByPostID(postID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.DeletedPost{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

// DeleteByPostID removes the tombstone and reports whether one existed
func (r *GormDeletedPostRepository) DeleteByPostID(postID int64) (bool, error) {
	res := r.db.Where("post_id = ?", postID).Delete(&models.DeletedPost{})
	return res.RowsAffected > 0, res.Error
}

// List returns all tombstones, newest first
func (r *GormDeletedPostRepository) List() ([]models.DeletedPost, error) {
	var posts []models.DeletedPost
	err := r.db.Order("created_at DESC").Order("id DESC").Find(&posts).Error
	return posts, err
}

// Count returns the number of tombstones
func (r *GormDeletedPostRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.DeletedPost{}).Count(&count).Error
	return count, err
}
