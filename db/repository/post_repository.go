package repository

import (
	"github.com/agnosto/dm-archiver/db/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post operations
type PostRepository interface {
	Create(post *models.Post) error
	ExistsByPostID(postID int64) (bool, error)
	FindByPostID(postID int64) (*models.Post, error)
	CommentIDs(post *models.Post) ([]uint, error)
	Delete(post *models.Post) error
	Count() (int64, error)
}

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

// Create adds a new post together with its comment links
func (r *GormPostRepository) Create(post *models.Post) error {
	return r.db.Omit("Author").Create(post).Error
}

// ExistsByPostID checks if a post exists in the database by its platform id
func (r *GormPostRepository) ExistsByPostID(postID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

// FindByPostID finds a post by its platform id
func (r *GormPostRepository) FindByPostID(postID int64) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("post_id = ?", postID).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CommentIDs returns the ids of the comments linked to the post
func (r *GormPostRepository) CommentIDs(post *models.Post) ([]uint, error) {
	var ids []uint
	err := r.db.Table("post_comments").Where("post_id = ?", post.ID).Pluck("comment_id", &ids).Error
	return ids, err
}

// Delete removes the post and its comment links
func (r *GormPostRepository) Delete(post *models.Post) error {
	if err := r.db.Model(post).Association("Comments").Clear(); err != nil {
		return err
	}
	return r.db.Delete(post).Error
}

// Count returns the number of posts
func (r *GormPostRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}
