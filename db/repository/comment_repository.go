package repository

import (
	"github.com/agnosto/dm-archiver/db/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment operations
type CommentRepository interface {
	FindOrCreate(text string) (*models.Comment, error)
	DeleteOrphans(ids []uint) (int64, error)
	Count() (int64, error)
}

// GormCommentRepository implements CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// FindOrCreate returns the comment with exactly this text, creating it if needed
func (r *GormCommentRepository) FindOrCreate(text string) (*models.Comment, error) {
	comment := models.Comment{Text: text}
	if err := r.db.Where("text = ?", text).FirstOrCreate(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteOrphans removes those of the given comments that no post links to anymore
func (r *GormCommentRepository) DeleteOrphans(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Where("id IN ?", ids).
		Where("NOT EXISTS (SELECT 1 FROM post_comments pc WHERE pc.comment_id = comments.id)").
		Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// Count returns the number of comments
func (r *GormCommentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Count(&count).Error
	return count, err
}
