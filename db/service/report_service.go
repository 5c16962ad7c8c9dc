package service

import (
	"errors"
	"fmt"

	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/db/repository"
	"github.com/agnosto/dm-archiver/logger"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record to delete does not exist.
var ErrNotFound = errors.New("record not found")

// Summary holds the row counts of the archive.
type Summary struct {
	Authors    int64
	Posts      int64
	Comments   int64
	Tombstones int64
}

// ReportService answers the operator's questions about the archive
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Summary counts the rows of every table
func (s *ReportService) Summary() (Summary, error) {
	var sum Summary
	var err error

	if sum.Authors, err = repository.NewAuthorRepository(s.db).Count(); err != nil {
		return sum, fmt.Errorf("count authors: %w", err)
	}
	if sum.Posts, err = repository.NewPostRepository(s.db).Count(); err != nil {
		return sum, fmt.Errorf("count posts: %w", err)
	}
	if sum.Comments, err = repository.NewCommentRepository(s.db).Count(); err != nil {
		return sum, fmt.Errorf("count comments: %w", err)
	}
	if sum.Tombstones, err = repository.NewDeletedPostRepository(s.db).Count(); err != nil {
		return sum, fmt.Errorf("count tombstones: %w", err)
	}
	return sum, nil
}

// AuthorStats returns post and history counts per author
func (s *ReportService) AuthorStats() ([]repository.AuthorStats, error) {
	return repository.NewAuthorRepository(s.db).Stats()
}

// Tombstones lists the recorded deleted posts
func (s *ReportService) Tombstones() ([]models.DeletedPost, error) {
	return repository.NewDeletedPostRepository(s.db).List()
}

// DeletePost removes an archived post. With cascade, comments left without
// any post are removed too; their number is returned.
func (s *ReportService) DeletePost(postID int64, cascade bool) (int64, error) {
	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)

		post, err := posts.FindByPostID(postID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find post %d: %w", postID, err)
		}

		commentIDs, err := posts.CommentIDs(post)
		if err != nil {
			return fmt.Errorf("find comments of post %d: %w", postID, err)
		}

		if err := posts.Delete(post); err != nil {
			return fmt.Errorf("delete post %d: %w", postID, err)
		}

		if cascade {
			removed, err = repository.NewCommentRepository(tx).DeleteOrphans(commentIDs)
			if err != nil {
				return fmt.Errorf("delete orphaned comments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Logger.Info().Int64("post_id", postID).Bool("cascade", cascade).Int64("comments_removed", removed).Msg("deleted post")
	return removed, nil
}

// DeleteTombstone removes the tombstone of a deleted post
func (s *ReportService) DeleteTombstone(postID int64) error {
	found, err := repository.NewDeletedPostRepository(s.db).DeleteByPostID(postID)
	if err != nil {
		return fmt.Errorf("delete tombstone %d: %w", postID, err)
	}
	if !found {
		return fmt.Errorf("tombstone %d: %w", postID, ErrNotFound)
	}
	logger.Logger.Info().Int64("post_id", postID).Msg("deleted tombstone")
	return nil
}
