package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/db/repository"
	"github.com/agnosto/dm-archiver/logger"
	"gorm.io/gorm"
)

// ErrNotIngestable is returned when Ingest is handed a transient or fatal fetch result.
var ErrNotIngestable = errors.New("fetch result cannot be ingested")

// Outcome is what Ingest did with a message.
type Outcome int

const (
	OutcomeTombstoned Outcome = iota + 1
	OutcomeTombstoneExists
	OutcomeReconciled
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTombstoned:
		return "tombstoned"
	case OutcomeTombstoneExists:
		return "tombstone_exists"
	case OutcomeReconciled:
		return "reconciled"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Wrote reports whether the outcome added rows.
func (o Outcome) Wrote() bool {
	return o == OutcomeTombstoned || o == OutcomeReconciled
}

// ArchiveService records fetched posts and tombstones
type ArchiveService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewArchiveService creates a new archive service
func NewArchiveService(db *gorm.DB) *ArchiveService {
	return &ArchiveService{db: db, now: time.Now}
}

// Ingest writes the result of one matched message. All writes for the message
// share one transaction; on error nothing is committed.
func (s *ArchiveService) Ingest(ctx context.Context, cmd core.Command, link core.PostLink, result core.FetchResult) (Outcome, error) {
	if !result.Ingestable() {
		return 0, fmt.Errorf("%w: %s", ErrNotIngestable, result.Status)
	}

	var outcome Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if result.Status == core.FetchNotFound {
			outcome, err = s.tombstone(tx, cmd, link)
		} else {
			outcome, err = s.reconcile(tx, cmd, link, *result.Post)
		}
		return err
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent writer may have stored the same post first
		if outcome, ok := s.alreadyStored(ctx, link, result); ok {
			return outcome, nil
		}
	}
	if err != nil {
		return 0, fmt.Errorf("ingest post %s: %w", link.PostID, err)
	}
	return outcome, nil
}

// alreadyStored reports whether the post or tombstone for result exists
// outside the failed transaction.
func (s *ArchiveService) alreadyStored(ctx context.Context, link core.PostLink, result core.FetchResult) (Outcome, bool) {
	db := s.db.WithContext(ctx)
	if result.Status == core.FetchNotFound {
		postID, err := strconv.ParseInt(link.PostID, 10, 64)
		if err != nil {
			return 0, false
		}
		exists, err := repository.NewDeletedPostRepository(db).ExistsByPostID(postID)
		return OutcomeTombstoneExists, err == nil && exists
	}
	exists, err := repository.NewPostRepository(db).ExistsByPostID(result.Post.ID)
	return OutcomeDuplicate, err == nil && exists
}

func (s *ArchiveService) tombstone(tx *gorm.DB, cmd core.Command, link core.PostLink) (Outcome, error) {
	postID, err := strconv.ParseInt(link.PostID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q: %w", link.PostID, err)
	}

	tombstones := repository.NewDeletedPostRepository(tx)
	exists, err := tombstones.ExistsByPostID(postID)
	if err != nil {
		return 0, fmt.Errorf("check tombstone: %w", err)
	}
	if exists {
		return OutcomeTombstoneExists, nil
	}

	err = tombstones.Create(&models.DeletedPost{
		PostID:       postID,
		URL:          link.URL,
		AuthorHandle: link.AuthorHandle,
		Comment:      truncateRunes(cmd.Comment, models.MaxCommentLength),
	})
	if err != nil {
		return 0, fmt.Errorf("create tombstone: %w", err)
	}

	logger.Logger.Info().Int64("post_id", postID).Str("author", link.AuthorHandle).Msg("recorded deleted post")
	return OutcomeTombstoned, nil
}

func (s *ArchiveService) reconcile(tx *gorm.DB, cmd core.Command, link core.PostLink, meta core.PostMetadata) (Outcome, error) {
	posts := repository.NewPostRepository(tx)
	exists, err := posts.ExistsByPostID(meta.ID)
	if err != nil {
		return 0, fmt.Errorf("check post: %w", err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}

	author, err := s.author(repository.NewAuthorRepository(tx), meta)
	if err != nil {
		return 0, err
	}

	comment, err := repository.NewCommentRepository(tx).FindOrCreate(truncateRunes(strings.ToLower(cmd.Comment), models.MaxCommentLength))
	if err != nil {
		return 0, fmt.Errorf("find comment: %w", err)
	}

	post := &models.Post{
		PostID:        meta.ID,
		AuthorID:      author.ID,
		URL:           link.URL,
		Text:          truncateRunes(meta.Text, models.MaxPostTextLength),
		PostCreatedAt: meta.CreatedAt,
		Comments:      []models.Comment{*comment},
	}
	if err := posts.Create(post); err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}

	logger.Logger.Info().
		Int64("post_id", meta.ID).
		Str("author", meta.AuthorHandle).
		Str("comment", comment.Text).
		Msg("archived post")
	return OutcomeReconciled, nil
}

// author returns the stored author for meta, creating it and appending name
// and handle history as needed.
func (s *ArchiveService) author(authors repository.AuthorRepository, meta core.PostMetadata) (*models.Author, error) {
	author, err := authors.FindByUserID(meta.AuthorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		author = &models.Author{UserID: meta.AuthorID}
		if err := authors.Create(author); err != nil {
			return nil, fmt.Errorf("create author: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("find author: %w", err)
	}

	now := s.now().UTC()

	if meta.AuthorName != "" {
		latest, err := authors.LatestName(author.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find author name: %w", err)
		}
		if latest == nil || latest.Name != meta.AuthorName {
			if err := authors.AppendName(author.ID, meta.AuthorName, now); err != nil {
				return nil, fmt.Errorf("append author name: %w", err)
			}
		}
	}

	if meta.AuthorHandle != "" {
		latest, err := authors.LatestHandle(author.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find author handle: %w", err)
		}
		if latest == nil || latest.Handle != meta.AuthorHandle {
			if err := authors.AppendHandle(author.ID, meta.AuthorHandle, now); err != nil {
				return nil, fmt.Errorf("append author handle: %w", err)
			}
		}
	}

	return author, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
