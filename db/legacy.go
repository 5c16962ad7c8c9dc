package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tables written by the earlier bot, in drop order.
var legacyTables = []string{
	"tweets_link_comments",
	"legacy_comments",
	"userNameAtTime",
	"userScreenNameAtTime",
	"tweets",
	"twitterUser",
}

// importLegacySchema copies the earlier bot's rows into the current schema
// and drops its tables. Everything happens in one transaction.
func importLegacySchema(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// the old comments table is in the way of the new one
		if err := tx.Exec(`ALTER TABLE comments RENAME TO legacy_comments`).Error; err != nil {
			return fmt.Errorf("rename legacy comments: %w", err)
		}

		if err := tx.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		steps := []struct {
			name string
			sql  string
		}{
			{"authors", `INSERT OR IGNORE INTO authors (user_id, created_at)
                SELECT u.twitter_user_id, COALESCE(MIN(t.input_timestamp), CURRENT_TIMESTAMP)
                FROM twitterUser u LEFT JOIN tweets t ON t.user_id = u.id
                GROUP BY u.twitter_user_id`},
			{"author names", `INSERT INTO author_names (author_id, name, recorded_at)
                SELECT a.id, n.twitter_user_name, n.input_timestamp
                FROM userNameAtTime n
                JOIN twitterUser u ON u.id = n.user_id
                JOIN authors a ON a.user_id = u.twitter_user_id
                ORDER BY n.input_timestamp, n.id`},
			{"author handles", `INSERT INTO author_handles (author_id, handle, recorded_at)
                SELECT a.id, s.twitter_user_screen_name, s.input_timestamp
                FROM userScreenNameAtTime s
                JOIN twitterUser u ON u.id = s.user_id
                JOIN authors a ON a.user_id = u.twitter_user_id
                ORDER BY s.input_timestamp, s.id`},
			{"posts", `INSERT OR IGNORE INTO posts (post_id, author_id, url, text, post_created_at, created_at)
                SELECT t.tweet_id, a.id, t.tweet_url, t.tweet_text, t.tweet_create_date, t.input_timestamp
                FROM tweets t
                JOIN twitterUser u ON u.id = t.user_id
                JOIN authors a ON a.user_id = u.twitter_user_id
                ORDER BY t.id`},
		}
		for _, step := range steps {
			res := tx.Exec(step.sql)
			if res.Error != nil {
				return fmt.Errorf("import %s: %w", step.name, res.Error)
			}
			logger.Logger.Info().Int64("rows", res.RowsAffected).Msgf("imported legacy %s", step.name)
		}

		commentIDs, err := importLegacyComments(tx)
		if err != nil {
			return err
		}
		if err := importLegacyLinks(tx, commentIDs); err != nil {
			return err
		}

		for _, table := range legacyTables {
			if err := tx.Exec(`DROP TABLE IF EXISTS "` + table + `"`).Error; err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		return nil
	})
}

type legacyComment struct {
	ID             uint
	Comment        *string
	InputTimestamp time.Time
}

// importLegacyComments lower-cases and de-duplicates the old comments. It
// returns the new comment id for every old one.
func importLegacyComments(tx *gorm.DB) (map[uint]uint, error) {
	var rows []legacyComment
	if err := tx.Raw(`SELECT id, comment, input_timestamp FROM legacy_comments ORDER BY input_timestamp, id`).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("read legacy comments: %w", err)
	}

	ids := make(map[uint]uint, len(rows))
	byText := make(map[string]uint)
	for _, row := range rows {
		if row.Comment == nil || strings.TrimSpace(*row.Comment) == "" {
			continue
		}
		text := strings.ToLower(*row.Comment)
		if id, ok := byText[text]; ok {
			ids[row.ID] = id
			continue
		}

		comment := models.Comment{Text: text, CreatedAt: row.InputTimestamp}
		if err := tx.Where(models.Comment{Text: text}).FirstOrCreate(&comment).Error; err != nil {
			return nil, fmt.Errorf("import comment %d: %w", row.ID, err)
		}
		byText[text] = comment.ID
		ids[row.ID] = comment.ID
	}

	logger.Logger.Info().Int("rows", len(byText)).Msg("imported legacy comments")
	return ids, nil
}

func importLegacyLinks(tx *gorm.DB, commentIDs map[uint]uint) error {
	var links []struct {
		PostID    int64
		CommentID uint
	}
	if err := tx.Raw(`SELECT t.tweet_id AS post_id, l.comment_id AS comment_id
                      FROM tweets_link_comments l JOIN tweets t ON t.id = l.tweet_id`).
		Scan(&links).Error; err != nil {
		return fmt.Errorf("read legacy links: %w", err)
	}

	for _, link := range links {
		commentID, ok := commentIDs[link.CommentID]
		if !ok {
			continue
		}
		var post models.Post
		if err := tx.Select("id").Where("post_id = ?", link.PostID).Limit(1).Find(&post).Error; err != nil {
			return fmt.Errorf("find imported post %d: %w", link.PostID, err)
		}
		if post.ID == 0 {
			// tweet of an author that no longer exists
			continue
		}
		row := map[string]any{"post_id": post.ID, "comment_id": commentID}
		if err := tx.Table("post_comments").Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return fmt.Errorf("link post %d: %w", link.PostID, err)
		}
	}
	return nil
}
