package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/db"
	"github.com/agnosto/dm-archiver/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database.DB
}

// newTestArchive returns a service whose clock advances one minute per call.
func newTestArchive(t *testing.T) (*ArchiveService, *gorm.DB) {
	t.Helper()
	gdb := newTestDB(t)
	svc := NewArchiveService(gdb)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, gdb
}

func command(comment string) core.Command {
	return core.Command{Matched: true, Comment: comment, Link: "https://x.test/alice/status/42"}
}

func link(handle, id string) core.PostLink {
	return core.PostLink{Matched: true, URL: "https://x.test/" + handle + "/status/" + id, AuthorHandle: handle, PostID: id}
}

func found(id int64, name, handle string) core.FetchResult {
	return core.Found(core.PostMetadata{
		ID:           id,
		AuthorID:     7,
		AuthorName:   name,
		AuthorHandle: handle,
		CreatedAt:    time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC),
		Text:         "post text",
	})
}

func count(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestIngest_FoundPost(t *testing.T) {
	svc, gdb := newTestArchive(t)

	outcome, err := svc.Ingest(context.Background(), command("great catch"), link("alice", "42"), found(42, "Alice", "alice"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, outcome)

	var posts []models.Post
	require.NoError(t, gdb.Preload("Comments").Preload("Author.Handles").Preload("Author.Names").Find(&posts).Error)
	require.Len(t, posts, 1)

	post := posts[0]
	assert.Equal(t, int64(42), post.PostID)
	assert.Equal(t, "https://x.test/alice/status/42", post.URL)
	assert.Equal(t, "post text", post.Text)
	assert.Equal(t, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), post.PostCreatedAt.UTC())
	assert.Equal(t, int64(7), post.Author.UserID)
	require.Len(t, post.Author.Handles, 1)
	assert.Equal(t, "alice", post.Author.Handles[0].Handle)
	require.Len(t, post.Author.Names, 1)
	assert.Equal(t, "Alice", post.Author.Names[0].Name)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "great catch", post.Comments[0].Text)

	assert.Equal(t, int64(1), count(t, gdb, &models.Author{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.Comment{}))
	assert.Zero(t, count(t, gdb, &models.DeletedPost{}))
}

func TestIngest_NotFoundWritesTombstone(t *testing.T) {
	svc, gdb := newTestArchive(t)

	outcome, err := svc.Ingest(context.Background(), command("Great Catch"), link("alice", "42"), core.NotFound())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTombstoned, outcome)

	var tombstones []models.DeletedPost
	require.NoError(t, gdb.Find(&tombstones).Error)
	require.Len(t, tombstones, 1)
	assert.Equal(t, int64(42), tombstones[0].PostID)
	assert.Equal(t, "Great Catch", tombstones[0].Comment)
	assert.Equal(t, "alice", tombstones[0].AuthorHandle)
	assert.Equal(t, "https://x.test/alice/status/42", tombstones[0].URL)

	assert.Zero(t, count(t, gdb, &models.Post{}))
	assert.Zero(t, count(t, gdb, &models.Author{}))
	assert.Zero(t, count(t, gdb, &models.Comment{}))

	outcome, err = svc.Ingest(context.Background(), command("other"), link("alice", "42"), core.NotFound())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTombstoneExists, outcome)
	assert.Equal(t, int64(1), count(t, gdb, &models.DeletedPost{}))
}

func TestIngest_DuplicatePostIsNoop(t *testing.T) {
	svc, gdb := newTestArchive(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, command("great catch"), link("alice", "42"), found(42, "Alice", "alice"))
	require.NoError(t, err)

	outcome, err := svc.Ingest(ctx, command("another note"), link("alice", "42"), found(42, "Alice Renamed", "alice2"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.False(t, outcome.Wrote())

	assert.Equal(t, int64(1), count(t, gdb, &models.Post{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.Comment{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.AuthorName{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.AuthorHandle{}))
}

func TestIngest_CommentIsSharedCaseInsensitively(t *testing.T) {
	svc, gdb := newTestArchive(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, command("Great Catch"), link("alice", "1"), found(1, "Alice", "alice"))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, command("great catch"), link("alice", "2"), found(2, "Alice", "alice"))
	require.NoError(t, err)

	var comments []models.Comment
	require.NoError(t, gdb.Preload("Posts").Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "great catch", comments[0].Text)
	assert.Len(t, comments[0].Posts, 2)
}

func TestIngest_HistoryAppendsOnlyOnChange(t *testing.T) {
	svc, gdb := newTestArchive(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, command("a"), link("alice", "1"), found(1, "Alice", "alice"))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, command("a"), link("alice", "2"), found(2, "Alice", "alice"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, gdb, &models.AuthorName{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.AuthorHandle{}))

	_, err = svc.Ingest(ctx, command("a"), link("alice", "3"), found(3, "Alice B.", "alice"))
	require.NoError(t, err)

	var names []models.AuthorName
	require.NoError(t, gdb.Order("recorded_at").Find(&names).Error)
	require.Len(t, names, 2)
	assert.Equal(t, "Alice B.", names[1].Name)
	assert.Equal(t, int64(1), count(t, gdb, &models.AuthorHandle{}))
	assert.Equal(t, int64(1), count(t, gdb, &models.Author{}))

	// changing back appends again
	_, err = svc.Ingest(ctx, command("a"), link("alice", "4"), found(4, "Alice", "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count(t, gdb, &models.AuthorName{}))
}

func TestIngest_TruncatesLongText(t *testing.T) {
	svc, gdb := newTestArchive(t)

	result := found(9, "Alice", "alice")
	result.Post.Text = strings.Repeat("ä", models.MaxPostTextLength+10)

	_, err := svc.Ingest(context.Background(), command("long"), link("alice", "9"), result)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, gdb.First(&post).Error)
	assert.Equal(t, models.MaxPostTextLength, utf8.RuneCountInString(post.Text))
}

func TestIngest_RejectsFaults(t *testing.T) {
	svc, gdb := newTestArchive(t)

	for _, result := range []core.FetchResult{
		core.TransientFault(errors.New("timeout")),
		core.FatalFault(errors.New("unauthorized")),
	} {
		_, err := svc.Ingest(context.Background(), command("x"), link("alice", "42"), result)
		assert.ErrorIs(t, err, ErrNotIngestable)
	}

	assert.Zero(t, count(t, gdb, &models.Post{}))
	assert.Zero(t, count(t, gdb, &models.DeletedPost{}))
}

func TestIngest_FailureLeavesNoPartialState(t *testing.T) {
	svc, gdb := newTestArchive(t)
	require.NoError(t, gdb.Migrator().DropTable("post_comments"))

	_, err := svc.Ingest(context.Background(), command("great catch"), link("alice", "42"), found(42, "Alice", "alice"))
	require.Error(t, err)

	assert.Zero(t, count(t, gdb, &models.Author{}))
	assert.Zero(t, count(t, gdb, &models.AuthorName{}))
	assert.Zero(t, count(t, gdb, &models.Comment{}))
	assert.Zero(t, count(t, gdb, &models.Post{}))
}

func TestIngest_UnrelatedUniqueViolationIsAnError(t *testing.T) {
	svc, gdb := newTestArchive(t)
	ctx := context.Background()
	require.NoError(t, gdb.Exec("CREATE UNIQUE INDEX idx_posts_url_unique ON posts(url)").Error)

	_, err := svc.Ingest(ctx, command("first"), link("alice", "42"), found(1, "Alice", "alice"))
	require.NoError(t, err)

	// same URL, different post id: the violation is not on the post id
	outcome, err := svc.Ingest(ctx, command("second"), link("alice", "42"), found(2, "Alice", "alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Zero(t, outcome)
	assert.Equal(t, int64(1), count(t, gdb, &models.Post{}))
}

func TestIngest_TruncatesLongComments(t *testing.T) {
	svc, gdb := newTestArchive(t)
	ctx := context.Background()
	long := strings.Repeat("É", models.MaxCommentLength+20)

	_, err := svc.Ingest(ctx, command(long), link("alice", "1"), found(1, "Alice", "alice"))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, command(long), link("alice", "2"), core.NotFound())
	require.NoError(t, err)

	var comment models.Comment
	require.NoError(t, gdb.First(&comment).Error)
	assert.Equal(t, models.MaxCommentLength, utf8.RuneCountInString(comment.Text))
	assert.Equal(t, strings.Repeat("é", models.MaxCommentLength), comment.Text)

	var tombstone models.DeletedPost
	require.NoError(t, gdb.First(&tombstone).Error)
	assert.Equal(t, models.MaxCommentLength, utf8.RuneCountInString(tombstone.Comment))
}
