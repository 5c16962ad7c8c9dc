package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agnosto/dm-archiver/core"
	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/agnosto/dm-archiver/posts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInbox struct {
	messages []core.DirectMessage
	err      error
	calls    int
}

func (f *fakeInbox) ListDirectMessages(ctx context.Context, pageSize, maxPages int, opts posts.ListOptions) ([]core.DirectMessage, error) {
	f.calls++
	return f.messages, f.err
}

type fakeFetcher struct {
	results map[string]core.FetchResult
	calls   []string
}

func (f *fakeFetcher) GetPost(ctx context.Context, postID string) core.FetchResult {
	f.calls = append(f.calls, postID)
	if r, ok := f.results[postID]; ok {
		return r
	}
	return core.NotFound()
}

type ingestCall struct {
	cmd    core.Command
	link   core.PostLink
	result core.FetchResult
}

// fakeArchive remembers post ids like the real archive does.
type fakeArchive struct {
	calls      []ingestCall
	posts      map[int64]bool
	tombstones map[string]bool
	err        error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{posts: map[int64]bool{}, tombstones: map[string]bool{}}
}

func (f *fakeArchive) Ingest(ctx context.Context, cmd core.Command, link core.PostLink, result core.FetchResult) (dbservice.Outcome, error) {
	f.calls = append(f.calls, ingestCall{cmd: cmd, link: link, result: result})
	if f.err != nil {
		return 0, f.err
	}
	if result.Status == core.FetchNotFound {
		if f.tombstones[link.PostID] {
			return dbservice.OutcomeTombstoneExists, nil
		}
		f.tombstones[link.PostID] = true
		return dbservice.OutcomeTombstoned, nil
	}
	if f.posts[result.Post.ID] {
		return dbservice.OutcomeDuplicate, nil
	}
	f.posts[result.Post.ID] = true
	return dbservice.OutcomeReconciled, nil
}

type fakeHealth bool

func (f fakeHealth) Healthy(ctx context.Context) bool { return bool(f) }

type recordingNotifier struct {
	reports []PassReport
}

func (n *recordingNotifier) NotifyPass(report PassReport) {
	n.reports = append(n.reports, report)
}

func metadata(id int64) core.FetchResult {
	return core.Found(core.PostMetadata{ID: id, AuthorID: 7, AuthorName: "Alice", AuthorHandle: "alice", Text: "hi"})
}

func newTestArchiver(inbox *fakeInbox, fetcher *fakeFetcher, archive *fakeArchive) *Archiver {
	return NewArchiver(inbox, fetcher, archive, fakeHealth(true), core.NewLinkResolver("x.test"), Options{PageSize: 20, MaxPages: 1, SelfID: "1"})
}

func TestRunPass_FoundPost(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "#bot great catch https://x.test/alice/status/42"},
	}}
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{"42": metadata(42)}}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Received)
	assert.Equal(t, 1, report.Reconciled)
	assert.True(t, report.Changed())
	assert.NotEqual(t, uuid.Nil, report.RunID)

	require.Len(t, archive.calls, 1)
	call := archive.calls[0]
	assert.Equal(t, "great catch", call.cmd.Comment)
	assert.Equal(t, "alice", call.link.AuthorHandle)
	assert.Equal(t, "42", call.link.PostID)
	assert.Equal(t, "https://x.test/alice/status/42", call.link.URL)
}

func TestRunPass_NotFoundTombstones(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "#bot great catch https://x.test/alice/status/42"},
	}}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, &fakeFetcher{}, archive).RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tombstoned)
	require.Len(t, archive.calls, 1)
	assert.Equal(t, core.FetchNotFound, archive.calls[0].result.Status)
}

func TestRunPass_DiscardsWithoutWrites(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "great catch https://x.test/alice/status/42"},
		{ID: "m2", SenderID: "2", Text: "#bot no link here"},
		{ID: "m3", SenderID: "2", Text: "#bot wrong host https://example.com/alice/status/42"},
		{ID: "m4", SenderID: "2", Text: "#bot too big https://x.test/alice/status/99999999999999999999"},
		{ID: "m5", SenderID: "1", Text: "#bot my own https://x.test/alice/status/42"},
	}}
	fetcher := &fakeFetcher{}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Received)
	assert.Equal(t, 5, report.Discarded)
	assert.False(t, report.Changed())
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, archive.calls)
}

func TestRunPass_UsesExpandedURL(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{{
		ID:       "m1",
		SenderID: "2",
		Text:     "#bot great catch https://t.co/abc",
		URLs:     []core.URLEntity{{URL: "https://t.co/abc", ExpandedURL: "https://x.test/alice/status/42"}},
	}}}
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{"42": metadata(42)}}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reconciled)
	assert.Equal(t, []string{"42"}, fetcher.calls)
}

func TestRunPass_SecondMessageForSamePostIsDuplicate(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m2", SenderID: "2", Text: "#bot again https://x.test/alice/status/42"},
		{ID: "m1", SenderID: "3", Text: "#bot great catch https://x.test/alice/status/42"},
	}}
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{"42": metadata(42)}}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reconciled)
	assert.Equal(t, 1, report.Duplicate)
	assert.Len(t, archive.posts, 1)
}

func TestRunPass_TransientFaultSkipsMessage(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "#bot first https://x.test/alice/status/1"},
		{ID: "m2", SenderID: "2", Text: "#bot second https://x.test/alice/status/2"},
	}}
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{
		"1": core.TransientFault(errors.New("timeout")),
		"2": metadata(2),
	}}
	archive := newFakeArchive()

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Reconciled)
	require.Len(t, archive.calls, 1)
	assert.Equal(t, "2", archive.calls[0].link.PostID)
}

func TestRunPass_FatalFaultAbortsPass(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "#bot first https://x.test/alice/status/1"},
		{ID: "m2", SenderID: "2", Text: "#bot second https://x.test/alice/status/2"},
	}}
	cause := errors.New("rate limited")
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{
		"1": core.FatalFault(cause),
		"2": metadata(2),
	}}
	archive := newFakeArchive()
	notifier := &recordingNotifier{}

	archiver := newTestArchiver(inbox, fetcher, archive)
	archiver.SetNotifier(notifier)

	report, err := archiver.RunPass(context.Background())
	assert.ErrorIs(t, err, ErrPassAborted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"1"}, fetcher.calls)
	assert.Empty(t, archive.calls)

	require.Len(t, notifier.reports, 1)
	assert.ErrorIs(t, notifier.reports[0].Err, ErrPassAborted)
	assert.Equal(t, report.RunID, notifier.reports[0].RunID)
}

func TestRunPass_PersistenceFaultSkipsMessage(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "2", Text: "#bot first https://x.test/alice/status/1"},
	}}
	fetcher := &fakeFetcher{results: map[string]core.FetchResult{"1": metadata(1)}}
	archive := newFakeArchive()
	archive.err = errors.New("disk I/O error")

	report, err := newTestArchiver(inbox, fetcher, archive).RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestRunPass_UnhealthyDatabase(t *testing.T) {
	inbox := &fakeInbox{}
	archiver := NewArchiver(inbox, &fakeFetcher{}, newFakeArchive(), fakeHealth(false), nil, Options{})

	_, err := archiver.RunPass(context.Background())
	assert.ErrorIs(t, err, ErrDatabaseUnavailable)
	assert.Zero(t, inbox.calls)
}

func TestRunPass_InboxError(t *testing.T) {
	inbox := &fakeInbox{err: &posts.APIError{Endpoint: "direct_messages/events/list.json", StatusCode: 401, Status: core.FetchFatal}}

	_, err := newTestArchiver(inbox, &fakeFetcher{}, newFakeArchive()).RunPass(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.FetchFatal, posts.StatusOf(err))
}

type fakeVerifier struct {
	account posts.Account
	err     error
	calls   int
}

func (f *fakeVerifier) VerifyCredentials(ctx context.Context) (posts.Account, error) {
	f.calls++
	return f.account, f.err
}

func TestRunPass_VerifiesCredentialsEachPass(t *testing.T) {
	inbox := &fakeInbox{messages: []core.DirectMessage{
		{ID: "m1", SenderID: "99", Text: "#bot my own https://x.test/alice/status/42"},
	}}
	verifier := &fakeVerifier{err: &posts.APIError{Endpoint: "account/verify_credentials.json", StatusCode: 429, Code: 88, Status: core.FetchFatal}}
	archive := newFakeArchive()

	archiver := NewArchiver(inbox, &fakeFetcher{}, archive, fakeHealth(true), core.NewLinkResolver("x.test"), Options{PageSize: 20, MaxPages: 1})
	archiver.SetVerifier(verifier)

	_, err := archiver.RunPass(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.FetchFatal, posts.StatusOf(err))
	assert.Zero(t, inbox.calls)

	// credentials accepted on the next pass; the account id is learned then
	verifier.err = nil
	verifier.account = posts.Account{IDStr: "99", ScreenName: "archivebot"}

	report, err := archiver.RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, verifier.calls)
	assert.Equal(t, 1, report.Discarded)
	assert.Empty(t, archive.calls)
}
