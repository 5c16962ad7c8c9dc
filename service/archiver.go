package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/agnosto/dm-archiver/auth"
	"github.com/agnosto/dm-archiver/core"
	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/agnosto/dm-archiver/posts"
	"github.com/google/uuid"
)

var (
	// ErrPassAborted is returned when a fatal fetch fault stops a pass early.
	ErrPassAborted = errors.New("pass aborted")
	// ErrDatabaseUnavailable is returned when the database fails its health check.
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// Inbox lists the direct messages the bot account received.
type Inbox interface {
	ListDirectMessages(ctx context.Context, pageSize, maxPages int, opts posts.ListOptions) ([]core.DirectMessage, error)
}

// Fetcher looks up a post by id.
type Fetcher interface {
	GetPost(ctx context.Context, postID string) core.FetchResult
}

// Archive records the result of a matched message.
type Archive interface {
	Ingest(ctx context.Context, cmd core.Command, link core.PostLink, result core.FetchResult) (dbservice.Outcome, error)
}

// HealthChecker reports whether the database can be used.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Notifier is told about every finished pass.
type Notifier interface {
	NotifyPass(report PassReport)
}

type Options struct {
	PageSize     int
	MaxPages     int
	ShowProgress bool
	// SelfID is the bot account's user id; its own messages are skipped.
	// With a verifier set it is refreshed at the start of every pass.
	SelfID string
}

// PassReport summarizes one poll-and-ingest pass.
type PassReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	Received   int
	Discarded  int
	Tombstoned int
	Reconciled int
	Duplicate  int
	Failed     int
	Err        error
}

// Changed reports whether the pass wrote anything.
func (r PassReport) Changed() bool {
	return r.Tombstoned > 0 || r.Reconciled > 0
}

type messageState int

const (
	stateDiscarded messageState = iota
	stateTombstoned
	stateReconciled
	stateDuplicate
	stateFailed
)

// Archiver runs passes over the inbox.
type Archiver struct {
	inbox    Inbox
	fetcher  Fetcher
	archive  Archive
	health   HealthChecker
	resolver *core.LinkResolver
	opts     Options
	notifier Notifier
	verifier auth.Verifier
	selfID   string
}

func NewArchiver(inbox Inbox, fetcher Fetcher, archive Archive, health HealthChecker, resolver *core.LinkResolver, opts Options) *Archiver {
	if resolver == nil {
		resolver = core.NewLinkResolver()
	}
	return &Archiver{
		inbox:    inbox,
		fetcher:  fetcher,
		archive:  archive,
		health:   health,
		resolver: resolver,
		opts:     opts,
		selfID:   opts.SelfID,
	}
}

func (a *Archiver) SetNotifier(n Notifier) {
	a.notifier = n
}

// SetVerifier makes every pass start by verifying the credentials. A failed
// check ends the pass; the next pass tries again.
func (a *Archiver) SetVerifier(v auth.Verifier) {
	a.verifier = v
}

// RunPass polls the inbox once and handles every message in order. Transient
// faults drop the message and the pass continues; a fatal fault ends it with
// ErrPassAborted.
func (a *Archiver) RunPass(ctx context.Context) (PassReport, error) {
	report := PassReport{RunID: uuid.New(), StartedAt: time.Now()}
	log := logger.Logger.With().Str("run_id", report.RunID.String()).Logger()

	err := a.runPass(ctx, &report)
	report.Duration = time.Since(report.StartedAt)
	report.Err = err

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Int("received", report.Received).
		Int("discarded", report.Discarded).
		Int("tombstoned", report.Tombstoned).
		Int("reconciled", report.Reconciled).
		Int("duplicate", report.Duplicate).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("pass finished")

	if a.notifier != nil {
		a.notifier.NotifyPass(report)
	}
	return report, err
}

func (a *Archiver) runPass(ctx context.Context, report *PassReport) error {
	if a.health != nil && !a.health.Healthy(ctx) {
		return ErrDatabaseUnavailable
	}

	if a.verifier != nil {
		account, err := auth.Login(ctx, a.verifier)
		if err != nil {
			return err
		}
		a.selfID = account.ID
	}

	messages, err := a.inbox.ListDirectMessages(ctx, a.opts.PageSize, a.opts.MaxPages, posts.ListOptions{ShowProgress: a.opts.ShowProgress})
	if err != nil {
		return fmt.Errorf("list direct messages: %w", err)
	}
	report.Received = len(messages)

	for _, msg := range messages {
		state, err := a.handle(ctx, msg)
		if err != nil {
			return err
		}
		switch state {
		case stateDiscarded:
			report.Discarded++
		case stateTombstoned:
			report.Tombstoned++
		case stateReconciled:
			report.Reconciled++
		case stateDuplicate:
			report.Duplicate++
		case stateFailed:
			report.Failed++
		}
	}
	return nil
}

// handle takes one message to its final state. The error is non-nil only
// when the pass has to stop.
func (a *Archiver) handle(ctx context.Context, msg core.DirectMessage) (messageState, error) {
	log := logger.Logger.With().Str("message_id", msg.ID).Logger()

	if a.selfID != "" && msg.SenderID == a.selfID {
		log.Debug().Msg("skipping own message")
		return stateDiscarded, nil
	}

	cmd := core.ParseCommand(msg.Text)
	if !cmd.Matched {
		log.Debug().Msg("message is not a command")
		return stateDiscarded, nil
	}

	link := a.resolver.Resolve(msg.ExpandedURL(cmd.Link))
	if !link.Matched {
		log.Debug().Str("link", cmd.Link).Msg("link is not a post link")
		return stateDiscarded, nil
	}

	if _, err := strconv.ParseInt(link.PostID, 10, 64); err != nil {
		log.Warn().Str("post_id", link.PostID).Msg("post id out of range")
		return stateDiscarded, nil
	}

	result := a.fetcher.GetPost(ctx, link.PostID)
	switch result.Status {
	case core.FetchTransient:
		log.Warn().Err(result.Err).Str("post_id", link.PostID).Msg("fetch failed, message dropped for this pass")
		return stateFailed, nil
	case core.FetchFatal:
		return stateFailed, fmt.Errorf("%w: fetch post %s: %w", ErrPassAborted, link.PostID, result.Err)
	}

	outcome, err := a.archive.Ingest(ctx, cmd, link, result)
	if err != nil {
		log.Error().Err(err).Str("post_id", link.PostID).Msg("ingest failed, message dropped for this pass")
		return stateFailed, nil
	}

	switch outcome {
	case dbservice.OutcomeTombstoned:
		return stateTombstoned, nil
	case dbservice.OutcomeReconciled:
		return stateReconciled, nil
	default:
		log.Debug().Str("post_id", link.PostID).Stringer("outcome", outcome).Msg("already archived")
		return stateDuplicate, nil
	}
}
