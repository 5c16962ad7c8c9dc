package core

import (
	"fmt"
	"time"
)

// PostMetadata is what the platform reports about a post.
type PostMetadata struct {
	ID           int64
	AuthorID     int64
	AuthorName   string
	AuthorHandle string
	CreatedAt    time.Time
	Text         string
}

type FetchStatus int

const (
	FetchFound FetchStatus = iota
	FetchNotFound
	FetchTransient
	FetchFatal
)

func (s FetchStatus) String() string {
	switch s {
	case FetchFound:
		return "found"
	case FetchNotFound:
		return "not_found"
	case FetchTransient:
		return "transient"
	case FetchFatal:
		return "fatal"
	default:
		return fmt.Sprintf("FetchStatus(%d)", int(s))
	}
}

// FetchResult is the outcome of a post lookup. Post is set only for
// FetchFound, Err only for the two fault statuses. NotFound is a confirmed
// absence, never a fault.
type FetchResult struct {
	Status FetchStatus
	Post   *PostMetadata
	Err    error
}

func Found(post PostMetadata) FetchResult {
	return FetchResult{Status: FetchFound, Post: &post}
}

func NotFound() FetchResult {
	return FetchResult{Status: FetchNotFound}
}

func TransientFault(err error) FetchResult {
	return FetchResult{Status: FetchTransient, Err: err}
}

func FatalFault(err error) FetchResult {
	return FetchResult{Status: FetchFatal, Err: err}
}

// Ingestable reports whether the result may be handed to the archive.
func (r FetchResult) Ingestable() bool {
	return r.Status == FetchFound || r.Status == FetchNotFound
}
