package posts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/logger"
)

const showEndpoint = "statuses/show.json"

type statusResponse struct {
	ID        int64  `json:"id"`
	IDStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	FullText  string `json:"full_text"`
	Text      string `json:"text"`
	User      struct {
		ID         int64  `json:"id"`
		IDStr      string `json:"id_str"`
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

// GetPost looks up a post by id. A deleted or hidden post yields core.NotFound;
// any other failure is a transient or fatal fault.
func (c *Client) GetPost(ctx context.Context, postID string) core.FetchResult {
	query := url.Values{}
	query.Set("id", postID)
	query.Set("tweet_mode", "extended")

	var resp statusResponse
	if err := c.get(ctx, showEndpoint, query, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Result()
		}
		return core.TransientFault(err)
	}

	post, err := resp.metadata()
	if err != nil {
		return core.TransientFault(&APIError{Endpoint: showEndpoint, Status: core.FetchTransient, Err: err})
	}

	logger.Logger.Debug().Int64("post_id", post.ID).Str("author", post.AuthorHandle).Msg("fetched post")
	return core.Found(post)
}

func (s statusResponse) metadata() (core.PostMetadata, error) {
	id := s.ID
	if s.IDStr != "" {
		parsed, err := strconv.ParseInt(s.IDStr, 10, 64)
		if err != nil {
			return core.PostMetadata{}, fmt.Errorf("invalid post id %q: %w", s.IDStr, err)
		}
		id = parsed
	}

	authorID := s.User.ID
	if s.User.IDStr != "" {
		parsed, err := strconv.ParseInt(s.User.IDStr, 10, 64)
		if err != nil {
			return core.PostMetadata{}, fmt.Errorf("invalid author id %q: %w", s.User.IDStr, err)
		}
		authorID = parsed
	}

	if id == 0 || authorID == 0 {
		return core.PostMetadata{}, errors.New("response is missing post or author id")
	}

	createdAt, err := platformTime(s.CreatedAt)
	if err != nil {
		return core.PostMetadata{}, fmt.Errorf("invalid created_at %q: %w", s.CreatedAt, err)
	}

	text := s.FullText
	if text == "" {
		text = s.Text
	}

	return core.PostMetadata{
		ID:           id,
		AuthorID:     authorID,
		AuthorName:   s.User.Name,
		AuthorHandle: s.User.ScreenName,
		CreatedAt:    createdAt.UTC(),
		Text:         text,
	}, nil
}
