package posts

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/agnosto/dm-archiver/core"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/schollz/progressbar/v3"
)

const messagesEndpoint = "direct_messages/events/list.json"

type messageEvent struct {
	Type             string `json:"type"`
	ID               string `json:"id"`
	CreatedTimestamp string `json:"created_timestamp"`
	MessageCreate    struct {
		SenderID    string `json:"sender_id"`
		MessageData struct {
			Text     string `json:"text"`
			Entities struct {
				URLs []core.URLEntity `json:"urls"`
			} `json:"entities"`
		} `json:"message_data"`
	} `json:"message_create"`
}

type messageEventsResponse struct {
	Events     []messageEvent `json:"events"`
	NextCursor string         `json:"next_cursor"`
}

// ListOptions tunes ListDirectMessages.
type ListOptions struct {
	// ShowProgress draws a spinner on stderr while pages are fetched.
	ShowProgress bool
}

// ListDirectMessages returns the inbox in platform order, reading at most
// maxPages pages of pageSize events.
func (c *Client) ListDirectMessages(ctx context.Context, pageSize, maxPages int, opts ListOptions) ([]core.DirectMessage, error) {
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Fetching Messages"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(15),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
		)
		defer bar.Finish()
	}

	var messages []core.DirectMessage
	cursor := ""
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("count", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp messageEventsResponse
		if err := c.get(ctx, messagesEndpoint, query, &resp); err != nil {
			return nil, err
		}

		batch := 0
		for _, ev := range resp.Events {
			if ev.Type != "message_create" {
				continue
			}
			messages = append(messages, toDirectMessage(ev))
			batch++
		}
		if bar != nil {
			bar.Add(batch)
		}
		logger.Logger.Debug().Int("page", page+1).Int("messages", batch).Msg("fetched message page")

		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return messages, nil
}

func toDirectMessage(ev messageEvent) core.DirectMessage {
	msg := core.DirectMessage{
		ID:       ev.ID,
		SenderID: ev.MessageCreate.SenderID,
		Text:     ev.MessageCreate.MessageData.Text,
		URLs:     ev.MessageCreate.MessageData.Entities.URLs,
	}
	if ms, err := strconv.ParseInt(ev.CreatedTimestamp, 10, 64); err == nil {
		msg.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return msg
}
