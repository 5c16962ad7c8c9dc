package core

import "time"

// URLEntity is a link the platform detected in a message text.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
}

// DirectMessage is one inbound message as returned by the inbox poller.
type DirectMessage struct {
	ID        string
	CreatedAt time.Time
	SenderID  string
	Text      string
	URLs      []URLEntity
}

// ExpandedURL returns the expanded form of link. The entity whose short url
// equals link wins, then the first entity with an expanded url; without
// usable entities link itself is returned.
func (m DirectMessage) ExpandedURL(link string) string {
	for _, u := range m.URLs {
		if u.URL == link && u.ExpandedURL != "" {
			return u.ExpandedURL
		}
	}
	for _, u := range m.URLs {
		if u.ExpandedURL != "" {
			return u.ExpandedURL
		}
	}
	return link
}
