package headers

import (
	"context"
	"net/http"
	"time"

	"github.com/agnosto/dm-archiver/config"
	"github.com/dghubble/oauth1"
)

const (
	defaultUserAgent = "dm-archiver/1.0"
	requestTimeout   = 30 * time.Second
)

// NewSignedClient returns an HTTP client that signs every request with the
// OAuth 1.0a user credentials from cfg.
func NewSignedClient(ctx context.Context, cfg config.TwitterConfig) *http.Client {
	oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	client := oauthConfig.Client(ctx, token)
	client.Timeout = requestTimeout
	client.Transport = &userAgentTransport{next: client.Transport}
	return client
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	return t.next.RoundTrip(req)
}
