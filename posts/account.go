package posts

import (
	"context"
	"net/url"
)

const verifyEndpoint = "account/verify_credentials.json"

type Account struct {
	IDStr      string `json:"id_str"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// VerifyCredentials returns the account the client is authenticated as.
func (c *Client) VerifyCredentials(ctx context.Context) (Account, error) {
	query := url.Values{}
	query.Set("skip_status", "true")

	var account Account
	if err := c.get(ctx, verifyEndpoint, query, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}
