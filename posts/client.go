package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agnosto/dm-archiver/core"
	"golang.org/x/time/rate"
)

// Platform error codes that mean the post is gone or not visible to us.
var notFoundCodes = map[int]bool{
	8:   true, // no data available for specified id
	63:  true, // user has been suspended
	144: true, // no status found with that id
	179: true, // not authorized to see this status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client for the REST API at baseURL. httpClient must
// already sign its requests. requestsPerSecond <= 0 disables the limiter.
func NewClient(baseURL string, httpClient *http.Client, requestsPerSecond float64) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// APIError is a failed API call, classified into a fetch status.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       int
	Message    string
	Status     core.FetchStatus
	Err        error
}

func (e *APIError) Error() string {
	var parts []string
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status %d", e.StatusCode))
	}
	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("code %d", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return e.Endpoint + ": " + strings.Join(parts, " ")
}

func (e *APIError) Unwrap() error { return e.Err }

// Result converts the error into the matching fetch result.
func (e *APIError) Result() core.FetchResult {
	switch e.Status {
	case core.FetchNotFound:
		return core.NotFound()
	case core.FetchFatal:
		return core.FatalFault(e)
	default:
		return core.TransientFault(e)
	}
}

// StatusOf returns the fetch status an error stands for. Errors that are not
// API errors count as transient.
func StatusOf(err error) core.FetchStatus {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return core.FetchTransient
}

type errorResponse struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// classify maps a failed call to a fetch status. Only a platform error code
// confirms that a post is gone; a bare 404 or code 34 is also what a wrong
// base URL or a retired endpoint returns.
func classify(statusCode, code int) core.FetchStatus {
	switch {
	case notFoundCodes[code]:
		return core.FetchNotFound
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusTooManyRequests:
		return core.FetchFatal
	default:
		return core.FetchTransient
	}
}

// get performs a rate limited GET of endpoint and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Endpoint: endpoint, Status: core.FetchTransient, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Endpoint: endpoint, Status: core.FetchFatal, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Endpoint: endpoint, Status: core.FetchTransient, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: core.FetchTransient, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && len(er.Errors) > 0 {
			apiErr.Code = er.Errors[0].Code
			apiErr.Message = er.Errors[0].Message
		}
		apiErr.Status = classify(resp.StatusCode, apiErr.Code)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: core.FetchTransient, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// platformTime parses the timestamp layout used by the v1.1 API.
func platformTime(s string) (time.Time, error) {
	return time.Parse(time.RubyDate, s)
}
