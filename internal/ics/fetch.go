package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "github.com/sreeprasad/luma-notifier/internal/log"
)

// FetchError is returned for network failures, timeouts and non-2xx
// responses from the feed endpoint. Its message never includes the feed
// URL's secret path or query.
type FetchError struct {
	Status int // HTTP status code, 0 for transport errors
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed fetch: unexpected status %d", e.Status)
	}
	return "feed fetch: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches the subscribed calendar feed. The URL embeds a bearer
// secret, so it is held privately and only its host is ever logged.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a feed client with the given request timeout.
func NewClient(feedURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url: feedURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch performs a single blocking GET of the feed and returns the raw
// ICS body on any 2xx response.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c.url == "" {
		return nil, &FetchError{Err: fmt.Errorf("feed URL is empty")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		// url.Error echoes the full URL; keep only the redacted form.
		return nil, &FetchError{Err: fmt.Errorf("building request for %s", RedactURL(c.url))}
	}

	appLog.Info("feed fetch start", "url", RedactURL(c.url))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("request to %s failed: %s", RedactURL(c.url), redactErr(err, c.url))}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("reading body from %s: %s", RedactURL(c.url), redactErr(err, c.url))}
	}

	appLog.Info("feed fetch success", "url", RedactURL(c.url), "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

// RedactURL hides everything past the host of a feed URL, so log lines and
// error messages cannot leak the secret token embedded in the path or query.
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i < 0 {
		return "feed://...(redacted)"
	}
	rest := u[i+3:]
	j := strings.IndexAny(rest, "/?")
	if j < 0 {
		return u
	}
	return u[:i+3+j] + redactedSuffix
}

// redactErr strips the raw URL out of transport error text (url.Error and
// friends embed it verbatim).
func redactErr(err error, rawURL string) string {
	return strings.ReplaceAll(err.Error(), rawURL, RedactURL(rawURL))
}
