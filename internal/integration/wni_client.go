// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/whlops/port-weather-bot/internal/auth"
	"github.com/whlops/port-weather-bot/internal/entities"
)

// FetchError reports a per-port fetch failure. Fetch errors are recorded and
// the run continues; they are never fatal.
type FetchError struct {
	PortCode   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", e.PortCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: HTTP %d", e.PortCode, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// maxTransientRetries bounds the backoff loop for 429/5xx responses.
const maxTransientRetries = 3

// Client fetches per-port forecast text from the WNI service using the
// session manager's credential headers.
type Client struct {
	httpClient *http.Client
	session    *auth.SessionManager
	baseURL    string
	clock      clockwork.Clock
}

// NewClient creates a forecast client. A nil clock selects real time.
func NewClient(baseURL string, timeout time.Duration, session *auth.SessionManager, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		baseURL:    strings.TrimRight(baseURL, "/"),
		clock:      clock,
	}
}

// FetchPortData downloads the 48h forecast text for a port and returns the
// raw content plus its parsed issue-time token.
//
// A 401/403 triggers, at most once per call, a forced credential
// re-acquisition and a single retry of the same fetch; a second 401/403 is a
// hard failure for this port only. Transient 429/5xx responses are retried
// with bounded exponential backoff inside each attempt.
func (c *Client) FetchPortData(ctx context.Context, port entities.Port) (content string, issuedTime string, err error) {
	url := fmt.Sprintf("%s/api/business/sea/portstatus/content/48h/%s.txt", c.baseURL, port.StationID)
	log.Printf("Downloading forecast for %s (%s)...", port.Code, port.Name)

	for attempt := 0; attempt < 2; attempt++ {
		resp, reqErr := c.get(ctx, url)
		if reqErr != nil {
			return "", "", &FetchError{PortCode: port.Code, Err: reqErr}
		}

		if resp.StatusCode == http.StatusOK {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return "", "", &FetchError{PortCode: port.Code, Err: readErr}
			}
			content = string(body)
			return content, ParseIssuedTime(content, c.clock.Now()), nil
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			if attempt == 0 {
				log.Printf("Authorization failure (HTTP %d) for %s, refreshing session once", resp.StatusCode, port.Code)
				if refreshErr := c.session.ForceRefresh(ctx); refreshErr != nil {
					// A failed mid-run re-login fails this fetch, not the run.
					return "", "", &FetchError{PortCode: port.Code, StatusCode: resp.StatusCode, Err: refreshErr}
				}
				continue
			}
			return "", "", &FetchError{PortCode: port.Code, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("still unauthorized after credential refresh")}
		}

		resp.Body.Close()
		return "", "", &FetchError{PortCode: port.Code, StatusCode: resp.StatusCode}
	}

	return "", "", &FetchError{PortCode: port.Code, Err: fmt.Errorf("retry budget exhausted")}
}

// TestConnection probes the known endpoints and logs their status. Useful as
// a manual smoke check of credentials and connectivity.
func (c *Client) TestConnection(ctx context.Context) {
	urls := []string{
		c.baseURL + "/api/account/user",
		c.baseURL + "/",
	}
	for _, url := range urls {
		resp, err := c.get(ctx, url)
		if err != nil {
			log.Printf("Connection test %s: %v", url, err)
			continue
		}
		resp.Body.Close()
		log.Printf("Connection test %s: HTTP %d", url, resp.StatusCode)
	}
}

// get performs one GET with the session's headers, retrying transient
// 429/5xx responses and network errors with capped exponential backoff.
// Non-transient statuses are returned to the caller unconsumed.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range c.session.Headers() {
			req.Header.Set(k, v)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			r.Body.Close()
			return fmt.Errorf("transient HTTP %d", r.StatusCode)
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxTransientRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// ParseIssuedTime extracts the issue-time token from the "ISSUED AT:" header
// line of the forecast text. The " UTC" suffix is stripped and spaces become
// underscores so the token is storage-key safe. When the header is missing
// the fallback wall-clock time is formatted instead.
func ParseIssuedTime(content string, fallback time.Time) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ISSUED AT:") {
			token := strings.TrimSpace(strings.TrimPrefix(trimmed, "ISSUED AT:"))
			token = strings.ReplaceAll(token, " UTC", "")
			token = strings.ReplaceAll(token, " ", "_")
			return token
		}
	}
	return fallback.Format("200601021504")
}
