package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NotifyError reports a failed alert dispatch. It is recorded in the run
// report; the run still completes and the report is still persisted.
type NotifyError struct {
	StatusCode int
	Err        error
}

func (e *NotifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification failed: %v", e.Err)
	}
	return fmt.Sprintf("notification failed: HTTP %d", e.StatusCode)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Notifier posts composed payloads to the configured Teams webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a webhook notifier.
func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recipient names the notification channel for the run report.
func (n *Notifier) Recipient() string {
	return "Microsoft Teams"
}

// Send posts the payload once. HTTP 200 means accepted; any other status or
// transport error is a *NotifyError. Transient 429/5xx responses are retried
// by the transport-level backoff only - there is no re-send loop above it.
func (n *Notifier) Send(ctx context.Context, payload map[string]any) error {
	if n.webhookURL == "" {
		return &NotifyError{Err: fmt.Errorf("webhook URL not configured")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &NotifyError{Err: fmt.Errorf("failed to encode payload: %v", err)}
	}

	var status int
	operation := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := n.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("transient HTTP %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			log.Printf("Webhook rejected payload (HTTP %d): %s", resp.StatusCode, respBody)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxNotifyRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return &NotifyError{Err: err}
	}
	if status != http.StatusOK {
		return &NotifyError{StatusCode: status}
	}

	log.Println("Notification accepted by webhook")
	return nil
}

const maxNotifyRetries = 3
