package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/whlops/port-weather-bot/internal/entities"
)

// AuthError reports a failed credential acquisition. It is the only error in
// the system that aborts a monitoring run: there is no fallback once the
// login collaborator cannot produce a bundle.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator is the capability interface over the interactive login flow.
// The production implementation drives the WNI identity provider; tests swap
// in a stub returning canned bundles.
type Authenticator interface {
	Acquire(ctx context.Context) (*entities.CredentialBundle, error)
}

// SessionState tracks where the manager is in its lifecycle.
type SessionState int

const (
	StateNoCredential SessionState = iota
	StateVerifying
	StateReady
)

// SessionManager keeps a scraped credential usable across unattended runs.
// Lifecycle: NoCredential -> Verifying -> Ready, with a back-edge to
// NoCredential when verification fails or a data fetch observes 401/403.
type SessionManager struct {
	store         *CredentialStore
	authenticator Authenticator
	httpClient    *http.Client
	probeURL      string
	userAgent     string
	maxAge        time.Duration
	clock         clockwork.Clock

	state   SessionState
	bundle  *entities.CredentialBundle
	headers map[string]string
}

// NewSessionManager creates a session manager. probeURL is the authenticated
// endpoint used as a liveness check for loaded credentials. A nil clock
// selects real time; tests inject a fake.
func NewSessionManager(store *CredentialStore, authenticator Authenticator, probeURL string, probeTimeout, maxAge time.Duration, clock clockwork.Clock) *SessionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionManager{
		store:         store,
		authenticator: authenticator,
		httpClient:    &http.Client{Timeout: probeTimeout},
		probeURL:      probeURL,
		userAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		maxAge:        maxAge,
		clock:         clock,
		state:         StateNoCredential,
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	return m.state
}

// Ready reports whether a verified credential is loaded.
func (m *SessionManager) Ready() bool {
	return m.state == StateReady
}

// EnsureSession makes the session Ready or returns an *AuthError. When force
// is set the cached bundle is ignored and a full re-acquisition runs.
// Otherwise the cached bundle is loaded, checked for freshness, and probed
// live; any failure on that path falls back to re-acquisition.
func (m *SessionManager) EnsureSession(ctx context.Context, force bool) error {
	if force {
		log.Println("Forcing credential re-acquisition")
		return m.reacquire(ctx)
	}

	log.Println("Checking cached credential state...")
	bundle := m.store.Load()
	if bundle == nil {
		log.Println("No cached credential found")
		m.state = StateNoCredential
		return m.reacquire(ctx)
	}

	now := m.clock.Now()
	log.Printf("Cached credential from %s (%.1f hours old)",
		bundle.Timestamp.Format("2006-01-02 15:04:05"), bundle.Age(now).Hours())

	if !bundle.IsFresh(now, m.maxAge) {
		log.Printf("Cached credential is stale (older than %s)", m.maxAge)
		m.state = StateNoCredential
		return m.reacquire(ctx)
	}

	m.state = StateVerifying
	m.bundle = bundle
	m.headers = m.buildHeaders(bundle)

	if err := m.probe(ctx); err != nil {
		log.Printf("Credential liveness probe failed: %v", err)
		m.state = StateNoCredential
		return m.reacquire(ctx)
	}

	log.Println("Cached credential verified, session ready")
	m.state = StateReady
	return nil
}

// ForceRefresh re-acquires the credential regardless of cache state. Used by
// the fetch path when a data call observes 401/403.
func (m *SessionManager) ForceRefresh(ctx context.Context) error {
	log.Println("Session invalidated by authorization failure, re-acquiring...")
	m.state = StateNoCredential
	return m.reacquire(ctx)
}

// Invalidate drops the current session without re-acquiring.
func (m *SessionManager) Invalidate() {
	m.state = StateNoCredential
	m.bundle = nil
	m.headers = nil
}

// Headers returns a copy of the transport-ready header set for the current
// credential. Empty when the session is not Ready.
func (m *SessionManager) Headers() map[string]string {
	out := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		out[k] = v
	}
	return out
}

func (m *SessionManager) reacquire(ctx context.Context) error {
	bundle, err := m.authenticator.Acquire(ctx)
	if err != nil {
		m.state = StateNoCredential
		if authErr, ok := err.(*AuthError); ok {
			return authErr
		}
		return &AuthError{Op: "acquire", Err: err}
	}
	if len(bundle.Cookies) == 0 {
		m.state = StateNoCredential
		return &AuthError{Op: "acquire", Err: fmt.Errorf("login produced an empty cookie set")}
	}

	// A save failure is logged but not fatal: the in-memory bundle still
	// carries this run, only the next run pays for a fresh login.
	if err := m.store.Save(bundle); err != nil {
		log.Printf("Warning: failed to persist credential bundle: %v", err)
	}

	m.bundle = bundle
	m.headers = m.buildHeaders(bundle)
	m.state = StateReady
	log.Printf("Credential re-acquired (%d cookies, bearer token: %v)",
		len(bundle.Cookies), bundle.BearerToken != "")
	return nil
}

// probe issues a lightweight GET against the authenticated account endpoint.
// Any non-2xx status, network error, or timeout counts as a failed probe.
func (m *SessionManager) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return err
	}
	for k, v := range m.headers {
		req.Header.Set(k, v)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (m *SessionManager) buildHeaders(bundle *entities.CredentialBundle) map[string]string {
	headers := map[string]string{
		"User-Agent": m.userAgent,
		"Accept":     "application/json, text/plain, */*",
	}
	if cookie := bundle.CookieHeader(); cookie != "" {
		headers["Cookie"] = cookie
	}
	if bundle.BearerToken != "" {
		headers["json_web_token"] = bundle.BearerToken
	}
	return headers
}
