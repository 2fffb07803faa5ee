package entities

import (
	"sort"
	"strings"
	"time"
)

// CredentialBundle holds the scraped authentication material for the WNI
// service. A bundle is created by the login collaborator, persisted as a
// whole, and replaced wholesale on refresh - never merged field by field.
type CredentialBundle struct {
	Cookies     map[string]string `json:"cookies"`
	BearerToken string            `json:"bearer_token,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Age returns how long ago the bundle was acquired.
func (b *CredentialBundle) Age(now time.Time) time.Duration {
	return now.Sub(b.Timestamp)
}

// IsFresh reports whether the bundle is still usable: the cookie set must be
// non-empty and the bundle no older than maxAge. An empty cookie set is
// never valid regardless of age.
func (b *CredentialBundle) IsFresh(now time.Time, maxAge time.Duration) bool {
	if len(b.Cookies) == 0 {
		return false
	}
	return b.Age(now) <= maxAge
}

// CookieHeader serializes the cookie set into HTTP Cookie header format.
// Keys are sorted so the header is deterministic across runs.
func (b *CredentialBundle) CookieHeader() string {
	if len(b.Cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(b.Cookies))
	for name := range b.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+b.Cookies[name])
	}
	return strings.Join(pairs, "; ")
}
