// Package aedyn implements the WNI identity-provider login flow
package aedyn

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonboulle/clockwork"
	"github.com/whlops/port-weather-bot/internal/auth"
	"github.com/whlops/port-weather-bot/internal/entities"
)

// LoginService acquires a fresh credential bundle by driving the Aedyn
// OpenID Connect form login over plain HTTP: fetch the login page, extract
// the form target and hidden fields, post the credentials, and harvest the
// cookies and token from the redirect chain. It implements
// auth.Authenticator.
type LoginService struct {
	username string
	password string
	loginURL string
	baseURL  string
	timeout  time.Duration
	clock    clockwork.Clock
}

// NewLoginService creates a login service for the given account. A nil
// clock selects real time.
func NewLoginService(username, password, loginURL, baseURL string, timeout time.Duration, clock clockwork.Clock) *LoginService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LoginService{
		username: username,
		password: password,
		loginURL: loginURL,
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  timeout,
		clock:    clock,
	}
}

// Acquire performs the full login flow and returns a fresh credential
// bundle. Every failure is wrapped as *auth.AuthError; the caller treats it
// as fatal for the run.
func (s *LoginService) Acquire(ctx context.Context) (*entities.CredentialBundle, error) {
	log.Println("Logging in to Aedyn...")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &auth.AuthError{Op: "acquire", Err: err}
	}
	client := &http.Client{Jar: jar, Timeout: s.timeout}

	action, form, err := s.fetchLoginForm(ctx, client)
	if err != nil {
		return nil, &auth.AuthError{Op: "acquire", Err: err}
	}

	form.Set("username", s.username)
	form.Set("password", s.password)

	finalURL, err := s.submitLogin(ctx, client, action, form)
	if err != nil {
		return nil, &auth.AuthError{Op: "acquire", Err: err}
	}

	bundle := s.harvestCredentials(jar, finalURL)
	if len(bundle.Cookies) == 0 {
		return nil, &auth.AuthError{Op: "acquire", Err: fmt.Errorf("no session cookies after login")}
	}

	log.Printf("Login succeeded (%d cookies, bearer token: %v)",
		len(bundle.Cookies), bundle.BearerToken != "")
	return bundle, nil
}

// fetchLoginForm loads the IdP login page and extracts the form action plus
// all hidden inputs (CSRF token, session code, and the like).
func (s *LoginService) fetchLoginForm(ctx context.Context, client *http.Client) (string, url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.loginURL, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch login page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("login page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse login page: %v", err)
	}

	loginForm := doc.Find("form").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.Find("input[name=username]").Length() > 0 ||
			sel.Find("input[type=password]").Length() > 0
	}).First()
	if loginForm.Length() == 0 {
		// Some realms render a single bare form without named inputs.
		loginForm = doc.Find("form").First()
	}
	if loginForm.Length() == 0 {
		return "", nil, fmt.Errorf("no login form found on page")
	}

	action, _ := loginForm.Attr("action")
	if action == "" {
		return "", nil, fmt.Errorf("login form has no action")
	}
	action = s.resolveURL(resp.Request.URL, action)

	form := url.Values{}
	loginForm.Find("input[type=hidden]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		value, _ := sel.Attr("value")
		if name != "" {
			form.Set(name, value)
		}
	})

	return action, form, nil
}

// submitLogin posts the credentials and follows the redirect chain back to
// the application. The final URL must land on the application host and leave
// the auth handshake path behind, otherwise the credentials were rejected.
func (s *LoginService) submitLogin(ctx context.Context, client *http.Client, action string, form url.Values) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login submission failed: %v", err)
	}
	defer resp.Body.Close()

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}

	final := resp.Request.URL
	if final.Host != base.Host || strings.Contains(final.String(), "redirect_uri=") {
		return nil, fmt.Errorf("login rejected, landed on %s", final.Host)
	}
	return final, nil
}

// harvestCredentials collects every cookie the jar accumulated across the
// IdP and application hosts, plus the bearer token from the OIDC fragment
// (response_type "id_token token" delivers it there) or a jwt cookie.
func (s *LoginService) harvestCredentials(jar http.CookieJar, finalURL *url.URL) *entities.CredentialBundle {
	cookies := make(map[string]string)

	if base, err := url.Parse(s.baseURL); err == nil {
		for _, c := range jar.Cookies(base) {
			cookies[c.Name] = c.Value
		}
	}
	if idp, err := url.Parse(s.loginURL); err == nil {
		for _, c := range jar.Cookies(idp) {
			cookies[c.Name] = c.Value
		}
	}

	token := tokenFromFragment(finalURL.Fragment)
	if token == "" {
		token = cookies["jwt"]
	}

	return &entities.CredentialBundle{
		Cookies:     cookies,
		BearerToken: token,
		Timestamp:   s.clock.Now(),
	}
}

// tokenFromFragment extracts access_token or id_token from a URL fragment.
func tokenFromFragment(fragment string) string {
	if fragment == "" {
		return ""
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return ""
	}
	if token := values.Get("access_token"); token != "" {
		return token
	}
	return values.Get("id_token")
}

func (s *LoginService) resolveURL(page *url.URL, action string) string {
	ref, err := url.Parse(action)
	if err != nil {
		return action
	}
	return page.ResolveReference(ref).String()
}
