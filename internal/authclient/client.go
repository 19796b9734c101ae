package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCheckInterval is how often an active session is re-validated
	DefaultCheckInterval = 5 * time.Minute

	verifySessionPath = "/api/auth/verify-session"
	logoutPath        = "/api/auth/logout"
	loginPath         = "/auth/users/login"
	registerPath      = "/auth/users/register"
)

// Options configures a Client. BaseURL is required; everything else has a
// working default.
type Options struct {
	// BaseURL is the base URL of the external access-management service
	BaseURL string

	// HTTPClient overrides the default client (30s timeout, cookie jar)
	HTTPClient *http.Client

	// TokenStore persists the bearer token; defaults to an in-memory store
	TokenStore TokenStore

	// Navigator handles login-page redirects; defaults to a no-op
	Navigator Navigator

	Logger zerolog.Logger
}

// Client is the single point of contact with the remote access-management
// service. It caches the current user snapshot, mirrors the bearer token
// through its TokenStore, and owns the periodic re-validation task. A Client
// is safe for concurrent use; racing checks are last-write-wins.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	nav        Navigator
	log        zerolog.Logger

	mu   sync.Mutex
	user *AuthUser

	checkMu   sync.Mutex
	checkStop chan struct{}
}

// New creates an auth client for the service at opts.BaseURL
func New(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("auth service base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// Cookie jar carries browser-issued session cookies as the
		// fallback credential transport
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		}
	}

	store := opts.TokenStore
	if store == nil {
		store = NewMemoryStore()
	}

	nav := opts.Navigator
	if nav == nil {
		nav = NopNavigator{}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		store:      store,
		nav:        nav,
		log:        opts.Logger,
	}, nil
}

// User returns the cached user snapshot, or nil when unauthenticated
func (c *Client) User() *AuthUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Token returns the stored bearer token, or "" when none is stored
func (c *Client) Token() string {
	token, err := c.store.LoadToken()
	if err != nil {
		return ""
	}
	return token
}

func (c *Client) setUser(u *AuthUser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

// CheckAuthentication verifies the current session against the remote
// service. It never returns an error: transport failures, denials and
// malformed responses all collapse to an unauthenticated result with a
// message. Any failed check leaves the cached user nil.
func (c *Client) CheckAuthentication(ctx context.Context) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+verifySessionPath, nil)
	if err != nil {
		c.setUser(nil)
		return CheckResult{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are swallowed and surfaced only as a message
		c.setUser(nil)
		c.log.Warn().Err(err).Msg("Session verification request failed")
		return CheckResult{Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	var body AuthResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusOK && decodeErr == nil && body.Authenticated && body.User != nil:
		user := *body.User
		c.setUser(&user)
		if body.Token != "" {
			if err := c.store.SaveToken(body.Token); err != nil {
				c.log.Warn().Err(err).Msg("Failed to persist session token")
			}
		}
		return CheckResult{Authenticated: true, User: &user}

	case resp.StatusCode == http.StatusUnauthorized:
		// Token is only evicted on an explicit denial, not on transient
		// failures
		c.setUser(nil)
		if err := c.store.DeleteToken(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear session token")
		}
		message := body.Message
		if message == "" {
			message = "session is not authenticated"
		}
		if decodeErr == nil && body.RequiresRedirect {
			loginURL := body.LoginURL
			if loginURL == "" {
				loginURL = c.LoginURL("")
			}
			return CheckResult{RequiresRedirect: true, LoginURL: loginURL, Message: message}
		}
		return CheckResult{Message: message}

	default:
		c.setUser(nil)
		if decodeErr != nil {
			return CheckResult{Message: fmt.Sprintf("unexpected response (status %d)", resp.StatusCode)}
		}
		message := body.Message
		if message == "" {
			message = fmt.Sprintf("session verification failed (status %d)", resp.StatusCode)
		}
		return CheckResult{Message: message}
	}
}

// LoginURL returns the external login portal URL, carrying callbackURL as a
// query parameter when provided
func (c *Client) LoginURL(callbackURL string) string {
	loginURL := c.baseURL + loginPath
	if callbackURL != "" {
		loginURL += "?callbackUrl=" + url.QueryEscape(callbackURL)
	}
	return loginURL
}

// RegisterURL returns the external registration page URL
func (c *Client) RegisterURL() string {
	return c.baseURL + registerPath
}

// RedirectToLogin navigates to the external login portal
func (c *Client) RedirectToLogin(callbackURL string) {
	c.nav.Navigate(c.LoginURL(callbackURL))
}

// Logout tells the remote service to end the session, then unconditionally
// clears local state, stops the periodic check and navigates to the login
// page. A failed remote call never leaves local state inconsistent with
// "logged out".
func (c *Client) Logout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err == nil {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			c.log.Warn().Err(doErr).Msg("Logout request failed")
		} else {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				c.log.Warn().Int("status", resp.StatusCode).Msg("Logout rejected by auth service")
			}
			resp.Body.Close()
		}
	}

	// Fire-and-forget cleanup, regardless of the remote outcome
	c.setUser(nil)
	if err := c.store.DeleteToken(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear session token")
	}
	c.StopPeriodicCheck()
	c.nav.Navigate(c.LoginURL(""))
}

// StartPeriodicCheck re-validates the session every interval (default 5m).
// A negative result redirects to the login portal. At most one check task
// runs per client; starting again cancels the prior task.
func (c *Client) StartPeriodicCheck(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	c.checkMu.Lock()
	if c.checkStop != nil {
		close(c.checkStop)
	}
	stop := make(chan struct{})
	c.checkStop = stop
	c.checkMu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				result := c.CheckAuthentication(context.Background())
				if !result.Authenticated {
					c.log.Info().Str("reason", result.Message).Msg("Periodic session check failed, redirecting to login")
					c.RedirectToLogin("")
				}
			}
		}
	}()
}

// StopPeriodicCheck cancels the periodic re-validation task, if any
func (c *Client) StopPeriodicCheck() {
	c.checkMu.Lock()
	defer c.checkMu.Unlock()
	if c.checkStop != nil {
		close(c.checkStop)
		c.checkStop = nil
	}
}

// PeriodicCheckActive reports whether a periodic check task is running
func (c *Client) PeriodicCheckActive() bool {
	c.checkMu.Lock()
	defer c.checkMu.Unlock()
	return c.checkStop != nil
}

// HasRole reports whether the cached user has exactly the given role
func (c *Client) HasRole(role string) bool {
	user := c.User()
	return user != nil && user.Role == role
}

// HasAnyRole reports whether the cached user's role matches any of roles
func (c *Client) HasAnyRole(roles ...string) bool {
	user := c.User()
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the cached user is an admin or super admin
func (c *Client) IsAdmin() bool {
	return c.HasAnyRole("admin", "super_admin")
}
