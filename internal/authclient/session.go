package authclient

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// SessionState is the observable authentication state: Loading is true until
// the first check resolves, User is nil until authenticated, Err holds the
// last failure message.
type SessionState struct {
	Loading bool
	User    *AuthUser
	Err     string
}

// IsAuthenticated reports whether a user is present
func (s SessionState) IsAuthenticated() bool {
	return s.User != nil
}

// Session drives the authentication state machine on top of a Client: one
// unconditional check on initialization, a periodic re-check while a user is
// present, and unconditional local cleanup on logout.
type Session struct {
	client   *Client
	interval time.Duration

	mu       sync.Mutex
	state    SessionState
	onChange func(SessionState)
}

// NewSession wraps client in a session state machine. interval controls the
// periodic re-check; zero means DefaultCheckInterval.
func NewSession(client *Client, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Session{
		client:   client,
		interval: interval,
		state:    SessionState{Loading: true},
	}
}

// Client returns the underlying auth client
func (s *Session) Client() *Client {
	return s.client
}

// OnChange registers a callback invoked after every state transition
func (s *Session) OnChange(fn func(SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// State returns a snapshot of the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

// Initialize adopts a token handed over via the URL query (stripping the
// token and sessionId parameters from the returned URL), then performs one
// authentication check unconditionally. The caller is responsible for
// rewriting the visible URL to the cleaned one.
func (s *Session) Initialize(ctx context.Context, rawURL string) (cleanedURL string) {
	cleanedURL = s.adoptURLToken(rawURL)
	s.Refresh(ctx)
	return cleanedURL
}

// adoptURLToken extracts ?token=... from rawURL into the token store and
// returns the URL with the hand-off parameters removed
func (s *Session) adoptURLToken(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	token := query.Get("token")
	if token == "" && !query.Has("sessionId") {
		return rawURL
	}

	if token != "" {
		if err := s.client.store.SaveToken(token); err != nil {
			s.client.log.Warn().Err(err).Msg("Failed to adopt token from URL")
		}
	}
	query.Del("token")
	query.Del("sessionId")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// Refresh performs one authentication check and updates the state. The
// periodic re-check runs exactly while a user is present.
func (s *Session) Refresh(ctx context.Context) CheckResult {
	result := s.client.CheckAuthentication(ctx)

	next := SessionState{Loading: false}
	if result.Authenticated {
		next.User = result.User
	} else {
		next.Err = result.Message
	}
	s.setState(next)

	if next.User != nil {
		s.client.StartPeriodicCheck(s.interval)
	} else {
		s.client.StopPeriodicCheck()
	}
	return result
}

// Logout delegates to the client and clears local state regardless of the
// remote outcome
func (s *Session) Logout(ctx context.Context) {
	s.client.Logout(ctx)
	s.setState(SessionState{Loading: false})
}

// Close tears down the periodic re-check. The session must not be used
// afterwards.
func (s *Session) Close() {
	s.client.StopPeriodicCheck()
}
