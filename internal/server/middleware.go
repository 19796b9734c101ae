package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

const (
	requestIDKey = "request_id"
	sessionKey   = "auth_session"
	themeCookie  = "theme"
	cookieMaxAge = 30 * 24 * 60 * 60 // 30 days
)

// requestIDMiddleware tags every request with a ULID for log correlation
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// visitorSession is what the session middleware leaves in the request
// context: the resolved state plus the per-request client for guards and
// the logout handler
type visitorSession struct {
	state  authclient.SessionState
	client *authclient.Client
}

// sessionMiddleware resolves the visitor's authentication state against the
// external access-management service. The bearer token travels in the
// auth_token cookie; a ?token=... hand-off from the login portal is adopted
// into the cookie and stripped from the visible URL via redirect.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := authclient.NewMemoryStore()
		hadCookie := false
		if cookie, err := c.Cookie(authclient.TokenKey); err == nil && cookie != "" {
			hadCookie = true
			_ = store.SaveToken(cookie)
		}

		client, err := authclient.New(authclient.Options{
			BaseURL:    s.config.Auth.ServiceURL,
			HTTPClient: s.authHTTP,
			TokenStore: store,
			Logger:     s.logger,
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create auth client")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		session := authclient.NewSession(client, s.config.Auth.CheckInterval)

		rawURL := c.Request.URL.String()
		cleanedURL := session.Initialize(c.Request.Context(), rawURL)
		// Per-request sessions own no background task
		session.Close()

		if cleanedURL != rawURL {
			// Token adopted from the URL: persist it, then strip the
			// hand-off parameters from the visible URL
			if token := client.Token(); token != "" {
				s.setTokenCookie(c, token)
			}
			c.Redirect(http.StatusSeeOther, cleanedURL)
			c.Abort()
			return
		}

		// Mirror token eviction (401) back into the cookie
		if hadCookie && client.Token() == "" {
			s.clearTokenCookie(c)
		} else if token := client.Token(); token != "" {
			s.setTokenCookie(c, token)
		}

		c.Set(sessionKey, &visitorSession{state: session.State(), client: client})
		c.Next()
	}
}

func (s *Server) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(authclient.TokenKey, token, cookieMaxAge, "/", "", false, true)
}

func (s *Server) clearTokenCookie(c *gin.Context) {
	c.SetCookie(authclient.TokenKey, "", -1, "/", "", false, true)
}

// GetSession returns the visitor's session state, reporting whether the
// session middleware ran
func GetSession(c *gin.Context) (authclient.SessionState, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return authclient.SessionState{}, false
	}
	vs, ok := value.(*visitorSession)
	if !ok {
		return authclient.SessionState{}, false
	}
	return vs.state, true
}

// MustSession returns the visitor's session state and panics when the
// session middleware did not run. Calling a guarded handler without the
// middleware is a programming error, not a runtime condition.
func MustSession(c *gin.Context) authclient.SessionState {
	state, ok := GetSession(c)
	if !ok {
		panic("server: MustSession called outside the session middleware")
	}
	return state
}

func sessionClient(c *gin.Context) *authclient.Client {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil
	}
	vs, ok := value.(*visitorSession)
	if !ok {
		return nil
	}
	return vs.client
}

// RequireAuth gates a route on authentication and, when roles are given, on
// role membership. Unauthenticated visitors are sent to the external login
// portal with the current path as callback; authenticated visitors missing
// a required role get the access-denied page.
func (s *Server) RequireAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := MustSession(c)

		if !state.IsAuthenticated() {
			client := sessionClient(c)
			callback := c.Request.URL.RequestURI()
			c.Redirect(http.StatusSeeOther, client.LoginURL(callback))
			c.Abort()
			return
		}

		if len(roles) > 0 && !hasAnyRole(state.User, roles) {
			c.HTML(http.StatusForbidden, "denied.tmpl", s.pageData(c, gin.H{
				"Title": "Access denied",
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}

func hasAnyRole(user *authclient.AuthUser, roles []string) bool {
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

// pageData assembles the template payload common to every page: session
// state, theme, navigation and auth portal URLs
func (s *Server) pageData(c *gin.Context, extra gin.H) gin.H {
	state := MustSession(c)
	client := sessionClient(c)

	theme, err := c.Cookie(themeCookie)
	if err != nil || (theme != "dark" && theme != "light") {
		theme = "light"
	}

	callback := c.Request.URL.RequestURI()
	data := gin.H{
		"Authenticated": state.IsAuthenticated(),
		"User":          state.User,
		"AuthError":     state.Err,
		"Theme":         theme,
		"Categories":    s.catalog.Categories(),
		"LoginURL":      client.LoginURL(callback),
		"RegisterURL":   client.RegisterURL(),
		"Version":       s.version,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func redirectBack(c *gin.Context) {
	target := c.Request.Referer()
	if target == "" {
		target = "/"
	} else if parsed, err := url.Parse(target); err == nil {
		// Only ever bounce back to our own paths
		target = parsed.RequestURI()
	}
	c.Redirect(http.StatusSeeOther, target)
}
