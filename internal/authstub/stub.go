// Package authstub is a development stand-in for the external
// access-management service. It implements just enough of the wire contract
// (login hand-off, verify-session, logout) for the front end to run and be
// tested locally; production deployments point AUTH_SERVICE_URL at the real
// service instead.
package authstub

import (
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/errandhub-dev/errandhub/internal/authclient"
	"github.com/errandhub-dev/errandhub/internal/models"
)

// User is a seeded stub account
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// Service implements the access-management wire contract
type Service struct {
	router *gin.Engine
	db     *gorm.DB
	issuer *tokenIssuer
	users  []User
	logger zerolog.Logger
}

// New creates the stub with seeded users. Sessions live in the database so
// logout revocation survives restarts.
func New(db *gorm.DB, secret string, tokenTTL time.Duration, users []User, log zerolog.Logger) (*Service, error) {
	if err := db.AutoMigrate(&models.AuthSession{}); err != nil {
		return nil, err
	}

	s := &Service{
		db:     db,
		issuer: newTokenIssuer(secret, tokenTTL),
		users:  users,
		logger: log,
	}
	s.setupRouter()
	return s, nil
}

// Router exposes the configured handler
func (s *Service) Router() http.Handler {
	return s.router
}

func (s *Service) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())

	s.router.GET("/auth/users/login", s.loginPage)
	s.router.POST("/auth/users/login", s.login)
	s.router.GET("/auth/users/register", s.registerPage)

	s.router.GET("/api/auth/verify-session", s.verifySession)
	s.router.POST("/api/auth/logout", s.logout)
}

func (s *Service) findUser(email string) *User {
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			return &s.users[i]
		}
	}
	return nil
}

func (s *Service) loginPage(c *gin.Context) {
	callback := c.Query("callbackUrl")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!DOCTYPE html>
<html><head><title>Sign in</title></head><body>
<h1>Sign in</h1>
<form method="post" action="/auth/users/login">
  <input type="hidden" name="callbackUrl" value="%s">
  <label>Email <input name="email" type="email" required></label>
  <label>Password <input name="password" type="password" required></label>
  <button type="submit">Sign in</button>
</form>
</body></html>`, html.EscapeString(callback))
}

func (s *Service) registerPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!DOCTYPE html>
<html><head><title>Create account</title></head><body>
<h1>Create account</h1>
<p>Registration is disabled in the development stub. Use a seeded account.</p>
</body></html>`)
}

// login checks credentials, records a session and hands the token back to
// the caller: cross-domain via callbackUrl?token=...&sessionId=..., same
// origin as JSON
func (s *Service) login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	callback := c.PostForm("callbackUrl")

	user := s.findUser(email)
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		s.logger.Warn().Str("email", email).Msg("Stub login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	session := models.AuthSession{
		BaseModel: models.BaseModel{ID: ulid.Make().String()},
		UserID:    user.ID,
	}
	if err := s.db.Create(&session).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.logger.Info().Str("email", user.Email).Str("session_id", session.ID).Msg("Stub login")

	if callback != "" {
		separator := "?"
		if strings.Contains(callback, "?") {
			separator = "&"
		}
		c.Redirect(http.StatusSeeOther, callback+separator+
			"token="+url.QueryEscape(token)+"&sessionId="+url.QueryEscape(session.ID))
		return
	}

	c.JSON(http.StatusOK, authclient.AuthResponse{
		Authenticated: true,
		Token:         token,
		SessionID:     session.ID,
		User:          s.authUser(user),
	})
}

func (s *Service) authUser(user *User) *authclient.AuthUser {
	return &authclient.AuthUser{
		ID:       user.ID,
		Role:     user.Role,
		Email:    user.Email,
		Name:     user.Name,
		Provider: "stub",
	}
}

// verifySession validates the bearer token (or session cookie fallback) and
// reports the session state in the shared AuthResponse shape
func (s *Service) verifySession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if cookie, err := c.Cookie(authclient.TokenKey); err == nil {
			token = cookie
		}
	}
	if token == "" {
		s.unauthenticated(c, "no session credentials")
		return
	}

	claims, err := s.issuer.Validate(token)
	if err != nil {
		s.unauthenticated(c, "invalid or expired token")
		return
	}

	var session models.AuthSession
	if err := s.db.First(&session, "id = ?", claims.SessionID).Error; err != nil {
		s.unauthenticated(c, "unknown session")
		return
	}
	if session.Revoked() {
		s.unauthenticated(c, "session revoked")
		return
	}

	user := s.findUser(claims.Email)
	if user == nil {
		s.unauthenticated(c, "unknown user")
		return
	}

	c.JSON(http.StatusOK, authclient.AuthResponse{
		Authenticated: true,
		User:          s.authUser(user),
		SessionID:     session.ID,
	})
}

func (s *Service) unauthenticated(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, authclient.AuthResponse{
		Authenticated:    false,
		Message:          message,
		RequiresRedirect: true,
		LoginURL:         "/auth/users/login",
	})
}

// logout revokes the session named by the token. Always answers 200: the
// client clears its state regardless.
func (s *Service) logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if cookie, err := c.Cookie(authclient.TokenKey); err == nil {
			token = cookie
		}
	}

	if token != "" {
		if claims, err := s.issuer.Validate(token); err == nil {
			now := time.Now()
			if err := s.db.Model(&models.AuthSession{}).
				Where("id = ?", claims.SessionID).
				Update("revoked_at", &now).Error; err != nil {
				s.logger.Warn().Err(err).Msg("Failed to revoke session")
			} else {
				s.logger.Info().Str("session_id", claims.SessionID).Msg("Session revoked")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
