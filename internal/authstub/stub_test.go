package authstub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/errandhub-dev/errandhub/internal/authclient"
)

func newStub(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	adminHash, err := HashPassword("admin123")
	require.NoError(t, err)
	userHash, err := HashPassword("user123")
	require.NoError(t, err)

	service, err := New(db, "test-secret", time.Hour, []User{
		{ID: "u-admin", Email: "admin@example.com", Name: "Root", Role: "admin", PasswordHash: adminHash},
		{ID: "u-1", Email: "ada@example.com", Name: "Ada", Role: "customer", PasswordHash: userHash},
	}, zerolog.Nop())
	require.NoError(t, err)
	return service
}

func login(t *testing.T, service *Service, email, password, callback string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	if callback != "" {
		form.Set("callbackUrl", callback)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	service.Router().ServeHTTP(w, req)
	return w
}

func TestLogin_JSONResponse(t *testing.T) {
	service := newStub(t)

	w := login(t, service, "ada@example.com", "user123", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.User)
	assert.Equal(t, "customer", resp.User.Role)
}

func TestLogin_CallbackHandOff(t *testing.T) {
	service := newStub(t)

	w := login(t, service, "ada@example.com", "user123", "https://app.example.com/account")
	require.Equal(t, http.StatusSeeOther, w.Code)

	location := w.Header().Get("Location")
	parsed, err := url.Parse(location)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", parsed.Host)
	assert.NotEmpty(t, parsed.Query().Get("token"))
	assert.NotEmpty(t, parsed.Query().Get("sessionId"))
}

func TestLogin_BadPassword(t *testing.T) {
	service := newStub(t)

	w := login(t, service, "ada@example.com", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySession(t *testing.T) {
	service := newStub(t)

	w := login(t, service, "admin@example.com", "admin123", "")
	var loginResp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-session", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	service.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin", resp.User.Role)
}

func TestVerifySession_NoCredentials(t *testing.T) {
	service := newStub(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-session", nil)
	service.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
	assert.True(t, resp.RequiresRedirect)
	assert.NotEmpty(t, resp.LoginURL)
}

func TestVerifySession_GarbageToken(t *testing.T) {
	service := newStub(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-session", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	service.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	service := newStub(t)

	w := login(t, service, "ada@example.com", "user123", "")
	var loginResp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	service.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The token no longer verifies
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/verify-session", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	service.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// The stub and the auth client agree on the wire contract
func TestAuthClientRoundTrip(t *testing.T) {
	service := newStub(t)
	srv := httptest.NewServer(service.Router())
	defer srv.Close()

	w := login(t, service, "admin@example.com", "admin123", "")
	var loginResp authclient.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	store := authclient.NewMemoryStore()
	require.NoError(t, store.SaveToken(loginResp.Token))
	client, err := authclient.New(authclient.Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)

	result := client.CheckAuthentication(context.Background())
	require.True(t, result.Authenticated)
	assert.True(t, client.IsAdmin())

	client.Logout(context.Background())
	result = client.CheckAuthentication(context.Background())
	assert.False(t, result.Authenticated)
	assert.Nil(t, client.User())
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := newTokenIssuer("secret", time.Millisecond)
	token, err := issuer.Issue("u-1", "a@b.c", "customer", "s-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "nope"))
}
