package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionResponse is the session surface consumed by the page shell
type SessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          interface{} `json:"user,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// sessionJSON exposes the resolved session state to the page shell
func (s *Server) sessionJSON(c *gin.Context) {
	state := MustSession(c)
	resp := SessionResponse{
		Authenticated: state.IsAuthenticated(),
		Message:       state.Err,
	}
	if state.User != nil {
		resp.User = state.User
	}
	c.JSON(http.StatusOK, resp)
}

// loginRedirect sends the visitor to the external login portal, carrying the
// requested callback (or the site root) back across domains
func (s *Server) loginRedirect(c *gin.Context) {
	client := sessionClient(c)
	callback := c.Query("callbackUrl")
	if callback == "" {
		callback = "/"
	}
	c.Redirect(http.StatusSeeOther, client.LoginURL(callback))
}

func (s *Server) registerRedirect(c *gin.Context) {
	client := sessionClient(c)
	c.Redirect(http.StatusSeeOther, client.RegisterURL())
}

// logout ends the remote session and clears the token cookie. Cleanup is
// unconditional: a failed remote call still leaves the visitor logged out
// locally.
func (s *Server) logout(c *gin.Context) {
	client := sessionClient(c)
	client.Logout(c.Request.Context())
	s.clearTokenCookie(c)
	c.Redirect(http.StatusSeeOther, client.LoginURL(""))
}
