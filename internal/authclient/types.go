package authclient

// AuthUser is the identity snapshot returned by the access-management
// service. It is replaced wholesale on every successful check and never
// partially mutated.
type AuthUser struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Provider   string `json:"provider,omitempty"`
	ProviderID string `json:"providerId,omitempty"`
	Image      string `json:"image,omitempty"`
}

// AuthResponse mirrors the verify-session response body
type AuthResponse struct {
	Authenticated    bool      `json:"authenticated"`
	User             *AuthUser `json:"user,omitempty"`
	Token            string    `json:"token,omitempty"`
	SessionID        string    `json:"sessionId,omitempty"`
	Message          string    `json:"message,omitempty"`
	RequiresRedirect bool      `json:"requiresRedirect,omitempty"`
	LoginURL         string    `json:"loginUrl,omitempty"`
}

// CheckResult is the outcome of a session check. Every failure mode
// (transport error, 401, malformed response) collapses to
// Authenticated=false plus a message; the cross-domain case additionally
// carries a redirect target. Checks never fail with an error.
type CheckResult struct {
	Authenticated    bool
	User             *AuthUser
	RequiresRedirect bool
	LoginURL         string
	Message          string
}
