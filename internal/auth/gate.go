// Package auth decides whether a request carries admin privileges.
//
// Admin access is a capability string: a request is privileged when the
// token it carries equals the configured secret. There are no sessions and
// no hashing, and the token is visible in shared links. Anyone holding the
// link is an admin until the secret is rotated.
package auth

import (
	"crypto/subtle"
	"net/http"
)

// TokenParam is the query/form parameter carrying the admin token.
const TokenParam = "admin_token"

// Gate compares caller tokens against a fixed secret.
type Gate struct {
	secret string
}

// NewGate creates a gate. An empty secret disables admin access.
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// IsAdmin reports whether token exactly equals the secret.
func (g *Gate) IsAdmin(token string) bool {
	if g == nil || g.secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) == 1
}

// TokenFromRequest returns the admin token of r from the query string or a
// submitted form.
func TokenFromRequest(r *http.Request) string {
	return r.FormValue(TokenParam)
}
