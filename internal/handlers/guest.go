// internal/handlers/guest.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dealtable/dealtable/internal/auth"
)

// EnsureGuest returns the stable player id for this browser, minting a
// fresh guest identity (and cookie) when none is presented. Reconnects
// with the same cookie keep the same id.
func EnsureGuest(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "session_token")
	if token != "" {
		if sub, err := auth.VerifyToken(token); err == nil {
			if id, parseErr := uuid.Parse(sub); parseErr == nil {
				return id, nil
			}
		}
		// Bad or stale token: fall through and mint a new identity.
	}

	id := uuid.New()
	newToken, err := auth.CreateToken(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to mint guest token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    newToken,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}

// extractCookieToken pulls a named cookie value from a raw Cookie header.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
