/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// SessionContextKey is the context key for the authenticated session
const SessionContextKey contextKey = "session"

// SessionFromContext retrieves the session from the request context.
// Returns nil for unauthenticated requests.
func SessionFromContext(ctx context.Context) *Session {
	if session, ok := ctx.Value(SessionContextKey).(*Session); ok {
		return session
	}
	return nil
}

// RequireSession creates middleware that gates the dashboard behind a valid
// session cookie. Browsers without one are redirected to the login page.
func RequireSession(manager *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			session, ok := manager.Get(cookie.Value)
			if !ok {
				// Stale cookie: clear it and send the browser back to login
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   -1,
				})
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
