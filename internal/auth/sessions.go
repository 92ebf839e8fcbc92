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
	"sync"
	"time"

	"pgedge-sales-analyst/internal/history"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "analyst_session"

// sessionDuration is how long a login remains valid
const sessionDuration = 24 * time.Hour

// Session is the state owned by one authenticated browser session.
// The history log lives here: it is created on login and discarded when
// the session expires or the user logs out, so nothing persists across
// sessions or restarts.
type Session struct {
	Token     string
	CreatedAt time.Time
	Expires   time.Time
	History   *history.Log
}

// SessionManager tracks active sessions in memory, keyed by token.
// Sessions from different browsers are fully independent; the pipeline
// never shares mutable state between them.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Create issues a new authenticated session
func (m *SessionManager) Create() (*Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		CreatedAt: now,
		Expires:   now.Add(sessionDuration),
		History:   history.NewLog(),
	}

	m.mu.Lock()
	m.sessions[token] = session
	m.mu.Unlock()

	return session, nil
}

// Get returns the session for a token if it exists and has not expired.
// Expired sessions are removed on access.
func (m *SessionManager) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(session.Expires) {
		m.Destroy(token)
		return nil, false
	}

	return session, true
}

// Destroy removes a session, dropping its history with it
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Count returns the number of live sessions (expired ones included until
// their next access)
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
