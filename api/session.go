/*
session.go - Explicit session registry

PURPOSE:
  Tracks logged-in users by opaque token. Sessions are plain values
  passed into handlers; the core engine never reads ambient login state.
  A token is issued at login after the password check and dropped at
  logout. This is deliberately not a token *system*: no expiry chains,
  no refresh, no claims - one process, one map.
*/
package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session identifies one logged-in user.
type Session struct {
	Token     string
	Username  string
	IsAdmin   bool
	CreatedAt time.Time
}

// Sessions is an in-memory token registry.
type Sessions struct {
	mu      sync.RWMutex
	byToken map[string]Session
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]Session)}
}

// Create issues a session for the given user.
func (s *Sessions) Create(username string, isAdmin bool) Session {
	sess := Session{
		Token:     uuid.NewString(),
		Username:  username,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.byToken[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Get looks up a session by token.
func (s *Sessions) Get(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byToken[token]
	return sess, ok
}

// Delete drops a session. Unknown tokens are ignored.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// DeleteForUser drops every session belonging to a user. Called when the
// user is deleted or the data set is purged.
func (s *Sessions) DeleteForUser(username string) {
	s.mu.Lock()
	for token, sess := range s.byToken {
		if sess.Username == username {
			delete(s.byToken, token)
		}
	}
	s.mu.Unlock()
}

// Reset drops every session except the one with the given token. Used
// after a purge, when the purged accounts no longer exist.
func (s *Sessions) Reset(keepToken string) {
	s.mu.Lock()
	for token := range s.byToken {
		if token != keepToken {
			delete(s.byToken, token)
		}
	}
	s.mu.Unlock()
}

// fromRequest extracts the session for a "Bearer <token>" header.
func (s *Sessions) fromRequest(r *http.Request) (Session, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Session{}, false
	}
	return s.Get(token)
}
