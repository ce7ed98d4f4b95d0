package domain

import (
	"sync"
	"time"
)

// Session is the ephemeral binding between a live connection and the
// identity/channel it is currently participating as. A connection is
// bound to at most one channel at a time: Bind overwrites, it never
// merges.
type Session struct {
	mu            sync.RWMutex
	userID        string
	username      string
	displayName   string
	authenticated bool
	channelID     string
	createdAt     time.Time
	lastActiveAt  time.Time
}

// NewSession creates an unauthenticated, unbound session.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		createdAt:    now,
		lastActiveAt: now,
	}
}

// Authenticate records the authenticated identity on the session.
func (s *Session) Authenticate(userID, username, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.username = username
	s.displayName = displayName
	s.authenticated = true
	s.lastActiveAt = time.Now()
}

// IsAuthenticated reports whether an identity has been recorded.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Bind binds the session to a channel, replacing any previous binding.
func (s *Session) Bind(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = channelID
	s.lastActiveAt = time.Now()
}

// Unbind clears the channel binding.
func (s *Session) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = ""
	s.lastActiveAt = time.Now()
}

// ChannelID returns the bound channel id, empty if unbound.
func (s *Session) ChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

// IsBound reports whether the session is bound to a channel.
func (s *Session) IsBound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID != ""
}

// UserID returns the authenticated user id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username returns the authenticated username.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// DisplayName returns the name used in chat payloads.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}
