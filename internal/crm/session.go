// Package crm keeps local members and vehicles mirrored in the external CRM.
//
// All calls run against a short-lived bearer session. The session is owned by
// a SessionStore, refreshed by an Authenticator and replaced wholesale; every
// write goes through WithReauth so that an expired session is renewed once and
// the call retried once.
package crm

import (
	"strings"
	"sync/atomic"
)

// Session is the CRM instance base URL plus its bearer token.
type Session struct {
	InstanceURL string
	AccessToken string
}

// SessionStore holds the single current Session. Readers always see a complete
// value because the pointer is swapped atomically.
type SessionStore struct {
	current atomic.Pointer[Session]
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load returns the current session, or false if nobody has authenticated yet.
func (s *SessionStore) Load() (Session, bool) {
	cur := s.current.Load()
	if cur == nil {
		return Session{}, false
	}
	return *cur, true
}

// Store replaces the current session. Last writer wins.
func (s *SessionStore) Store(sess Session) {
	sess.InstanceURL = strings.TrimRight(strings.TrimSpace(sess.InstanceURL), "/")
	s.current.Store(&sess)
}
