// Package dispatch implements the session-scoped command dispatcher: a
// composable menu engine that filters commands by applicability, presents
// them, executes the selection, and loops until a command signals exit.
// The dispatcher holds no business logic; every side effect lives in the
// service calls the commands are bound to.
package dispatch

// Session carries the identity of the currently-authenticated actor
// through a chain of dispatcher invocations. It is an explicit value
// threaded into every command execution, never a shared global.
type Session struct {
	username string
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// Username returns the authenticated identity, or "" before login.
func (s *Session) Username() string {
	return s.username
}

// Authenticated reports whether an identity is established.
func (s *Session) Authenticated() bool {
	return s.username != ""
}

// Authenticate establishes the identity after a successful login.
func (s *Session) Authenticate(username string) {
	s.username = username
}

// Clear drops the identity. Only logout-class commands call this.
func (s *Session) Clear() {
	s.username = ""
}
