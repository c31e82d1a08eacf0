package paging

import (
	"context"
	"errors"
	"time"
)

// State is the client-side state of a browsing session.
type State int

// Session states.
const (
	StateFresh State = iota
	StatePaging
	StateExhausted
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StatePaging:
		return "paging"
	case StateExhausted:
		return "exhausted"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session holds the version and cursor of one browsing session and advances through it.
// A Session is not safe for concurrent use.
type Session[T Ranked] struct {
	c            *Coordinator[T]
	listID       string
	pageSize     int
	includeTotal bool

	version time.Time
	cursor  string
	state   State
}

// NewSession starts a FRESH session over listID. A zero pageSize uses the default.
func (c *Coordinator[T]) NewSession(listID string, pageSize int) *Session[T] {
	return &Session[T]{c: c, listID: listID, pageSize: pageSize}
}

// WithTotal requests a total count on every page.
func (s *Session[T]) WithTotal() *Session[T] {
	s.includeTotal = true
	return s
}

// Next fetches the next page. It returns ErrSessionExhausted once the last page has been
// served and a *SnapshotExpiredError when the version aged out; Restart recovers from both.
func (s *Session[T]) Next(ctx context.Context) (*Response[T], error) {
	switch s.state {
	case StateExhausted:
		return nil, ErrSessionExhausted
	case StateExpired:
		return nil, &SnapshotExpiredError{Version: s.version, MaxAge: s.c.Retention()}
	}

	resp, err := s.c.Page(ctx, s.listID, Request{
		PageSize:     s.pageSize,
		Cursor:       s.cursor,
		Version:      s.version,
		IncludeTotal: s.includeTotal,
	})
	if err != nil {
		if errors.Is(err, ErrSnapshotExpired) {
			s.state = StateExpired
		}
		return nil, err
	}

	s.version = resp.Version
	s.cursor = resp.NextCursor
	s.state = resp.State()
	return resp, nil
}

// Restart returns the session to FRESH so the next page mints a new version.
func (s *Session[T]) Restart() {
	s.version = time.Time{}
	s.cursor = ""
	s.state = StateFresh
}

// State returns the current session state.
func (s *Session[T]) State() State {
	return s.state
}

// Version returns the version the session is bound to, zero while FRESH.
func (s *Session[T]) Version() time.Time {
	return s.version
}
