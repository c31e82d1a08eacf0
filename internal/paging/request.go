package paging

import (
	"errors"
	"fmt"
	"time"

	"github.com/rshade/rankline/internal/rank"
)

// Page size limits and snapshot retention.
const (
	DefaultPageSize  = 20
	MinPageSize      = 1
	MaxPageSize      = 100
	DefaultRetention = 15 * time.Minute
)

// Common pagination errors.
var (
	// ErrInvalidPageRequest reports a page size out of bounds or a malformed cursor.
	// Requests failing validation never reach the store.
	ErrInvalidPageRequest = errors.New("invalid page request")

	// ErrSnapshotExpired reports a session version older than the retention window.
	// The client recovers by restarting pagination without a version.
	ErrSnapshotExpired = errors.New("pagination snapshot expired")

	// ErrSessionExhausted is returned by Session.Next after the last page.
	ErrSessionExhausted = errors.New("pagination session exhausted")
)

// SnapshotExpiredError names the expired version and the retention window.
type SnapshotExpiredError struct {
	Version time.Time
	MaxAge  time.Duration
}

func (e *SnapshotExpiredError) Error() string {
	return fmt.Sprintf("%s: version %s is older than %s",
		ErrSnapshotExpired, e.Version.UTC().Format(time.RFC3339Nano), e.MaxAge)
}

// Is makes errors.Is(err, ErrSnapshotExpired) match.
func (e *SnapshotExpiredError) Is(target error) bool {
	return target == ErrSnapshotExpired
}

// Request is one page request. A zero PageSize means the default; a zero Version starts a
// new session; an empty Cursor starts at the beginning of the list.
type Request struct {
	PageSize     int       `json:"page_size"               yaml:"page_size"`
	Cursor       string    `json:"cursor,omitempty"        yaml:"cursor,omitempty"`
	Version      time.Time `json:"list_version,omitzero"   yaml:"list_version,omitempty"`
	IncludeTotal bool      `json:"include_total,omitempty" yaml:"include_total,omitempty"`
}

// Response is one page of a session.
type Response[T any] struct {
	Items      []T       `json:"items"`
	Version    time.Time `json:"list_version"`
	NextCursor string    `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
	TotalCount *int64    `json:"total_count,omitempty"`
	PageSize   int       `json:"page_size"`
}

// State returns the session state after this page.
func (r *Response[T]) State() State {
	if r.HasMore {
		return StatePaging
	}
	return StateExhausted
}

// Validate checks r against the page size bounds [MinPageSize, maxSize] and the rank
// alphabet. A zero PageSize is valid and means the default.
func (r Request) Validate(maxSize int) error {
	if r.PageSize != 0 && (r.PageSize < MinPageSize || r.PageSize > maxSize) {
		return fmt.Errorf("%w: page size must be between %d and %d, got %d",
			ErrInvalidPageRequest, MinPageSize, maxSize, r.PageSize)
	}
	if r.Cursor != "" {
		if err := rank.Validate(r.Cursor); err != nil {
			return fmt.Errorf("%w: cursor: %w", ErrInvalidPageRequest, err)
		}
	}
	return nil
}
