package paging

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/rankline/internal/logging"
)

// Ranked is a record that carries a rank.
type Ranked interface {
	GetRank() string
}

// Store is the read capability the coordinator needs from persistence.
type Store[T Ranked] interface {
	// CurrentVersion mints the list's watermark as of now.
	CurrentVersion(ctx context.Context, listID string) (time.Time, error)

	// QueryOrdered returns up to limit records of the list ordered by ascending rank,
	// with rank > cursor (no lower bound when cursor is empty) and last modified at or
	// before version.
	QueryOrdered(ctx context.Context, listID, cursor string, version time.Time, limit int) ([]T, error)

	// CountAtVersion counts the records of the list last modified at or before version.
	CountAtVersion(ctx context.Context, listID string, version time.Time) (int64, error)
}

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	retention       time.Duration
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// WithRetention sets how long a session version stays valid.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retention = d
		}
	}
}

// WithPageSizes overrides the default and maximum page sizes. The maximum is capped at
// MaxPageSize and the default at the maximum.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(o *options) {
		if maxSize >= MinPageSize && maxSize <= MaxPageSize {
			o.maxPageSize = maxSize
		}
		if defaultSize >= MinPageSize {
			o.defaultPageSize = defaultSize
		}
		o.defaultPageSize = min(o.defaultPageSize, o.maxPageSize)
	}
}

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Coordinator builds pages from a Store. It holds no mutable state and is safe for
// concurrent use.
type Coordinator[T Ranked] struct {
	store Store[T]
	opts  options
}

// NewCoordinator creates a coordinator over store.
func NewCoordinator[T Ranked](store Store[T], opts ...Option) *Coordinator[T] {
	o := options{
		retention:       DefaultRetention,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator[T]{store: store, opts: o}
}

// Retention returns the configured snapshot retention window.
func (c *Coordinator[T]) Retention() time.Duration {
	return c.opts.retention
}

// Normalize validates req and fills in the default page size.
func (c *Coordinator[T]) Normalize(req Request) (Request, error) {
	if err := req.Validate(c.opts.maxPageSize); err != nil {
		return Request{}, err
	}
	if req.PageSize == 0 {
		req.PageSize = c.opts.defaultPageSize
	}
	return req, nil
}

// CheckVersion returns a *SnapshotExpiredError when version is older than the retention
// window.
func (c *Coordinator[T]) CheckVersion(version time.Time) error {
	if c.opts.now().Sub(version) > c.opts.retention {
		return &SnapshotExpiredError{Version: version, MaxAge: c.opts.retention}
	}
	return nil
}

// Page returns the next page of listID for req.
//
// Without a version the store mints the current one and the page starts a new session.
// With a version the version must still be within the retention window. The store is
// asked for PageSize+1 rows; the extra row only signals HasMore and is dropped. The total
// count, when requested, runs alongside the page query at the same version.
func (c *Coordinator[T]) Page(ctx context.Context, listID string, req Request) (*Response[T], error) {
	log := logging.FromContext(ctx)

	req, err := c.Normalize(req)
	if err != nil {
		return nil, err
	}

	version := req.Version
	if version.IsZero() {
		version, err = c.store.CurrentVersion(ctx, listID)
		if err != nil {
			return nil, fmt.Errorf("resolving list version: %w", err)
		}
	} else if err = c.CheckVersion(version); err != nil {
		log.Debug().
			Str("list_id", listID).
			Time("version", version).
			Dur("retention", c.opts.retention).
			Msg("rejecting expired pagination snapshot")
		return nil, err
	}

	var (
		rows  []T
		total *int64
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var qErr error
		rows, qErr = c.store.QueryOrdered(gCtx, listID, req.Cursor, version, req.PageSize+1)
		if qErr != nil {
			return fmt.Errorf("querying page: %w", qErr)
		}
		return nil
	})
	if req.IncludeTotal {
		g.Go(func() error {
			n, cErr := c.store.CountAtVersion(gCtx, listID, version)
			if cErr != nil {
				return fmt.Errorf("counting list: %w", cErr)
			}
			total = &n
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	hasMore := len(rows) > req.PageSize
	if hasMore {
		rows = rows[:req.PageSize]
	}
	if rows == nil {
		rows = make([]T, 0)
	}

	resp := &Response[T]{
		Items:      rows,
		Version:    version,
		HasMore:    hasMore,
		TotalCount: total,
		PageSize:   req.PageSize,
	}
	if hasMore {
		resp.NextCursor = rows[len(rows)-1].GetRank()
	}

	log.Debug().
		Str("list_id", listID).
		Time("version", version).
		Str("cursor", req.Cursor).
		Int("items", len(rows)).
		Bool("has_more", hasMore).
		Msg("page served")

	return resp, nil
}

// Walk visits every page of listID within one session, stopping at the first error
// returned by fn or by the coordinator.
func (c *Coordinator[T]) Walk(ctx context.Context, listID string, pageSize int, fn func(*Response[T]) error) error {
	s := c.NewSession(listID, pageSize)
	for {
		resp, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if err = fn(resp); err != nil {
			return err
		}
		if !resp.HasMore {
			return nil
		}
	}
}
