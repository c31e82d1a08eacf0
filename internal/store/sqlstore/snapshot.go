package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rshade/rankline/internal/store"
)

// CurrentVersion mints a version for listID from the store clock. It returns once the
// clock has moved past the version, so any item written after this call carries a later
// updated_at and is invisible to a session bound to the version.
func (s *Store) CurrentVersion(ctx context.Context, listID string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if _, err := s.getList(ctx, s.db, listID); err != nil {
		return time.Time{}, err
	}
	v := s.mint()
	if err := s.waitPast(ctx, v); err != nil {
		return time.Time{}, err
	}
	return fromMillis(v), nil
}

// QueryOrdered returns up to limit items of listID with rank > cursor and
// updated_at <= version, in rank order. An empty cursor starts at the beginning.
func (s *Store) QueryOrdered(
	ctx context.Context, listID, cursor string, version time.Time, limit int,
) ([]store.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT `+itemColumns+`
FROM items
WHERE list_id = ? AND rank > ? AND updated_at <= ?
ORDER BY rank
LIMIT ?`), listID, cursor, toMillis(version), limit)
	if err != nil {
		return nil, fmt.Errorf("query ordered items: %w", err)
	}
	return collectItems(rows)
}

// CountAtVersion counts the items of listID with updated_at <= version.
func (s *Store) CountAtVersion(ctx context.Context, listID string, version time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
SELECT COUNT(*) FROM items WHERE list_id = ? AND updated_at <= ?`),
		listID, toMillis(version)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
