package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/rankline/internal/store"
)

const itemColumns = `id, list_id, title, rank, created_at, updated_at`

// InsertItem adds an item with the given rank to listID. With expect, the insert only
// commits while expect[0] still holds the ranks adjacent to rank, and fails with
// store.ErrNeighborsChanged otherwise.
func (s *Store) InsertItem(
	ctx context.Context, listID, title, rank string, expect ...store.Neighbors,
) (store.Item, error) {
	if err := ctx.Err(); err != nil {
		return store.Item{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return store.Item{}, fmt.Errorf("item title is required")
	}

	now := s.stamp()
	item := store.Item{
		ID:        ulid.Make().String(),
		ListID:    listID,
		Title:     title,
		Rank:      rank,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.inTx(ctx, "insert item", func(tx *sql.Tx) error {
		if err := s.touchList(ctx, tx, listID, toMillis(now)); err != nil {
			return err
		}
		if err := s.checkNeighbors(ctx, tx, listID, rank, "", expect); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			item.ID, item.ListID, item.Title, item.Rank, toMillis(now), toMillis(now))
		return s.mapWriteError(err, "insert item", listID, rank)
	})
	if err != nil {
		return store.Item{}, err
	}
	return item, nil
}

// GetItem loads one item.
func (s *Store) GetItem(ctx context.Context, id string) (store.Item, error) {
	if err := ctx.Err(); err != nil {
		return store.Item{}, err
	}
	return s.getItem(ctx, s.db, id)
}

func (s *Store) getItem(ctx context.Context, q queryer, id string) (store.Item, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Item{}, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// MoveItem gives an item a new rank and bumps its version. expect guards the move the
// way it guards InsertItem, ignoring the item itself.
func (s *Store) MoveItem(ctx context.Context, id, rank string, expect ...store.Neighbors) (store.Item, error) {
	if err := ctx.Err(); err != nil {
		return store.Item{}, err
	}

	var item store.Item
	err := s.inTx(ctx, "move item", func(tx *sql.Tx) error {
		var err error
		if item, err = s.getItem(ctx, tx, id); err != nil {
			return err
		}
		now := s.stamp()
		if err = s.touchList(ctx, tx, item.ListID, toMillis(now)); err != nil {
			return err
		}
		if err = s.checkNeighbors(ctx, tx, item.ListID, rank, id, expect); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`UPDATE items SET rank = ?, updated_at = ? WHERE id = ?`),
			rank, toMillis(now), id)
		if err = s.mapWriteError(err, "move item", item.ListID, rank); err != nil {
			return err
		}
		item.Rank = rank
		item.UpdatedAt = now
		return nil
	})
	if err != nil {
		return store.Item{}, err
	}
	return item, nil
}

// RenameItem changes an item's title and bumps its version.
func (s *Store) RenameItem(ctx context.Context, id, title string) (store.Item, error) {
	if err := ctx.Err(); err != nil {
		return store.Item{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return store.Item{}, fmt.Errorf("item title is required")
	}

	var item store.Item
	err := s.inTx(ctx, "rename item", func(tx *sql.Tx) error {
		var err error
		if item, err = s.getItem(ctx, tx, id); err != nil {
			return err
		}
		now := s.stamp()
		if err = s.touchList(ctx, tx, item.ListID, toMillis(now)); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, s.dialect.rebind(`UPDATE items SET title = ?, updated_at = ? WHERE id = ?`),
			title, toMillis(now), id); err != nil {
			return fmt.Errorf("rename item: %w", err)
		}
		item.Title = title
		item.UpdatedAt = now
		return nil
	})
	if err != nil {
		return store.Item{}, err
	}
	return item, nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inTx(ctx, "delete item", func(tx *sql.Tx) error {
		item, err := s.getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = s.touchList(ctx, tx, item.ListID, toMillis(s.stamp())); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM items WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// ListItems returns every item of listID in rank order.
func (s *Store) ListItems(ctx context.Context, listID string) ([]store.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT `+itemColumns+` FROM items WHERE list_id = ? ORDER BY rank`), listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return collectItems(rows)
}

// RankAfter returns the smallest rank in listID greater than rank, ignoring excludeID.
// An empty rank means the start of the list, so RankAfter(ctx, id, "", "") is the first
// rank. It returns "" when there is none.
func (s *Store) RankAfter(ctx context.Context, listID, rank, excludeID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.rankAfter(ctx, s.db, listID, rank, excludeID)
}

// RankBefore returns the largest rank in listID smaller than rank, ignoring excludeID.
// An empty rank means the end of the list, so RankBefore(ctx, id, "", "") is the last
// rank. It returns "" when there is none.
func (s *Store) RankBefore(ctx context.Context, listID, rank, excludeID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.rankBefore(ctx, s.db, listID, rank, excludeID)
}

func (s *Store) rankAfter(ctx context.Context, q queryer, listID, rank, excludeID string) (string, error) {
	return s.adjacentRank(ctx, q, `
SELECT rank FROM items WHERE list_id = ? AND rank > ? AND id <> ? ORDER BY rank LIMIT 1`,
		listID, rank, excludeID)
}

func (s *Store) rankBefore(ctx context.Context, q queryer, listID, rank, excludeID string) (string, error) {
	if rank == "" {
		return s.adjacentRank(ctx, q, `
SELECT rank FROM items WHERE list_id = ? AND id <> ? ORDER BY rank DESC LIMIT 1`,
			listID, excludeID)
	}
	return s.adjacentRank(ctx, q, `
SELECT rank FROM items WHERE list_id = ? AND rank < ? AND id <> ? ORDER BY rank DESC LIMIT 1`,
		listID, rank, excludeID)
}

func (s *Store) adjacentRank(ctx context.Context, q queryer, query string, args ...any) (string, error) {
	var r string
	err := q.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&r)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("adjacent rank: %w", err)
	}
	return r, nil
}

// checkNeighbors verifies, inside the write transaction, that the ranks around rank are
// still the ones the caller computed it from.
func (s *Store) checkNeighbors(
	ctx context.Context, tx *sql.Tx, listID, rank, excludeID string, expect []store.Neighbors,
) error {
	if len(expect) == 0 {
		return nil
	}
	lower, err := s.rankBefore(ctx, tx, listID, rank, excludeID)
	if err != nil {
		return err
	}
	upper, err := s.rankAfter(ctx, tx, listID, rank, excludeID)
	if err != nil {
		return err
	}
	if lower != expect[0].Lower || upper != expect[0].Upper {
		return fmt.Errorf("%w: list %s around rank %q: expected (%q, %q), found (%q, %q)",
			store.ErrNeighborsChanged, listID, rank, expect[0].Lower, expect[0].Upper, lower, upper)
	}
	return nil
}

func (s *Store) mapWriteError(err error, what, listID, rank string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return &store.RankCollisionError{ListID: listID, Rank: rank}
	case isForeignKeyViolation(err):
		return fmt.Errorf("list %s: %w", listID, store.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func collectItems(rows *sql.Rows) ([]store.Item, error) {
	defer rows.Close()
	out := make([]store.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

func scanItem(scan scanner) (store.Item, error) {
	var (
		item             store.Item
		created, updated int64
	)
	if err := scan(&item.ID, &item.ListID, &item.Title, &item.Rank, &created, &updated); err != nil {
		return store.Item{}, err
	}
	item.CreatedAt = fromMillis(created)
	item.UpdatedAt = fromMillis(updated)
	return item, nil
}
