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

// CreateList creates an empty list named name.
func (s *Store) CreateList(ctx context.Context, name string) (store.List, error) {
	if err := ctx.Err(); err != nil {
		return store.List{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.List{}, fmt.Errorf("list name is required")
	}

	now := s.stamp()
	l := store.List{ID: ulid.Make().String(), Name: name, CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO lists (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		l.ID, l.Name, toMillis(now), toMillis(now)); err != nil {
		return store.List{}, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

// GetList loads one list.
func (s *Store) GetList(ctx context.Context, id string) (store.List, error) {
	if err := ctx.Err(); err != nil {
		return store.List{}, err
	}
	return s.getList(ctx, s.db, id)
}

func (s *Store) getList(ctx context.Context, q queryer, id string) (store.List, error) {
	row := q.QueryRowContext(ctx, s.dialect.rebind(`
SELECT id, name, created_at, updated_at FROM lists WHERE id = ?`), id)
	l, err := scanList(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return store.List{}, fmt.Errorf("list %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.List{}, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// ListLists returns every list, oldest first.
func (s *Store) ListLists(ctx context.Context) ([]store.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, created_at, updated_at FROM lists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	out := make([]store.List, 0)
	for rows.Next() {
		l, sErr := scanList(rows.Scan)
		if sErr != nil {
			return nil, fmt.Errorf("scan list: %w", sErr)
		}
		out = append(out, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return out, nil
}

// DeleteList deletes a list and, by cascade, its items.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inTx(ctx, "delete list", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM items WHERE list_id = ?`), id); err != nil {
			return fmt.Errorf("delete list items: %w", err)
		}
		res, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM lists WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return requireRow(res, "list", id)
	})
}

func (s *Store) touchList(ctx context.Context, q queryer, id string, at int64) error {
	res, err := q.ExecContext(ctx, s.dialect.rebind(`UPDATE lists SET updated_at = ? WHERE id = ?`), at, id)
	if err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return requireRow(res, "list", id)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func scanList(scan scanner) (store.List, error) {
	var (
		l                  store.List
		created, updated int64
	)
	if err := scan(&l.ID, &l.Name, &created, &updated); err != nil {
		return store.List{}, err
	}
	l.CreatedAt = fromMillis(created)
	l.UpdatedAt = fromMillis(updated)
	return l, nil
}
