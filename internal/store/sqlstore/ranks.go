package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rshade/rankline/internal/batch"
	"github.com/rshade/rankline/internal/logging"
	"github.com/rshade/rankline/internal/store"
)

// parkPrefix sorts after every alphabet symbol, so parked ranks never collide with real ones.
const parkPrefix = "~"

// ApplyRanks rewrites the ranks of items in listID atomically.
//
// The unique (list_id, rank) constraint is checked per statement, so a swap done in place
// would collide midway. Every affected row is first parked on a temporary rank derived
// from its id, then given its final rank; both passes run in batches inside one
// transaction. Items not named in updates keep their rank and version.
func (s *Store) ApplyRanks(ctx context.Context, listID string, updates []store.RankUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	now := toMillis(s.stamp())
	return s.inTx(ctx, "apply ranks", func(tx *sql.Tx) error {
		if err := s.touchList(ctx, tx, listID, now); err != nil {
			return err
		}
		return s.applyRanks(ctx, tx, listID, updates, now)
	})
}

// RebalanceList re-keys every item of listID in one transaction. spread receives the item
// count and returns that many ascending ranks, assigned in the current rank order. Writers
// touching the list wait for the transaction, so no item keeps a rank from before the
// re-key. It returns the number of items re-keyed.
func (s *Store) RebalanceList(ctx context.Context, listID string, spread func(n int) []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	now := toMillis(s.stamp())
	err := s.inTx(ctx, "rebalance list", func(tx *sql.Tx) error {
		if err := s.touchList(ctx, tx, listID, now); err != nil {
			return err
		}
		ids, err := s.itemIDs(ctx, tx, listID)
		if err != nil || len(ids) == 0 {
			return err
		}
		ranks := spread(len(ids))
		if len(ranks) != len(ids) {
			return fmt.Errorf("rebalance list %s: got %d ranks for %d items", listID, len(ranks), len(ids))
		}
		updates := make([]store.RankUpdate, len(ids))
		for i, id := range ids {
			updates[i] = store.RankUpdate{ItemID: id, Rank: ranks[i]}
		}
		n = len(ids)
		return s.applyRanks(ctx, tx, listID, updates, now)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) itemIDs(ctx context.Context, tx *sql.Tx, listID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, s.dialect.rebind(`
SELECT id FROM items WHERE list_id = ? ORDER BY rank`), listID)
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item ids: %w", err)
	}
	return ids, nil
}

// applyRanks runs the park and assign passes inside tx.
func (s *Store) applyRanks(ctx context.Context, tx *sql.Tx, listID string, updates []store.RankUpdate, now int64) error {
	log := logging.FromContext(ctx)
	proc, err := batch.NewProcessor[store.RankUpdate](s.batchSize)
	if err != nil {
		return err
	}
	proc.WithProgress(func(p batch.Progress) {
		log.Debug().
			Str("list_id", listID).
			Int("processed", p.ProcessedItems).
			Int("total", p.TotalItems).
			Int("batch_size", proc.BatchSize()).
			Float64("percent", p.PercentComplete()).
			Bool("done", p.IsComplete()).
			Msg("rank batch applied")
	})

	park := func(ctx context.Context, b []store.RankUpdate, _ int) error {
		for _, u := range b {
			res, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE items SET rank = ? WHERE id = ? AND list_id = ?`), parkPrefix+u.ItemID, u.ItemID, listID)
			if err != nil {
				return fmt.Errorf("park item %s: %w", u.ItemID, err)
			}
			if err = requireRow(res, "item", u.ItemID); err != nil {
				return err
			}
		}
		return nil
	}
	assign := func(ctx context.Context, b []store.RankUpdate, _ int) error {
		for _, u := range b {
			_, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE items SET rank = ?, updated_at = ? WHERE id = ? AND list_id = ?`), u.Rank, now, u.ItemID, listID)
			if err = s.mapWriteError(err, "assign rank", listID, u.Rank); err != nil {
				return err
			}
		}
		return nil
	}

	if err = proc.Process(ctx, updates, park); err != nil {
		return err
	}
	return proc.Process(ctx, updates, assign)
}
