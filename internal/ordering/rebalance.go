package ordering

import (
	"context"
	"fmt"

	"github.com/rshade/rankline/internal/logging"
	"github.com/rshade/rankline/internal/rank"
	"github.com/rshade/rankline/internal/store"
)

// Rebalance re-keys every item of listID with evenly spaced ranks, keeping their order.
// The read and the re-key share one store transaction, so concurrent writers either land
// before it and are re-keyed too, or retry against the new ranks. It returns the number
// of items re-keyed. Every item's version moves forward, so open pagination sessions on
// the list see no further items and should restart.
func (s *Service) Rebalance(ctx context.Context, listID string) (int, error) {
	width := 0
	n, err := s.store.RebalanceList(ctx, listID, func(count int) []string {
		ranks := rank.Rebalance(count)
		if count > 0 {
			width = len(ranks[0])
		}
		return ranks
	})
	if err != nil {
		return 0, fmt.Errorf("rebalance list %s: %w", listID, err)
	}

	if n > 0 {
		logging.FromContext(ctx).Info().
			Str("list_id", listID).
			Int("items", n).
			Int("width", width).
			Msg("list rebalanced")
	}
	return n, nil
}

// Reorder applies client-chosen ranks to up to MaxReorderItems items of listID in one
// transaction. Every rank must be well formed and at most rank.MaxLength long, and no item
// or rank may repeat.
func (s *Service) Reorder(ctx context.Context, listID string, updates []store.RankUpdate) error {
	if err := validateReorder(updates); err != nil {
		return err
	}
	if _, err := s.store.GetList(ctx, listID); err != nil {
		return err
	}
	return s.store.ApplyRanks(ctx, listID, updates)
}

func validateReorder(updates []store.RankUpdate) error {
	switch {
	case len(updates) == 0:
		return fmt.Errorf("%w: no items", ErrInvalidReorder)
	case len(updates) > MaxReorderItems:
		return fmt.Errorf("%w: %d items exceeds the limit of %d", ErrInvalidReorder, len(updates), MaxReorderItems)
	}

	items := make(map[string]struct{}, len(updates))
	ranks := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if u.ItemID == "" {
			return fmt.Errorf("%w: item id is required", ErrInvalidReorder)
		}
		if err := rank.Validate(u.Rank); err != nil {
			return fmt.Errorf("%w: item %s: %w", ErrInvalidReorder, u.ItemID, err)
		}
		if len(u.Rank) > rank.MaxLength {
			return fmt.Errorf("%w: item %s: rank longer than %d", ErrInvalidReorder, u.ItemID, rank.MaxLength)
		}
		if _, dup := items[u.ItemID]; dup {
			return fmt.Errorf("%w: item %s listed twice", ErrInvalidReorder, u.ItemID)
		}
		if _, dup := ranks[u.Rank]; dup {
			return fmt.Errorf("%w: rank %q listed twice", ErrInvalidReorder, u.Rank)
		}
		items[u.ItemID] = struct{}{}
		ranks[u.Rank] = struct{}{}
	}
	return nil
}
