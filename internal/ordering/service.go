package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshade/rankline/internal/logging"
	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/rank"
	"github.com/rshade/rankline/internal/store"
)

// Defaults for Config.
const (
	DefaultMaxAttempts = 3
	MaxReorderItems    = 100
)

// Common ordering errors.
var (
	// ErrConflict reports a write that kept colliding with concurrent writers.
	ErrConflict = errors.New("rank conflict: retries exhausted")

	// ErrInvalidPosition reports an anchor that is missing, in another list, or the
	// item being moved.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidReorder reports a reorder batch that is empty, too large, or inconsistent.
	ErrInvalidReorder = errors.New("invalid reorder request")
)

// Store is the persistence the service drives.
type Store interface {
	paging.Store[store.Item]

	GetList(ctx context.Context, id string) (store.List, error)
	GetItem(ctx context.Context, id string) (store.Item, error)
	InsertItem(ctx context.Context, listID, title, rank string, expect ...store.Neighbors) (store.Item, error)
	MoveItem(ctx context.Context, id, rank string, expect ...store.Neighbors) (store.Item, error)
	RenameItem(ctx context.Context, id, title string) (store.Item, error)
	DeleteItem(ctx context.Context, id string) error
	RankAfter(ctx context.Context, listID, rank, excludeID string) (string, error)
	RankBefore(ctx context.Context, listID, rank, excludeID string) (string, error)
	ApplyRanks(ctx context.Context, listID string, updates []store.RankUpdate) error
	RebalanceList(ctx context.Context, listID string, spread func(n int) []string) (int, error)
}

// Config tunes the service.
type Config struct {
	MaxAttempts   int
	AutoRebalance bool
}

// Position places an item relative to a neighbour. With neither field set the item goes
// to the end of the list. With both set the item lands between the two anchors.
type Position struct {
	AfterID  string
	BeforeID string
}

// Service coordinates rank computation, persistence and pagination for ranked lists.
type Service struct {
	store Store
	cfg   Config
	pager *paging.Coordinator[store.Item]
}

// NewService creates a service over st. Zero Config fields take their defaults.
func NewService(st Store, cfg Config, pagingOpts ...paging.Option) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Service{
		store: st,
		cfg:   cfg,
		pager: paging.NewCoordinator[store.Item](st, pagingOpts...),
	}
}

// Pager returns the coordinator serving pages.
func (s *Service) Pager() *paging.Coordinator[store.Item] {
	return s.pager
}

// Insert adds an item titled title at pos. Appends grow the tail rank by about one symbol
// each once it nears the top of the alphabet; with AutoRebalance a long run of them re-keys
// the whole list every fifty or so items.
func (s *Service) Insert(ctx context.Context, listID, title string, pos Position) (store.Item, error) {
	if _, err := s.store.GetList(ctx, listID); err != nil {
		return store.Item{}, err
	}
	return s.write(ctx, "insert", listID, "", pos, func(r string, n store.Neighbors) (store.Item, error) {
		return s.store.InsertItem(ctx, listID, title, r, n)
	})
}

// Move places an existing item at pos.
func (s *Service) Move(ctx context.Context, listID, itemID string, pos Position) (store.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return store.Item{}, err
	}
	if item.ListID != listID {
		return store.Item{}, fmt.Errorf("item %s in list %s: %w", itemID, listID, store.ErrNotFound)
	}
	return s.write(ctx, "move", listID, itemID, pos, func(r string, n store.Neighbors) (store.Item, error) {
		return s.store.MoveItem(ctx, itemID, r, n)
	})
}

// Rename changes an item's title without touching its rank.
func (s *Service) Rename(ctx context.Context, listID, itemID, title string) (store.Item, error) {
	if _, err := s.itemInList(ctx, listID, itemID); err != nil {
		return store.Item{}, err
	}
	return s.store.RenameItem(ctx, itemID, title)
}

// Delete removes an item. Neighbouring ranks are left as they are.
func (s *Service) Delete(ctx context.Context, listID, itemID string) error {
	if _, err := s.itemInList(ctx, listID, itemID); err != nil {
		return err
	}
	return s.store.DeleteItem(ctx, itemID)
}

// Page serves one snapshot-consistent page of listID.
func (s *Service) Page(ctx context.Context, listID string, req paging.Request) (*paging.Response[store.Item], error) {
	return s.pager.Page(ctx, listID, req)
}

// write computes a rank for pos and persists it through persist, guarded by the neighbours
// it was computed from. Collisions and neighbours changed by concurrent writers are retried
// with freshly read neighbours.
func (s *Service) write(
	ctx context.Context,
	op, listID, itemID string,
	pos Position,
	persist func(rank string, n store.Neighbors) (store.Item, error),
) (store.Item, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "ordering")

	var lastErr error
	rebalanced := false
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return store.Item{}, err
		}

		n, err := s.bounds(ctx, listID, itemID, pos)
		if err != nil {
			return store.Item{}, err
		}
		lower, upper := n.Lower, n.Upper

		r, err := rank.Between(lower, upper)
		ordered := lower == "" || upper == "" || lower < upper
		if errors.Is(err, rank.ErrInvalidOrder) && ordered && s.cfg.AutoRebalance && !rebalanced {
			// Ordered neighbours with no rank between them: re-key the list and retry.
			log.Warn().Str("list_id", listID).Str("lower", lower).Str("upper", upper).
				Msg("neighbours leave no room, rebalancing")
			if _, err = s.Rebalance(ctx, listID); err != nil {
				return store.Item{}, err
			}
			rebalanced = true
			continue
		}
		if err != nil {
			return store.Item{}, err
		}

		item, err := persist(r, n)
		if errors.Is(err, store.ErrRankCollision) || errors.Is(err, store.ErrNeighborsChanged) {
			lastErr = err
			log.Debug().Err(err).Str("op", op).Str("list_id", listID).Str("rank", r).Int("attempt", attempt).
				Msg("concurrent write, retrying")
			continue
		}
		if err != nil {
			return store.Item{}, err
		}

		log.Debug().Str("op", op).Str("list_id", listID).Str("item_id", item.ID).Str("rank", r).
			Msg("item ranked")

		if s.cfg.AutoRebalance && crowded(lower, r, upper) {
			log.Warn().Str("list_id", listID).Str("rank", r).Msg("ranks crowded, rebalancing list")
			if _, err = s.Rebalance(ctx, listID); err != nil {
				return store.Item{}, err
			}
			if item, err = s.store.GetItem(ctx, item.ID); err != nil {
				return store.Item{}, err
			}
		}
		return item, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no room after rebalancing list %s", listID)
	}
	return store.Item{}, fmt.Errorf("%w after %d attempts: %w", ErrConflict, s.cfg.MaxAttempts, lastErr)
}

// crowded reports whether r, just written between lower and upper, leaves too little room
// for later writes. At an open end of the list only the rank length counts: every append
// halves the gap towards the end of the alphabet, and precision extension absorbs that
// until the rank outgrows rank.MaxLength.
func crowded(lower, r, upper string) bool {
	if len(r) > rank.MaxLength {
		return true
	}
	if lower == "" || upper == "" {
		return false
	}
	return rank.NeedsRebalancing(lower, r) || rank.NeedsRebalancing(r, upper)
}

// bounds resolves pos into the ranks the new rank must fall strictly between, ignoring
// the item being moved.
func (s *Service) bounds(ctx context.Context, listID, itemID string, pos Position) (store.Neighbors, error) {
	var (
		n   store.Neighbors
		err error
	)
	switch {
	case pos.AfterID == "" && pos.BeforeID == "":
		n.Lower, err = s.store.RankBefore(ctx, listID, "", itemID)

	case pos.AfterID != "" && pos.BeforeID != "":
		var after, before store.Item
		if after, err = s.anchor(ctx, listID, itemID, pos.AfterID); err != nil {
			return n, err
		}
		if before, err = s.anchor(ctx, listID, itemID, pos.BeforeID); err != nil {
			return n, err
		}
		if after.Rank >= before.Rank {
			// rank.Between rejects the pair.
			n = store.Neighbors{Lower: after.Rank, Upper: before.Rank}
			break
		}
		// Items may sit between the anchors; land right before BeforeID.
		n.Upper = before.Rank
		n.Lower, err = s.store.RankBefore(ctx, listID, before.Rank, itemID)

	case pos.AfterID != "":
		var after store.Item
		if after, err = s.anchor(ctx, listID, itemID, pos.AfterID); err != nil {
			return n, err
		}
		n.Lower = after.Rank
		n.Upper, err = s.store.RankAfter(ctx, listID, after.Rank, itemID)

	default:
		var before store.Item
		if before, err = s.anchor(ctx, listID, itemID, pos.BeforeID); err != nil {
			return n, err
		}
		n.Upper = before.Rank
		n.Lower, err = s.store.RankBefore(ctx, listID, before.Rank, itemID)
	}
	return n, err
}

func (s *Service) anchor(ctx context.Context, listID, itemID, anchorID string) (store.Item, error) {
	if anchorID == itemID {
		return store.Item{}, fmt.Errorf("%w: item %s cannot be placed relative to itself", ErrInvalidPosition, itemID)
	}
	a, err := s.store.GetItem(ctx, anchorID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && a.ListID != listID) {
		return store.Item{}, fmt.Errorf("%w: anchor %s is not in list %s", ErrInvalidPosition, anchorID, listID)
	}
	return a, err
}

func (s *Service) itemInList(ctx context.Context, listID, itemID string) (store.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return store.Item{}, err
	}
	if item.ListID != listID {
		return store.Item{}, fmt.Errorf("item %s in list %s: %w", itemID, listID, store.ErrNotFound)
	}
	return item, nil
}
