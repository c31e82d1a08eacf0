package ordering

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/rank"
	"github.com/rshade/rankline/internal/store"
	"github.com/rshade/rankline/internal/store/sqlstore"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	st, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "ordering.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestService(t *testing.T, cfg Config) (*Service, *sqlstore.Store, store.List) {
	t.Helper()
	st := openStore(t)
	l, err := st.CreateList(context.Background(), "backlog")
	require.NoError(t, err)
	return NewService(st, cfg), st, l
}

func titles(t *testing.T, st *sqlstore.Store, listID string) []string {
	t.Helper()
	items, err := st.ListItems(context.Background(), listID)
	require.NoError(t, err)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func mustInsert(t *testing.T, svc *Service, listID, title string, pos Position) store.Item {
	t.Helper()
	item, err := svc.Insert(context.Background(), listID, title, pos)
	require.NoError(t, err)
	return item
}

func TestInsert_AppendsByDefault(t *testing.T) {
	svc, st, l := newTestService(t, Config{})

	first := mustInsert(t, svc, l.ID, "one", Position{})
	assert.Equal(t, rank.Initial(), first.Rank)
	mustInsert(t, svc, l.ID, "two", Position{})
	mustInsert(t, svc, l.ID, "three", Position{})

	assert.Equal(t, []string{"one", "two", "three"}, titles(t, st, l.ID))
}

func TestInsert_RelativePositions(t *testing.T) {
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	c := mustInsert(t, svc, l.ID, "c", Position{})

	mustInsert(t, svc, l.ID, "b", Position{AfterID: a.ID})
	mustInsert(t, svc, l.ID, "start", Position{BeforeID: a.ID})
	mustInsert(t, svc, l.ID, "end", Position{AfterID: c.ID})
	mustInsert(t, svc, l.ID, "b2", Position{AfterID: a.ID, BeforeID: c.ID})

	assert.Equal(t, []string{"start", "a", "b", "b2", "c", "end"}, titles(t, st, l.ID))

	_, err := svc.Insert(context.Background(), l.ID, "x", Position{AfterID: c.ID, BeforeID: a.ID})
	require.ErrorIs(t, err, rank.ErrInvalidOrder)
}

func TestMove_BetweenDistantAnchors(t *testing.T) {
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	mustInsert(t, svc, l.ID, "b", Position{})
	mustInsert(t, svc, l.ID, "c", Position{})
	d := mustInsert(t, svc, l.ID, "d", Position{})
	e := mustInsert(t, svc, l.ID, "e", Position{})

	_, err := svc.Move(context.Background(), l.ID, e.ID, Position{AfterID: a.ID, BeforeID: d.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "e", "d"}, titles(t, st, l.ID))
}

func TestInsert_Errors(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})

	other, err := st.CreateList(ctx, "other")
	require.NoError(t, err)
	foreign := mustInsert(t, svc, other.ID, "foreign", Position{})

	_, err = svc.Insert(ctx, "missing", "x", Position{})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Insert(ctx, l.ID, "x", Position{AfterID: foreign.ID})
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = svc.Insert(ctx, l.ID, "x", Position{BeforeID: "missing"})
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = svc.Move(ctx, l.ID, a.ID, Position{AfterID: a.ID})
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	b := mustInsert(t, svc, l.ID, "b", Position{})
	c := mustInsert(t, svc, l.ID, "c", Position{})

	_, err := svc.Move(ctx, l.ID, c.ID, Position{BeforeID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, titles(t, st, l.ID))

	_, err = svc.Move(ctx, l.ID, c.ID, Position{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(t, st, l.ID))

	moved, err := svc.Move(ctx, l.ID, a.ID, Position{AfterID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, titles(t, st, l.ID))
	assert.Greater(t, moved.Rank, b.Rank)
	assert.Less(t, moved.Rank, c.Rank)

	_, err = svc.Move(ctx, "elsewhere", a.ID, Position{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRenameAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	mustInsert(t, svc, l.ID, "b", Position{})

	renamed, err := svc.Rename(ctx, l.ID, a.ID, "alpha")
	require.NoError(t, err)
	assert.Equal(t, a.Rank, renamed.Rank)

	require.NoError(t, svc.Delete(ctx, l.ID, a.ID))
	assert.Equal(t, []string{"b"}, titles(t, st, l.ID))

	require.ErrorIs(t, svc.Delete(ctx, l.ID, a.ID), store.ErrNotFound)
	_, err = svc.Rename(ctx, "elsewhere", a.ID, "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

// collidingStore reports a rank collision for the first failures inserts.
type collidingStore struct {
	*sqlstore.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (c *collidingStore) InsertItem(
	ctx context.Context, listID, title, r string, expect ...store.Neighbors,
) (store.Item, error) {
	c.mu.Lock()
	c.calls++
	fail := c.calls <= c.failures
	c.mu.Unlock()
	if fail {
		return store.Item{}, &store.RankCollisionError{ListID: listID, Rank: r}
	}
	return c.Store.InsertItem(ctx, listID, title, r, expect...)
}

func TestInsert_RetriesCollisions(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "first attempt", failures: 0, wantCalls: 1},
		{name: "succeeds on last attempt", failures: 2, wantCalls: 3},
		{name: "retries exhausted", failures: 3, wantErr: true, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openStore(t)
			l, err := st.CreateList(context.Background(), "contended")
			require.NoError(t, err)
			cs := &collidingStore{Store: st, failures: tt.failures}
			svc := NewService(cs, Config{MaxAttempts: 3})

			_, err = svc.Insert(context.Background(), l.ID, "x", Position{})
			assert.Equal(t, tt.wantCalls, cs.calls)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConflict)
				require.ErrorIs(t, err, store.ErrRankCollision)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInsert_ConcurrentAppendsAllLand(t *testing.T) {
	const writers = 4
	svc, st, l := newTestService(t, Config{MaxAttempts: writers})

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Insert(context.Background(), l.ID, "w", Position{})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	items, err := st.ListItems(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Len(t, items, writers)
}

func TestInsert_AutoRebalanceWhenCrowded(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{AutoRebalance: true})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	b := mustInsert(t, svc, l.ID, "b", Position{})
	require.NoError(t, svc.Reorder(ctx, l.ID, []store.RankUpdate{
		{ItemID: a.ID, Rank: "a"},
		{ItemID: b.ID, Rank: "b"},
	}))

	mid, err := svc.Insert(ctx, l.ID, "mid", Position{AfterID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, "g", mid.Rank)

	items, err := st.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "g", "o"}, []string{items[0].Rank, items[1].Rank, items[2].Rank})
	assert.Equal(t, []string{"a", "mid", "b"}, titles(t, st, l.ID))
}

func TestInsert_NoRoomBetweenNeighbours(t *testing.T) {
	ctx := context.Background()

	for _, auto := range []bool{false, true} {
		svc, st, l := newTestService(t, Config{AutoRebalance: auto})
		a := mustInsert(t, svc, l.ID, "a", Position{})
		b := mustInsert(t, svc, l.ID, "b", Position{})
		require.NoError(t, svc.Reorder(ctx, l.ID, []store.RankUpdate{
			{ItemID: a.ID, Rank: "a"},
			{ItemID: b.ID, Rank: "a0"},
		}))

		item, err := svc.Insert(ctx, l.ID, "mid", Position{AfterID: a.ID})
		if !auto {
			require.ErrorIs(t, err, rank.ErrInvalidOrder)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, "g", item.Rank)
		assert.Equal(t, []string{"a", "mid", "b"}, titles(t, st, l.ID))
	}
}

func TestRebalance(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})

	n, err := svc.Rebalance(ctx, l.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, title := range []string{"a", "b", "c"} {
		mustInsert(t, svc, l.ID, title, Position{})
	}
	n, err = svc.Rebalance(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	items, err := st.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, rank.Rebalance(3), []string{items[0].Rank, items[1].Rank, items[2].Rank})
	assert.Equal(t, []string{"a", "b", "c"}, titles(t, st, l.ID))
}

func TestReorder_Validation(t *testing.T) {
	many := make([]store.RankUpdate, MaxReorderItems+1)
	for i := range many {
		many[i] = store.RankUpdate{ItemID: string(rune('A' + i%26)), Rank: "n"}
	}
	long := make([]byte, rank.MaxLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		updates []store.RankUpdate
	}{
		{name: "empty", updates: nil},
		{name: "too many", updates: many},
		{name: "missing id", updates: []store.RankUpdate{{Rank: "a"}}},
		{name: "malformed rank", updates: []store.RankUpdate{{ItemID: "x", Rank: "A"}}},
		{name: "rank too long", updates: []store.RankUpdate{{ItemID: "x", Rank: string(long)}}},
		{name: "duplicate item", updates: []store.RankUpdate{{ItemID: "x", Rank: "a"}, {ItemID: "x", Rank: "b"}}},
		{name: "duplicate rank", updates: []store.RankUpdate{{ItemID: "x", Rank: "a"}, {ItemID: "y", Rank: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, validateReorder(tt.updates), ErrInvalidReorder)
		})
	}
}

func TestPage_ThroughService(t *testing.T) {
	ctx := context.Background()
	svc, _, l := newTestService(t, Config{})
	for _, title := range []string{"a", "b", "c"} {
		mustInsert(t, svc, l.ID, title, Position{})
	}

	first, err := svc.Page(ctx, l.ID, paging.Request{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)

	// Writes after the version was minted stay out of the session, even in the same
	// millisecond on the real clock.
	mustInsert(t, svc, l.ID, "late", Position{})
	mustInsert(t, svc, l.ID, "early", Position{BeforeID: first.Items[0].ID})

	second, err := svc.Page(ctx, l.ID, paging.Request{
		PageSize: 2, Cursor: first.NextCursor, Version: first.Version,
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "c", second.Items[0].Title)
	assert.False(t, second.HasMore)
}

func TestPage_WritesRightAfterMintStayHidden(t *testing.T) {
	ctx := context.Background()
	svc, _, l := newTestService(t, Config{})
	mustInsert(t, svc, l.ID, "seed", Position{})

	for i := range 50 {
		resp, err := svc.Page(ctx, l.ID, paging.Request{PageSize: paging.MaxPageSize, IncludeTotal: true})
		require.NoError(t, err)
		mustInsert(t, svc, l.ID, "late", Position{})

		again, err := svc.Page(ctx, l.ID, paging.Request{
			PageSize: paging.MaxPageSize, Version: resp.Version, IncludeTotal: true,
		})
		require.NoError(t, err)
		require.Len(t, again.Items, len(resp.Items), "round %d", i)
		require.Equal(t, *resp.TotalCount, *again.TotalCount, "round %d", i)
	}
}

// rebalancingStore re-keys the list once, right after a writer has read its upper
// neighbour and before it persists.
type rebalancingStore struct {
	*sqlstore.Store
	other *Service
	once  sync.Once
}

func (r *rebalancingStore) RankAfter(ctx context.Context, listID, rk, excludeID string) (string, error) {
	upper, err := r.Store.RankAfter(ctx, listID, rk, excludeID)
	r.once.Do(func() {
		_, err = r.other.Rebalance(ctx, listID)
	})
	return upper, err
}

func TestInsert_RebalanceBetweenReadAndWrite(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})
	first := mustInsert(t, svc, l.ID, "first", Position{})
	mustInsert(t, svc, l.ID, "second", Position{})

	racing := NewService(&rebalancingStore{Store: st, other: svc}, Config{})
	between, err := racing.Insert(ctx, l.ID, "between", Position{AfterID: first.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "between", "second"}, titles(t, st, l.ID))
	items, err := st.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, rank.Rebalance(2)[0], items[0].Rank)
	assert.Equal(t, between.ID, items[1].ID)
}

func TestMove_RebalanceBetweenReadAndWrite(t *testing.T) {
	ctx := context.Background()
	svc, st, l := newTestService(t, Config{})
	a := mustInsert(t, svc, l.ID, "a", Position{})
	mustInsert(t, svc, l.ID, "b", Position{})
	c := mustInsert(t, svc, l.ID, "c", Position{})

	racing := NewService(&rebalancingStore{Store: st, other: svc}, Config{})
	_, err := racing.Move(ctx, l.ID, c.ID, Position{AfterID: a.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c", "b"}, titles(t, st, l.ID))
}

// countingStore counts list rebalances.
type countingStore struct {
	*sqlstore.Store
	rebalances int
}

func (c *countingStore) RebalanceList(ctx context.Context, listID string, spread func(int) []string) (int, error) {
	c.rebalances++
	return c.Store.RebalanceList(ctx, listID, spread)
}

func TestInsert_TailAppendsRebalancePeriodically(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	l, err := st.CreateList(ctx, "log")
	require.NoError(t, err)
	cs := &countingStore{Store: st}
	svc := NewService(cs, Config{AutoRebalance: true})

	const appends = 120
	for i := range appends {
		mustInsert(t, svc, l.ID, fmt.Sprintf("entry %03d", i), Position{})
	}

	items, err := st.ListItems(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, items, appends)
	for i, it := range items {
		require.Equal(t, fmt.Sprintf("entry %03d", i), it.Title)
		require.LessOrEqual(t, len(it.Rank), rank.MaxLength)
	}
	// Near the top of the alphabet every append grows the rank by one symbol. The list
	// is re-keyed when the tail outgrows rank.MaxLength, not each time the gap to the
	// previous item closes.
	assert.GreaterOrEqual(t, cs.rebalances, 2)
	assert.LessOrEqual(t, cs.rebalances, 3)
}

func TestCrowded(t *testing.T) {
	long := strings.Repeat("y", rank.MaxLength) + "z"
	tests := []struct {
		name            string
		lower, r, upper string
		want            bool
	}{
		{"roomy middle", "a", "h", "p", false},
		{"tight below", "a0", "a1", "p", true},
		{"tight above", "a", "h", "h1", true},
		{"tail append next to previous", "yz", "yzz", "", false},
		{"head insert next to next", "", "00h", "00i", false},
		{"tail append too long", long[:len(long)-1], long, "", true},
		{"first item", "", "n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crowded(tt.lower, tt.r, tt.upper))
		})
	}
}
