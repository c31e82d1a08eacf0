package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/store"
)

// sliceStore serves a fixed, rank-ordered slice.
type sliceStore struct {
	items []store.Item
	now   time.Time
}

func (s *sliceStore) CurrentVersion(context.Context, string) (time.Time, error) {
	return s.now, nil
}

func (s *sliceStore) QueryOrdered(_ context.Context, _, cursor string, _ time.Time, limit int) ([]store.Item, error) {
	var out []store.Item
	for _, it := range s.items {
		if it.Rank > cursor && len(out) < limit {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *sliceStore) CountAtVersion(context.Context, string, time.Time) (int64, error) {
	return int64(len(s.items)), nil
}

func newBrowser(t *testing.T, n, pageSize int) (BrowseModel, *sliceStore) {
	t.Helper()
	st := &sliceStore{now: time.Now()}
	for i := range n {
		st.items = append(st.items, store.Item{
			ID:    fmt.Sprintf("item-%02d", i),
			Title: fmt.Sprintf("task %d", i),
			Rank:  fmt.Sprintf("a%02d", i),
		})
	}
	c := paging.NewCoordinator[store.Item](st)
	return NewBrowseModel(context.Background(), "backlog", c.NewSession("L1", pageSize)), st
}

// load runs the model's fetch synchronously and feeds the result back.
func load(t *testing.T, m BrowseModel) BrowseModel {
	t.Helper()
	next, _ := m.Update(m.fetch()())
	bm, ok := next.(BrowseModel)
	require.True(t, ok)
	return bm
}

func press(t *testing.T, m BrowseModel, msg tea.KeyMsg) (BrowseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BrowseModel)
	require.True(t, ok)
	return bm, cmd
}

func TestBrowse_LoadsFirstPage(t *testing.T) {
	m, _ := newBrowser(t, 5, 2)
	assert.Equal(t, ViewStateLoading, m.State())
	assert.Contains(t, m.View(), "Loading")

	m = load(t, m)
	assert.Equal(t, ViewStateList, m.State())
	assert.Equal(t, 2, m.Loaded())
	view := m.View()
	assert.Contains(t, view, "backlog")
	assert.Contains(t, view, "task 0")
	assert.Contains(t, view, "2 of 5")
}

func TestBrowse_LoadsNextPageAtEnd(t *testing.T) {
	m, _ := newBrowser(t, 5, 2)
	m = load(t, m)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.NotNil(t, cmd, "reaching the last row fetches the next page")
	assert.True(t, m.loading)

	m = load(t, m)
	assert.Equal(t, 4, m.Loaded())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	m = load(t, m)
	assert.Equal(t, 5, m.Loaded())
	assert.False(t, m.hasMore)

	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd, "exhausted sessions fetch nothing")
}

func TestBrowse_ExpiredSnapshotAndRestart(t *testing.T) {
	m, _ := newBrowser(t, 3, 1)
	m = load(t, m)

	next, _ := m.Update(PageErrorMsg{Err: &paging.SnapshotExpiredError{Version: time.Now(), MaxAge: time.Minute}})
	m = next.(BrowseModel)
	assert.Equal(t, ViewStateError, m.State())
	assert.Contains(t, m.View(), "Press r to restart")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewStateLoading, m.State())
	assert.Zero(t, m.Loaded())

	m = load(t, m)
	assert.Equal(t, ViewStateList, m.State())
	assert.Equal(t, 1, m.Loaded())
}

func TestBrowse_EmptyListAndQuit(t *testing.T) {
	m, _ := newBrowser(t, 0, 10)
	m = load(t, m)
	assert.Contains(t, m.View(), "(empty list)")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewStateQuitting, m.State())
	assert.Empty(t, m.View())
}

func TestBrowse_Resize(t *testing.T) {
	m, _ := newBrowser(t, 3, 10)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(BrowseModel)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
