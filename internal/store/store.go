// Package store defines the persisted records of ranked lists and the errors every
// storage backend reports.
package store

import (
	"errors"
	"fmt"
	"time"
)

// Common store errors.
var (
	// ErrNotFound reports a list or item that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRankCollision reports a write that would give two items of one list the same rank.
	ErrRankCollision = errors.New("rank collision")

	// ErrNeighborsChanged reports a guarded write whose expected neighbours were re-ranked,
	// moved or removed by a concurrent writer. The rank must be recomputed.
	ErrNeighborsChanged = errors.New("neighbouring ranks changed")
)

// RankCollisionError names the list and rank of a unique-rank violation.
type RankCollisionError struct {
	ListID string
	Rank   string
}

func (e *RankCollisionError) Error() string {
	return fmt.Sprintf("%s: rank %q already used in list %s", ErrRankCollision, e.Rank, e.ListID)
}

// Is makes errors.Is(err, ErrRankCollision) match.
func (e *RankCollisionError) Is(target error) bool {
	return target == ErrRankCollision
}

// List is a named, ordered collection of items.
type List struct {
	ID        string    `json:"id"         yaml:"id"`
	Name      string    `json:"name"       yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Item is one ranked entry of a list. UpdatedAt is the item's version: it changes on every
// write that touches the item, rank changes included.
type Item struct {
	ID        string    `json:"id"         yaml:"id"`
	ListID    string    `json:"list_id"    yaml:"list_id"`
	Title     string    `json:"title"      yaml:"title"`
	Rank      string    `json:"rank"       yaml:"rank"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// GetRank returns the item's rank.
func (i Item) GetRank() string {
	return i.Rank
}

// RankUpdate assigns a new rank to one item.
type RankUpdate struct {
	ItemID string
	Rank   string
}

// Neighbors are the ranks adjacent to a position in a list. An empty rank means the
// position is at that end of the list.
type Neighbors struct {
	Lower string
	Upper string
}
