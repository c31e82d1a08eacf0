// Package ordering is the write side of ranked lists. It turns a requested position into
// a rank, persists it, and keeps the list healthy:
//   - Positions name a neighbour item; the service reads the adjacent ranks itself
//   - Unique-rank collisions from concurrent writers are retried with fresh neighbours
//   - Ranks that crowd their neighbours trigger a rebalance of the whole list
//
// Reads go through the paging coordinator so every page is snapshot-consistent.
package ordering
