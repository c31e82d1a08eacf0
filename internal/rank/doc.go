// Package rank implements fractional rank keys for ordered lists.
//
// A rank is a string over the 36-symbol alphabet 0-9a-z. Byte order of two ranks is the
// list order of the items that carry them, so a database can sort and range-scan the rank
// column directly. New ranks are computed strictly between two neighbours, which lets items
// be inserted and moved without renumbering the rest of the list. Key features:
//   - Midpoint computation on exact base-36 digit vectors (no floats, no fixed-width ints)
//   - Precision extension when two neighbours are adjacent at their current length
//   - Closeness detection to rebalance a hot region before ranks grow long
//   - Evenly spaced bulk ranks for rebalancing a whole list
//
// Every function is pure: the same inputs always produce the same rank and no state is
// shared between calls. Two callers computing a rank for the same gap at the same time
// will get the same answer; the store's (list, rank) uniqueness constraint turns that into
// a collision the caller retries with fresh bounds.
package rank
