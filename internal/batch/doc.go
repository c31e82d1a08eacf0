// Package batch splits bulk writes into fixed-size chunks.
//
// Rebalancing a list rewrites the rank of every item in it. Chunking keeps each SQL
// statement under driver parameter limits and gives callers a progress hook:
//   - Configurable batch size (default 100, the reorder batch limit)
//   - Context-aware cancellation between batches
//   - Progress snapshots after every batch
package batch
