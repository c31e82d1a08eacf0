// Package paging serves rank-ordered lists as snapshot-consistent keyset pages.
//
// A browsing session is bound to one list version, a timestamp minted by the store on
// the first request and echoed back by the client on every later request. Each page is a
// keyset scan (rank greater than the cursor, ascending) restricted to records last modified
// at or before that version, so items edited or inserted mid-session neither appear nor
// shift position. Key behaviour:
//   - Page size defaults to 20 and is bounded to [1, 100]
//   - One extra row is fetched to decide has-more without a count
//   - Versions older than the retention window (15 minutes) are rejected as expired
//   - Total counts are opt-in and evaluated at the same version
//
// Session state lives with the client: FRESH (no version) → PAGING → EXHAUSTED, or
// EXPIRED when the version ages out, after which the client restarts from FRESH.
// Session wraps that state machine for in-process callers.
package paging
