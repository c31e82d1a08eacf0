// Package listview provides a virtual scrolling list for Bubble Tea programs.
//
// Only the rows inside the viewport, plus a small buffer, are rendered, so a list
// that grows page by page stays cheap to draw. Key features:
//   - Keyboard navigation (up/down, j/k, pgup/pgdn, home/end)
//   - Rows appended in place without moving the selection
//   - AtEnd reports when the selection reaches the last loaded row
package listview
