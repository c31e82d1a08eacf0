// Package tui contains the interactive list browser. It walks one pagination session,
// loading the next page when the cursor reaches the last loaded row.
package tui
