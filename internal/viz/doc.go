// Package viz renders runs in the terminal.
//
// [Chart] draws compartments with asciigraph, [Summary] formats derived
// metrics with lipgloss, and [Playback] is a Bubble Tea program that
// replays a trajectory and re-runs it as parameters are tuned.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from t=0 with the starting parameters
//	[ ]   - Step backward/forward
//	1-4   - Toggle V, I, T, A
//	L     - Toggle log scale
//	Tab   - Cycle parameters
//	Up/K  - Increase parameter (+5%)
//	Down/J- Decrease parameter (-5%)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
