// Package ui provides the terminal building blocks shared by pulse's
// commands and the live dashboard.
//
// # Components Overview
//
//	Sparkline  - Block-character history of a metric's window
//	Bar        - Percentage-of-scale bar with load colors
//	Trend      - Up/down/flat chip for the latest change
//	Table      - Non-interactive Bubbles table for 'pulse snapshot'
//	Spinner    - Animated wait indicator for non-TUI commands
//
// # Color Scheme
//
// Semantic colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy load, live indicator
//	ColorError     (red)    - High load, offline indicator
//	ColorWarning   (yellow) - Elevated load, paused indicator
//	ColorInfo      (cyan)   - Rising trend
//	ColorMuted     (gray)   - Secondary text
//
// SetColorMode applies the output.color setting ("auto", "always",
// "never") through termenv color profiles.
package ui
