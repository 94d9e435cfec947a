package ui

// Unicode symbols for status indicators.
const (
	SymbolLive    = "●" // Surface is polling
	SymbolPaused  = "‖" // Auto-refresh is off
	SymbolIdle    = "○" // Not started or stopped
	SymbolFail    = "✗" // Provider offline
	SymbolWarning = "⚠"
	SymbolSuccess = "✓"
)

// Trend arrows.
const (
	SymbolUp      = "▲"
	SymbolDown    = "▼"
	SymbolFlat    = "▬"
	SymbolUnknown = "·"
)
