// Package monitor implements the live metrics dashboard as a Bubble Tea
// program.
//
// The dashboard renders one card per monitored surface (CPU, memory, disk,
// network, visitors, requests). Each card shows the latest value, a
// percentage bar against the metric's display scale, a trend chip, and a
// sparkline of the history window. An offline flag appears once the provider
// has failed enough times in a row that values are synthetic.
//
// # Architecture
//
// The package follows The Elm Architecture (Model-Update-View):
//
//   - Model: Holds presentation state (selection, view mode, layout size)
//   - Update: Processes keystrokes, clock ticks, and sample notifications
//   - View: Renders the engine's current windows to a string
//
// The engine owns all metric state. The model never copies samples; it reads
// views from the engine on every render. Engine listeners run on the apply
// path, so Subscribe forwards metric names through a buffered channel and
// drops notifications when the dashboard falls behind. Rendering always reads
// the newest window, so a dropped notification only delays a repaint.
//
// # Keyboard Controls
//
//	q, Ctrl+C   Quit
//	p, Space    Toggle auto-refresh
//	+ / -       Slow down / speed up polling by one second
//	r           Refresh every surface now
//	up/k down/j Move selection
//	Enter       Open the selected surface in detail view
//	Esc         Back to the dashboard
//	?           Toggle help
package monitor
