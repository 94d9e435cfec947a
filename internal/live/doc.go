// Package live implements the live-metrics windowing and polling engine that
// backs the real-time monitoring surfaces of the panel.
//
// # Architecture
//
// Each monitored surface (CPU, memory, disk, network, visitors, requests)
// runs independently:
//
//	Scheduler   - timer-driven; owns the start/pause/resume/stop lifecycle
//	Source      - acquires one snapshot per call, degrading to synthetic values
//	SeriesBuffer- fixed-capacity FIFO of samples for one metric
//	Notifier    - fans "sample appended" events out to display surfaces
//	Derive      - latest value, percentage of scale, and trend for one buffer
//
// The Engine wires one Surface per monitored area to a shared Source and a
// shared Notifier and exposes CurrentValue, Series, IsLive, SetInterval and
// ToggleAutoRefresh to display code.
//
// # Message Flow
//
//  1. The scheduler's ticker fires at the configured interval (default 3s)
//  2. If no fetch is outstanding, Source.FetchSnapshot runs in a goroutine
//  3. On completion the result is applied only if the scheduler generation
//     is unchanged; Stop bumps the generation so late results are dropped
//  4. The surface appends one sample per metric and publishes each append
//  5. Listeners re-derive display values through Engine.View
//
// # Failure Handling
//
// Nothing here returns fetch errors to display code. Transport failures are
// replaced with synthetic values by the Source, malformed samples are dropped
// and counted by the buffer, and stale results are discarded and counted by
// the scheduler. Engine.Offline turns true once the Source has failed
// StaleThreshold times in a row.
package live
