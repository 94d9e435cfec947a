// Package cli implements the pulse command-line interface.
//
// Each Cobra command is a thin wrapper that resolves flags and delegates to
// a command function, which in turn drives the packages under internal/.
//
// # Command Structure
//
// The root command is "pulse" with subcommands:
//
//	pulse monitor     - Live terminal dashboard
//	pulse serve       - HTTP/WebSocket API and Prometheus metrics
//	pulse snapshot    - Sample once and print (table or --json)
//	pulse provider    - Development metrics provider
//	pulse init        - Create .pulse.yaml
//	pulse completion  - Shell completion scripts
//	pulse version     - Build information
//
// # Configuration
//
// The root pre-run loads the nearest .pulse.yaml (or --config), applies
// PULSE_* environment overrides, validates it and sets the color mode.
// Commands that don't poll anything (init, provider, completion, version)
// skip loading.
//
// # Engine Setup
//
// SetupEngine turns a config into an HTTP metric source and a live engine,
// optionally instrumented for Prometheus. Every polling command goes
// through it, and every polling command stops the engine on the way out.
//
// # Machine Mode
//
// 'pulse snapshot --json' writes a JSONEnvelope to stdout, and errors are
// reported in the same envelope instead of the human-readable format.
package cli
