package cli

import (
	"os"
	"time"

	"github.com/rileyhilliard/pulse/internal/devprovider"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/spf13/cobra"
)

// Flags for the monitor command
var (
	monitorInterval int
	monitorPaused   bool
)

// Flags for the serve command
var serveOpts ServeOptions

// Flags for the snapshot command
var (
	snapshotSamples int
	snapshotTimeout time.Duration
)

// Flags for the provider command
var providerOpts ProviderOptions

// Flags for the init command
var (
	initURL            string
	initToken          string
	initInterval       int
	initPaused         bool
	initForce          bool
	initNonInteractive bool
)

// monitorCmd opens the live dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of every metric surface",
	Long: `Open a terminal dashboard that polls the metrics provider and draws
each surface's history as it arrives.

Keys: p pause/resume, +/- change the interval, r refresh now,
enter for details, ? for help, q to quit.

Examples:
  pulse monitor
  pulse monitor --interval 1
  pulse monitor --paused`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd.Context(), requireConfig(), monitorInterval, monitorPaused)
	},
}

// serveCmd exposes the engine over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live metrics over HTTP and WebSocket",
	Long: `Run the polling engine headless and expose it to browser dashboards:

  GET  /api/status                 engine state and counters
  GET  /api/surfaces               surfaces and their schedulers
  GET  /api/metrics[/{name}]       latest value, percentage, trend
  GET  /api/metrics/{name}/series  rolling history
  PUT  /api/refresh/interval       {"seconds": 5}
  PUT  /api/refresh/auto           {"enabled": false}
  POST /api/refresh                fetch now
  GET  /ws                         stream of appended samples
  GET  /metrics                    Prometheus exposition

Examples:
  pulse serve
  pulse serve --addr :8080 --interval 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context(), requireConfig(), serveOpts)
	},
}

// snapshotCmd prints current values once
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Sample the provider and print every metric once",
	Long: `Fetch a few samples from the metrics provider, print the latest value,
percentage and trend of every metric, then exit.

Examples:
  pulse snapshot
  pulse snapshot --samples 5
  pulse snapshot --json | jq '.data.metrics[] | {metric, latest}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotCommand(cmd.Context(), requireConfig(), SnapshotOptions{
			Samples: snapshotSamples,
			Timeout: snapshotTimeout,
			JSON:    machineMode,
		}, cmd.OutOrStdout())
	},
}

// providerCmd runs the development provider
var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Run a development metrics provider",
	Long: `Serve random-walk metrics on the provider endpoint pulse polls by
default. Fail and drop rates simulate an unreliable upstream.

Examples:
  pulse provider
  pulse provider --fail-rate 0.3 --drop-rate 0.1
  pulse provider --latency 500ms --token secret`,
	Annotations: map[string]string{annotationSkipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return providerCommand(cmd.Context(), providerOpts, cmd.OutOrStdout())
	},
}

// initCmd creates a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .pulse.yaml in the current directory",
	Long: `Create a .pulse.yaml configuration file. Prompts for the provider URL
and refresh settings unless --non-interactive is given.

Examples:
  pulse init
  pulse init --non-interactive --url http://metrics.local/api/v1/metrics
  pulse init --force --interval 5`,
	Annotations: map[string]string{annotationSkipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			URL:            initURL,
			Token:          initToken,
			Interval:       initInterval,
			Paused:         initPaused,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			Out:            cmd.OutOrStdout(),
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for pulse.

Examples:
  # Bash
  pulse completion bash > /etc/bash_completion.d/pulse

  # Zsh
  pulse completion zsh > "${fpath[1]}/_pulse"

  # Fish
  pulse completion fish > ~/.config/fish/completions/pulse.fish`,
	Annotations: map[string]string{annotationSkipConfig: "true"},
	ValidArgs:   []string{"bash", "zsh", "fish", "powershell"},
	Args:        cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// monitor command flags
	monitorCmd.Flags().IntVar(&monitorInterval, "interval", 0, "refresh interval in seconds (overrides refresh.interval)")
	monitorCmd.Flags().BoolVar(&monitorPaused, "paused", false, "start with auto-refresh off")

	// serve command flags
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "", "listen address (overrides serve.addr)")
	serveCmd.Flags().IntVar(&serveOpts.Interval, "interval", 0, "refresh interval in seconds (overrides refresh.interval)")
	serveCmd.Flags().BoolVar(&serveOpts.Paused, "paused", false, "start with auto-refresh off")
	serveCmd.Flags().BoolVar(&serveOpts.NoMetrics, "no-metrics", false, "don't serve /metrics")

	// snapshot command flags
	snapshotCmd.Flags().IntVar(&snapshotSamples, "samples", 2, "samples to collect per metric")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 10*time.Second, "give up after this long")
	snapshotCmd.Flags().BoolVar(&machineMode, "json", false, "output JSON")

	// provider command flags
	providerCmd.Flags().StringVar(&providerOpts.Addr, "addr", devprovider.DefaultAddr, "listen address")
	providerCmd.Flags().Float64Var(&providerOpts.FailRate, "fail-rate", 0, "probability of answering 503 (0-1)")
	providerCmd.Flags().Float64Var(&providerOpts.DropRate, "drop-rate", 0, "probability of omitting each field (0-1)")
	providerCmd.Flags().DurationVar(&providerOpts.Latency, "latency", 0, "delay every response")
	providerCmd.Flags().StringVar(&providerOpts.Token, "token", "", "require this bearer token")

	// init command flags
	initCmd.Flags().StringVar(&initURL, "url", "", "metrics provider URL")
	initCmd.Flags().StringVar(&initToken, "token", "", "bearer token, e.g. '${PULSE_TOKEN}'")
	initCmd.Flags().IntVar(&initInterval, "interval", 0, "refresh interval in seconds")
	initCmd.Flags().BoolVar(&initPaused, "paused", false, "start surfaces paused")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts")

	rootCmd.AddCommand(monitorCmd, serveCmd, snapshotCmd, providerCmd, initCmd, completionCmd)
}
