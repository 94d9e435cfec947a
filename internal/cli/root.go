package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/spf13/cobra"
)

// annotationSkipConfig marks commands that run without loading .pulse.yaml.
const annotationSkipConfig = "pulse/skip-config"

var (
	cfgFile   string
	debugFlag bool
	noColor   bool

	// loadedConfig is set by the root pre-run for commands that need it.
	loadedConfig *config.Config
	// loadedConfigPath is empty when running on defaults.
	loadedConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse - live metrics for your panel",
	Long: `Pulse polls a metrics provider on a fixed interval and keeps a short
rolling history per metric for live charts, gauges and trend arrows.

Run 'pulse provider' in one terminal for a local development provider,
then 'pulse monitor' in another to watch it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: nearest .pulse.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log scheduler and provider debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func preRun(cmd *cobra.Command, args []string) error {
	if debugFlag {
		logger.EnableDebug()
	}

	if cmd.Annotations[annotationSkipConfig] != "" {
		return applyColorMode("auto")
	}

	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	loadedConfig = cfg
	loadedConfigPath = path

	if path != "" {
		logger.Default().Debug("using config %s", path)
	}
	return applyColorMode(cfg.Output.Color)
}

func applyColorMode(mode string) error {
	if noColor {
		mode = "never"
	}
	if err := ui.SetColorMode(mode, os.Stdout); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Unknown color mode '%s'", mode),
			"Use auto, always, or never.")
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if isUnknownCommandError(err) {
		err = unknownCommandError(err)
	}

	if MachineMode() {
		_ = WriteJSONFromError(os.Stdout, err)
	} else {
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
	stop()
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "pulse"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func unknownCommandError(err error) error {
	name := extractUnknownCommand(err)
	if name == "" || !strings.HasPrefix(err.Error(), "unknown command") {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't parse the command line",
			"Run 'pulse --help' to see the available commands and flags.")
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown command '%s'", name),
		"Run 'pulse --help' to see the available commands.")
}

// requireConfig returns the config loaded by the root pre-run, falling back
// to defaults when a command is invoked without it (tests).
func requireConfig() *config.Config {
	if loadedConfig == nil {
		return config.DefaultConfig()
	}
	return loadedConfig
}
