package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Defaults to ./.pulse.yaml
	URL            string // Pre-specified provider URL
	Token          string
	Interval       int  // Seconds; 0 keeps the default
	Paused         bool // Write refresh.auto: false
	Overwrite      bool // Overwrite existing config without asking
	NonInteractive bool // Skip prompts, use defaults
	Out            io.Writer
}

var intervalChoices = []int{1, 2, 3, 5, 10, 15, 30}

// Init creates a new .pulse.yaml configuration file.
func Init(opts InitOptions) error {
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	overwrite := opts.Overwrite
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.URL != "" {
		cfg.Provider.URL = opts.URL
	}
	cfg.Provider.Token = opts.Token
	if opts.Interval > 0 {
		cfg.Refresh.Interval = opts.Interval
	}
	cfg.Refresh.Auto = !opts.Paused

	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := config.Write(configPath, cfg, overwrite); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), configPath)
	fmt.Fprintf(out, "  %s\n", ui.MutedStyle().Render(
		fmt.Sprintf("polling %s every %ds", cfg.Provider.URL, cfg.Refresh.Interval)))
	fmt.Fprintln(out, "\nNext: run 'pulse monitor' to open the dashboard.")
	return nil
}

func promptConfig(cfg *config.Config) error {
	options := make([]huh.Option[int], 0, len(intervalChoices))
	for _, s := range intervalChoices {
		options = append(options, huh.NewOption(fmt.Sprintf("every %ds", s), s))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics provider URL").
				Description("JSON snapshot endpoint polled by every surface").
				Placeholder(config.DefaultProviderURL).
				Value(&cfg.Provider.URL).
				Validate(validateProviderURL),
			huh.NewInput().
				Title("Bearer token (optional)").
				Description("Supports ${VAR} expansion, e.g. ${PULSE_TOKEN}").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Provider.Token),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Refresh interval").
				Options(options...).
				Value(&cfg.Refresh.Interval),
			huh.NewConfirm().
				Title("Start polling automatically?").
				Description("When off, surfaces start paused until you press p").
				Value(&cfg.Refresh.Auto),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}
	return nil
}

func validateProviderURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("provider URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("use a full http(s) URL")
	}
	return nil
}
