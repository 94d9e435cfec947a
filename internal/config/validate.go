package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/live"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but pulse only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade pulse or lower 'version' in .pulse.yaml.")
	}

	checks := []struct {
		section string
		check   func() error
	}{
		{"provider", func() error { return validateProvider(cfg.Provider) }},
		{"refresh", func() error { return validateRefresh(cfg.Refresh) }},
		{"buffer", func() error { return validateBuffer(cfg.Buffer) }},
		{"stale_threshold", func() error { return validateStaleThreshold(cfg.StaleThreshold) }},
		{"surfaces", func() error { return validateSurfaces(cfg.Surfaces) }},
		{"serve", func() error { return validateServe(cfg.Serve) }},
		{"output", func() error { return validateOutput(cfg.Output) }},
	}
	for _, c := range checks {
		if err := c.check(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
				fmt.Sprintf("Check the '%s' section in your .pulse.yaml.", c.section))
		}
	}

	return nil
}

func validateProvider(p ProviderConfig) error {
	if p.URL == "" {
		return fmt.Errorf("provider.url is required")
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("provider.url '%s' isn't an http(s) URL", p.URL)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", p.Timeout)
	}
	return nil
}

func validateRefresh(r RefreshConfig) error {
	return validateInterval("refresh.interval", r.Interval)
}

func validateInterval(field string, seconds int) error {
	if seconds < live.MinIntervalSeconds || seconds > live.MaxIntervalSeconds {
		return fmt.Errorf("%s must be between %d and %d seconds, got %d",
			field, live.MinIntervalSeconds, live.MaxIntervalSeconds, seconds)
	}
	return nil
}

func validateBuffer(b BufferConfig) error {
	if b.Capacity < live.MinBufferCapacity || b.Capacity > live.MaxBufferCapacity {
		return fmt.Errorf("buffer.capacity must be between %d and %d, got %d",
			live.MinBufferCapacity, live.MaxBufferCapacity, b.Capacity)
	}
	return nil
}

func validateStaleThreshold(n int) error {
	if n < 1 {
		return fmt.Errorf("stale_threshold must be at least 1, got %d", n)
	}
	return nil
}

func validateSurfaces(surfaces map[string]SurfaceConfig) error {
	known := make(map[string]bool)
	for _, s := range live.DefaultSurfaces() {
		known[s.Name] = true
	}

	names := make([]string, 0, len(surfaces))
	for name := range surfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("unknown surface '%s' - use one of: %s", name, strings.Join(surfaceNames(), ", "))
		}
		s := surfaces[name]
		if s.Interval != 0 {
			if err := validateInterval("surfaces."+name+".interval", s.Interval); err != nil {
				return err
			}
		}
		if s.ScaleMax < 0 {
			return fmt.Errorf("surfaces.%s.scale_max can't be negative", name)
		}
	}
	return nil
}

func validateServe(s ServeConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("serve.addr is required")
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}

func surfaceNames() []string {
	specs := live.DefaultSurfaces()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
