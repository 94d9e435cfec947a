package config

import (
	"time"

	"github.com/rileyhilliard/pulse/internal/devprovider"
	"github.com/rileyhilliard/pulse/internal/live"
	"github.com/rileyhilliard/pulse/internal/provider"
	"github.com/rileyhilliard/pulse/internal/server"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultProviderURL points at the development provider started by
// 'pulse provider' on its default address.
const DefaultProviderURL = "http://" + devprovider.DefaultAddr + devprovider.MetricsPath

// Config represents the complete .pulse.yaml configuration file.
type Config struct {
	Version        int                      `yaml:"version" mapstructure:"version"`
	Provider       ProviderConfig           `yaml:"provider" mapstructure:"provider"`
	Refresh        RefreshConfig            `yaml:"refresh" mapstructure:"refresh"`
	Buffer         BufferConfig             `yaml:"buffer" mapstructure:"buffer"`
	StaleThreshold int                      `yaml:"stale_threshold" mapstructure:"stale_threshold"`
	Surfaces       map[string]SurfaceConfig `yaml:"surfaces,omitempty" mapstructure:"surfaces"`
	Serve          ServeConfig              `yaml:"serve" mapstructure:"serve"`
	Output         OutputConfig             `yaml:"output" mapstructure:"output"`
}

// ProviderConfig locates the metrics provider.
type ProviderConfig struct {
	// URL of the JSON snapshot endpoint.
	URL string `yaml:"url" mapstructure:"url"`

	// Token is sent as a bearer token when set. Supports ${VAR} expansion.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RefreshConfig is the global polling setup shared by every surface.
type RefreshConfig struct {
	// Interval in whole seconds, 1 to 30.
	Interval int `yaml:"interval" mapstructure:"interval"`

	// Auto starts polling immediately. When false surfaces start paused.
	Auto bool `yaml:"auto" mapstructure:"auto"`
}

// BufferConfig sizes the per-metric history window.
type BufferConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// SurfaceConfig overrides one surface. Zero values inherit the globals.
type SurfaceConfig struct {
	Interval int     `yaml:"interval,omitempty" mapstructure:"interval"`
	Enabled  *bool   `yaml:"enabled,omitempty" mapstructure:"enabled"`
	ScaleMax float64 `yaml:"scale_max,omitempty" mapstructure:"scale_max"`
}

// ServeConfig controls 'pulse serve'.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Metrics exposes /metrics in the Prometheus format.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Provider: ProviderConfig{
			URL:     DefaultProviderURL,
			Timeout: provider.DefaultTimeout,
		},
		Refresh: RefreshConfig{
			Interval: live.DefaultIntervalSeconds,
			Auto:     true,
		},
		Buffer:         BufferConfig{Capacity: live.DefaultBufferCapacity},
		StaleThreshold: live.DefaultStaleThreshold,
		Surfaces:       make(map[string]SurfaceConfig),
		Serve: ServeConfig{
			Addr:    server.DefaultAddr,
			Metrics: true,
		},
		Output: OutputConfig{Color: "auto"},
	}
}

// ToEngineConfig converts the file settings into an engine configuration.
func (c *Config) ToEngineConfig() live.EngineConfig {
	ec := live.DefaultEngineConfig()
	ec.Refresh = live.PollConfig{IntervalSeconds: c.Refresh.Interval, Enabled: c.Refresh.Auto}
	ec.BufferCapacity = c.Buffer.Capacity
	ec.StaleThreshold = c.StaleThreshold

	if len(c.Surfaces) > 0 {
		ec.Overrides = make(map[string]live.SurfaceOverride, len(c.Surfaces))
		for name, s := range c.Surfaces {
			ec.Overrides[name] = live.SurfaceOverride{
				IntervalSeconds: s.Interval,
				Enabled:         s.Enabled,
				ScaleMax:        s.ScaleMax,
			}
		}
	}
	return ec
}

// ProviderOptions returns the HTTP source options for the configured provider.
func (c *Config) ProviderOptions() provider.Options {
	return provider.Options{
		URL:     c.Provider.URL,
		Token:   c.Provider.Token,
		Timeout: c.Provider.Timeout,
	}
}
