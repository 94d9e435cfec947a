package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	on := true
	cfg := DefaultConfig()
	cfg.Refresh.Interval = 5
	cfg.Provider.Token = "${METRICS_TOKEN}"
	cfg.Surfaces["network"] = SurfaceConfig{Interval: 10, Enabled: &on, ScaleMax: 500}

	require.NoError(t, Write(path, cfg, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 5")
	assert.Contains(t, string(data), "scale_max: 500")

	t.Setenv("METRICS_TOKEN", "abc")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Refresh.Interval)
	assert.Equal(t, "abc", loaded.Provider.Token)
	assert.Equal(t, 10, loaded.Surfaces["network"].Interval)
}

func TestWrite_OmitsEmptySurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	require.NoError(t, Write(path, DefaultConfig(), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "surfaces")
}

func TestWrite_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	err := Write(path, DefaultConfig(), false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, Write(path, DefaultConfig(), true))
	data, _ := os.ReadFile(path)
	assert.NotEqual(t, "keep", string(data))
}

func TestWrite_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := DefaultConfig()
	cfg.Refresh.Interval = 0

	assert.Error(t, Write(path, cfg, false))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, "", ExpandTilde(""))
	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "a/b"), ExpandTilde("~/a/b"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
}

func TestExpand(t *testing.T) {
	t.Setenv("PULSE_TEST_VAR", "v")

	assert.Equal(t, "plain", Expand("plain"))
	assert.Equal(t, "a-v-b", Expand("a-${PULSE_TEST_VAR}-b"))
	assert.Equal(t, "x", Expand("x${PULSE_TEST_UNSET}"))
}
