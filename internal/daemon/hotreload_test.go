package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/audiokeep/internal/config"
)

func startWatcher(t *testing.T, path string) (*ConfigWatcher, chan *config.DaemonConfig, chan error) {
	t.Helper()

	reloaded := make(chan *config.DaemonConfig, 4)
	failed := make(chan error, 4)

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(20 * time.Millisecond)
	w.SetReloadCallback(func(cfg *config.DaemonConfig) { reloaded <- cfg })
	w.SetErrorCallback(func(err error) { failed <- err })

	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	t.Cleanup(w.Stop)
	return w, reloaded, failed
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiokeepd.toml")
	w, reloaded, _ := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nstrategy = \"burst\"\n"), 0600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, config.StrategyBurst, cfg.Audio.Strategy)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
	assert.Equal(t, config.StrategyBurst, w.GetCurrentConfig().Audio.Strategy)
}

func TestConfigWatcher_KeepsConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiokeepd.toml")
	w, _, failed := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nstrategy = \"loud\"\n"), 0600))

	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "invalid strategy")
	case <-time.After(3 * time.Second):
		t.Fatal("invalid config was not reported")
	}
	assert.Equal(t, config.StrategyContinuous, w.GetCurrentConfig().Audio.Strategy)
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, reloaded, failed := startWatcher(t, filepath.Join(dir, "audiokeepd.toml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("junk ["), 0600))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload")
	case <-failed:
		t.Fatal("unexpected error")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "audiokeepd.toml"), nil)
	w.Stop()

	require.NoError(t, w.Start(context.Background(), nil))
	w.Stop()
	w.Stop()
}
