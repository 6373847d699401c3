package cmd

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReload(t *testing.T) {
	defer log.SetGlobalDebug(false)

	cat, err := core.NewCatalog(nil)
	require.NoError(t, err)
	coord := coordinator.New(cat, core.TransportFunc(func(context.Context, core.Request) ([]byte, error) {
		return nil, nil
	}), core.ParserFunc(func([]byte) ([]string, error) { return nil, nil }))
	defer coord.Close()

	applyReload(coord, &config.Config{RequestTimeout: config.Duration{Duration: 4 * time.Second}, Debug: true}, false)
	assert.Equal(t, 4*time.Second, coord.RequestTimeout())
	assert.True(t, log.GlobalDebug())

	applyReload(coord, &config.Config{}, false)
	assert.Equal(t, coordinator.DefaultRequestTimeout, coord.RequestTimeout())
	assert.False(t, log.GlobalDebug())

	applyReload(coord, &config.Config{}, true)
	assert.True(t, log.GlobalDebug(), "--debug wins over the file")
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`request_timeout = "1s"`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	var reloads atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchConfig(ctx, path, func() { reloads.Add(1) })
	}()

	// Give the watcher time to register the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`request_timeout = "2s"`), 0644))

	require.Eventually(t, func() bool { return reloads.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestInitConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "gsuggest", "config.toml")

	require.NoError(t, initConfig(path, false))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultParser, cfg.Parser)

	assert.Error(t, initConfig(path, false))
	assert.NoError(t, initConfig(path, true))
}
