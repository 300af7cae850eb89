package nav

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ArtistStudio/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleNav), 0o644))

	initial, err := LoadResolver(path)
	require.NoError(t, err)
	h := NewHolder(initial)
	assert.False(t, h.Current().Visible(model.RoleUser, "home"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, h, nil) }()

	// 等待 watcher 就绪
	time.Sleep(50 * time.Millisecond)
	updated := "permissions:\n  user: [home]\n" + sampleNav[len("\npermissions:\n"):]
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return h.Current().Visible(model.RoleUser, "home")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleNav), 0o644))
	initial, err := LoadResolver(path)
	require.NoError(t, err)
	h := NewHolder(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 1)
	go func() { _ = Watch(ctx, path, h, func(*Resolver) { reloaded <- struct{}{} }) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("routes: [\n"), 0o644))
	time.Sleep(400 * time.Millisecond)

	assert.Same(t, initial, h.Current())
	assert.Empty(t, reloaded)
}

func TestWatchRequiresPath(t *testing.T) {
	assert.Error(t, Watch(context.Background(), "", NewHolder(nil), nil))
}
