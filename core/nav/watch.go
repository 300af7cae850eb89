package nav

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"ArtistStudio/logger"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must stay quiet before it is reloaded.
const settleDelay = 100 * time.Millisecond

// Holder publishes the current Resolver to concurrent readers. Only the nav
// lint command reloads; the server keeps the Resolver it started with.
type Holder struct {
	p atomic.Pointer[Resolver]
}

// NewHolder returns a Holder serving r.
func NewHolder(r *Resolver) *Holder {
	h := &Holder{}
	h.p.Store(r)
	return h
}

// Current returns the active Resolver.
func (h *Holder) Current() *Resolver {
	return h.p.Load()
}

// Store replaces the active Resolver.
func (h *Holder) Store(r *Resolver) {
	h.p.Store(r)
}

// Watch reloads path into h whenever it changes until ctx is done. A file that
// fails to load or validate is logged and the previous Resolver stays active.
// onReload, if set, is called after each successful swap.
func Watch(ctx context.Context, path string, h *Holder, onReload func(*Resolver)) error {
	if path == "" {
		return fmt.Errorf("nav: watch needs a file path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("nav: create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录而不是文件，编辑器保存时通常是 rename 替换
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("nav: watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()
	var pendingSince time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pendingSince = time.Now()
			}

		case <-ticker.C:
			if pendingSince.IsZero() || time.Since(pendingSince) < settleDelay {
				continue
			}
			pendingSince = time.Time{}
			r, err := LoadResolver(path)
			if err != nil {
				logger.Warn("[Nav] 导航配置重载失败，保留旧配置",
					logger.String("path", path),
					logger.ErrorField(err))
				continue
			}
			h.Store(r)
			logger.Info("[Nav] 导航配置已重载", logger.String("path", path))
			if onReload != nil {
				onReload(r)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Nav] 文件监听错误", logger.ErrorField(err))
		}
	}
}
