package rules

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the rules file whenever it changes until ctx is done.
// The parent directory is watched so that atomic renames are seen.
func (p *Provider) Watch(ctx context.Context, logger *slog.Logger) error {
	if p.path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(p.path)
	if err != nil {
		_ = fsw.Close()
		return err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return err
	}

	go func() {
		defer func() { _ = fsw.Close() }()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Rules watcher error", "error", err)
			case <-fire:
				fire = nil
				if err := p.Reload(); err != nil {
					logger.Warn("Rules reload failed, keeping previous rules", "path", p.path, "error", err)
					continue
				}
				logger.Info("Rules reloaded", "path", p.path, "fingerprint", p.Fingerprint())
			}
		}
	}()

	logger.Info("Rules watcher started", "path", p.path)
	return nil
}
