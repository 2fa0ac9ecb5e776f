package previewcmder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/frantai/folio/api"
	"github.com/frantai/folio/pkg/profile"
)

// WatchProfile reloads the profile at path into server whenever the file is
// written or replaced, until ctx is done. A file that fails to load is
// logged and the previous profile keeps being served.
//
// The parent directory is watched rather than the file so editors that
// save by renaming a temporary file are picked up.
func WatchProfile(ctx context.Context, path string, server *api.Server, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating profile watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("resolving profile path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}

				p, err := profile.Load(abs)
				if err != nil {
					logger.Warn("keeping previous profile", zap.String("path", abs), zap.Error(err))
					continue
				}
				server.SetProfile(p)
				logger.Info("reloaded profile", zap.String("path", abs))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("profile watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
