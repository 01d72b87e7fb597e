package markzap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchDocument reloads doc whenever its file changes on disk and calls
// onChange after a reload that changed the content. The directory is watched
// rather than the file, editors often save by replacing the file. It blocks
// until ctx is done.
func WatchDocument(ctx context.Context, doc *Document, onChange func()) error {
	if doc.Path() == "" {
		<-ctx.Done()
		return nil
	}
	target, err := filepath.Abs(doc.Path())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("File watcher error")
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name, err := filepath.Abs(evt.Name); err != nil || name != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			changed, err := doc.Reload()
			if err != nil {
				// A rename away is followed by a create, try again then.
				logger.WithError(err).WithField("path", evt.Name).Debug("Reload failed")
				continue
			}
			if changed {
				logger.WithField("path", evt.Name).Infof("File %s changed, rerendering...", evt.Name)
				if onChange != nil {
					onChange()
				}
			}
		}
	}
}
