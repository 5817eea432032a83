package monitor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const reloadEvents = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// WatchFiles requests a reload whenever one of files changes. The parent
// directories are watched so that editors replacing a file are noticed.
func (m *Monitor) WatchFiles(ctx context.Context, files ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		m.logger.WithField("file", abs).Info("Watching file for changes")
	}
	if len(watched) == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] || event.Op&reloadEvents == 0 {
				continue
			}
			m.logger.WithFields(log.Fields{"file": event.Name, "op": event.Op.String()}).Info("Watched file changed, requesting reload")
			m.Wake(WakeReload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.WithError(err).Error("Error happened when watching files")
		}
	}
}
