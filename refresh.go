package almanac

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// watchDebounce groups bursts of file events, as editors write a file in
// several steps.
const watchDebounce = 300 * time.Millisecond

func (a *App) startRefreshers() error {
	if a.Config.RefreshSchedule != "" {
		a.cron = cron.New(cron.WithLocation(a.Config.Location()))
		if _, err := a.cron.AddFunc(a.Config.RefreshSchedule, func() {
			_ = a.Refresh()
		}); err != nil {
			return fmt.Errorf("almanac: schedule refresh: %w", err)
		}
		a.cron.Start()
		a.log.Info("scheduled refresh", zap.String("schedule", a.Config.RefreshSchedule))
	}
	if dir, ok := a.source.(*DirStore); ok && a.Config.Dev {
		if err := a.watch(dir.Root()); err != nil {
			return fmt.Errorf("almanac: watch content: %w", err)
		}
	}
	return nil
}

func (a *App) stopRefreshers() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
		a.cron = nil
	}
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
}

// watch refreshes the App whenever a markdown file below root changes.
func (a *App) watch(root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		w.Close()
		return err
	}
	a.watcher = w
	go a.watchLoop(w)
	a.log.Info("watching content", zap.String("dir", root))
	return nil
}

func (a *App) watchLoop(w *fsnotify.Watcher) {
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.Add(event.Name)
				}
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if ext != ".md" && ext != ".markdown" {
				continue
			}
			a.log.Debug("content changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			pending = time.After(watchDebounce)
		case <-pending:
			pending = nil
			_ = a.Refresh()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			a.log.Warn("watcher error", zap.Error(err))
		}
	}
}
