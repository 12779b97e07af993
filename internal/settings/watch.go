package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/logging"
)

// DefaultDebounce is the time Watch waits after the last change to
// settings.json before emitting.
const DefaultDebounce = 500 * time.Millisecond

// Watch emits event.TopicSettingsChanged on sink, with the file path as the
// line, whenever settings.json is written or replaced. Bursts of changes
// are collapsed into one event. The store directory must exist. Watching
// stops when ctx is done.
func (s *Store) Watch(ctx context.Context, sink event.Sink) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched so atomic replaces are seen.
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	debounce := s.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	go s.watchLoop(ctx, watcher, debounce, sink)
	slog.Info("Store.Watch: watching settings", "component", "settings", "dir", s.dir)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, sink event.Sink) {
	defer logging.LogPanic("settings-watch", nil)
	defer watcher.Close()

	log := slog.With("component", "settings")
	path := s.Path(SettingsFile)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
		stopped bool
	)
	trigger := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			timerMu.Lock()
			done := stopped
			timerMu.Unlock()
			if !done {
				sink.Emit(event.TopicSettingsChanged, path)
			}
		})
	}
	defer func() {
		timerMu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != SettingsFile {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("Store.Watch: settings changed", "op", ev.Op.String())
			trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error("Store.Watch: watcher error", "error", err)
		}
	}
}
