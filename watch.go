package podpacker

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bodgit/podpacker/ogmo"
	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reports changes to level files in a set of directories
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching dirs for level file changes
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes the Events and Errors channels
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func isLevelFile(path string) bool {
	base := filepath.Base(path)
	return base[0] != '.' && strings.ToLower(filepath.Ext(base)) == ogmo.Ext
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isLevelFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Watch calls rebuild once and then again after every change to a level
// file in dirs until ctx is cancelled. A failed rebuild is logged and the
// watch carries on.
func (p *Packer) Watch(ctx context.Context, dirs []string, rebuild func() error) error {
	w, err := NewWatcher(dirs...)
	if err != nil {
		return err
	}
	defer w.Close()

	build := func() {
		if err := rebuild(); err != nil {
			p.logger.WithError(err).Error("Rebuild failed, nothing written")
			return
		}
		p.logger.Info("Rebuilt chunks")
	}

	build()

	var timer <-chan time.Time
	for {
		select {
		case name := <-w.Events:
			p.logger.WithField("file", name).Debug("Level changed")
			// Editors tend to touch several files at once, wait for them to settle
			timer = time.After(debounce)
		case <-timer:
			timer = nil
			build()
		case err := <-w.Errors:
			p.logger.WithError(err).Warn("Watch error")
		case <-ctx.Done():
			return nil
		}
	}
}
