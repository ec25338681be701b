package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/livereload-universal/relay/log"
)

// Watcher signals when the configuration file is written or replaced.
type Watcher struct {
	watch        *fsnotify.Watcher
	log          log.Logger
	closed       chan struct{}
	closedOnce   sync.Once
	modified     chan struct{}
	realFilePath string
}

func NewWatcher(filePath string, log log.Logger) (*Watcher, error) {
	fsLog := log.WithPrefix("config-watcher")
	_, err := os.Stat(filePath)
	if err != nil {
		fsLog.Errorf("failed to start watching %s: %s", filePath, err)
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		fsLog.Errorf("failed to create file watcher on %s: %s", filePath, err)
		return nil, err
	}
	dirPath := filepath.Dir(filePath)
	realPath, err := filepath.EvalSymlinks(dirPath)
	if err != nil {
		_ = w.Close()
		fsLog.Errorf("failed to eval symlink for %s: %s", dirPath, err)
		return nil, err
	}
	err = w.Add(realPath)
	if err != nil {
		_ = w.Close()
		fsLog.Errorf("failed to create file watcher on %s: %s", realPath, err)
		return nil, err
	}
	f := &Watcher{
		watch:        w,
		log:          fsLog,
		closed:       make(chan struct{}),
		modified:     make(chan struct{}, 1),
		realFilePath: filepath.Join(realPath, filepath.Base(filePath)),
	}
	fsLog.Reportf("started watching %s", f.realFilePath)
	f.run()
	return f, nil
}

func (f *Watcher) run() {
	go func() {
		for {
			select {
			case event := <-f.watch.Events:
				if event.Name == f.realFilePath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					select {
					case f.modified <- struct{}{}:
					default:
					}
				}
			case err := <-f.watch.Errors:
				if err != nil {
					f.log.Errorf("%s", err)
				}
			case <-f.closed:
				_ = f.watch.Close()
				f.log.Reportf("shutdown complete")
				return
			}
		}
	}()
}

// Modified receives a value after the file changed. Bursts of writes
// collapse into a single signal until it is consumed.
func (f *Watcher) Modified() <-chan struct{} {
	return f.modified
}

func (f *Watcher) Close() {
	f.closedOnce.Do(func() {
		close(f.closed)
	})
}
