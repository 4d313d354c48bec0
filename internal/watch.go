package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay gives a copy in progress time to finish before upload
const DefaultSettleDelay = 500 * time.Millisecond

// FileHandler processes one new media file
type FileHandler func(ctx context.Context, path string) error

// FolderWatcher uploads media files as they appear in a directory
type FolderWatcher struct {
	dir       string
	handler   FileHandler
	logger    Logger
	watcher   *fsnotify.Watcher
	semaphore chan struct{}
	settle    time.Duration
	wg        sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewFolderWatcher watches dir, running handler for at most maxConcurrent files at once
func NewFolderWatcher(dir string, maxConcurrent int, settle time.Duration, handler FileHandler, logger Logger) (*FolderWatcher, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &FolderWatcher{
		dir:       dir,
		handler:   handler,
		logger:    logger,
		watcher:   w,
		semaphore: make(chan struct{}, maxConcurrent),
		settle:    settle,
		inFlight:  make(map[string]bool),
	}, nil
}

// Start blocks, dispatching new media files until ctx is done. Handler
// failures are logged and never stop the watcher.
func (w *FolderWatcher) Start(ctx context.Context) error {
	w.logger.Infof("watching %s (max concurrent: %d)", w.dir, cap(w.semaphore))

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("waiting for running uploads to finish")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !IsMediaFile(event.Name) {
				w.logger.Debugf("ignoring non-media file %s", event.Name)
				continue
			}
			if !w.claim(event.Name) {
				continue
			}

			select {
			case w.semaphore <- struct{}{}:
			case <-ctx.Done():
				w.release(event.Name)
				w.wg.Wait()
				return ctx.Err()
			}

			w.wg.Add(1)
			go w.handle(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Errorf("watcher error: %v", err)
		}
	}
}

func (w *FolderWatcher) handle(ctx context.Context, path string) {
	defer w.wg.Done()
	defer func() { <-w.semaphore }()
	defer w.release(path)

	select {
	case <-time.After(w.settle):
	case <-ctx.Done():
		return
	}

	w.logger.Infof("new media file %s", path)
	if err := w.handler(ctx, path); err != nil {
		w.logger.Errorf("processing %s: %v", path, err)
	}
}

// claim marks path as being processed; false if it already is
func (w *FolderWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[path] {
		return false
	}
	w.inFlight[path] = true
	return true
}

func (w *FolderWatcher) release(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}

// Stop closes the underlying watcher
func (w *FolderWatcher) Stop() error {
	return w.watcher.Close()
}
