package progress

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"ralph/internal/logging"
)

// Reader serves the progress log with a parse cache. The outer loop appends
// to the log between iterations, so the cache is invalidated by an fsnotify
// watcher on the file; if the watcher cannot be established the Reader
// simply re-reads on every call.
type Reader struct {
	path   string
	logger *logging.Logger

	mu      sync.Mutex
	content string
	parsed  Parsed
	valid   bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewReader(path string, logger *logging.Logger) *Reader {
	r := &Reader{
		path:   path,
		logger: logging.OrNop(logger),
		done:   make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Debug("progress watcher unavailable, caching disabled: %v", err)
		return r
	}
	// Watch the directory, not the file: atomic rewrites replace the inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		r.logger.Debug("progress watcher add failed, caching disabled: %v", err)
		_ = watcher.Close()
		return r
	}
	r.watcher = watcher

	go r.watch()
	return r
}

// Content returns the raw log, served from cache when the file has not
// changed since the last read.
func (r *Reader) Content() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil && r.valid {
		return r.content, nil
	}

	content, err := Read(r.path)
	if err != nil {
		return "", err
	}
	r.content = content
	r.parsed = Parse(content)
	r.valid = true
	return content, nil
}

// Parsed returns the structured view, sharing Content's cache.
func (r *Reader) Parsed() (Parsed, error) {
	if _, err := r.Content(); err != nil {
		return Parsed{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parsed, nil
}

// Invalidate forces the next read to hit disk. Compaction calls this after
// rewriting the log in-process.
func (r *Reader) Invalidate() {
	r.mu.Lock()
	r.valid = false
	r.mu.Unlock()
}

func (r *Reader) Close() error {
	close(r.done)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

func (r *Reader) watch() {
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Name == r.path {
				r.Invalidate()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Debug("progress watcher error: %v", err)
		}
	}
}
