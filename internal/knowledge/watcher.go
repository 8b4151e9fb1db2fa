package knowledge

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SeedWatcher watches a seed directory and repopulates the knowledge base
// when seed files change, so curated data can be edited without restarting
// the assistant.
type SeedWatcher struct {
	dir      string
	service  *Service
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSeedWatcher creates a watcher over dir feeding service.
func NewSeedWatcher(dir string, service *Service) (*SeedWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &SeedWatcher{
		dir:      dir,
		service:  service,
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Start begins watching. Reloads are debounced: a burst of writes from an
// editor triggers a single repopulation.
func (w *SeedWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

func (w *SeedWatcher) run(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("seed watcher error: %v", err)
		case <-ticker.C:
			w.mu.Lock()
			pending := w.pending
			w.pending = false
			w.mu.Unlock()
			if !pending {
				continue
			}
			log.Printf("seed files changed, repopulating knowledge base")
			if err := w.service.Populate(ctx, w.dir); err != nil {
				log.Printf("seed reload failed: %v", err)
			}
		}
	}
}

// Stop stops watching and waits for the reload goroutine to exit.
func (w *SeedWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
