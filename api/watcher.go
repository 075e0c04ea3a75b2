/*
watcher.go - Change feed consumer

PURPOSE:
  Drains the engine's change feed in a background goroutine. Every
  successful transition publishes the affected user id; the watcher
  coalesces those into per-user callbacks so push consumers (websocket
  broadcasters, cache invalidation, audit log shippers) can re-fetch and
  recompute without polling.

DESIGN:
  - The feed carries no payload, only "user X changed". Consumers always
    recompute from the store, so dropped events under load are harmless:
    the next event triggers the same recomputation.
  - Stop waits for the goroutine to finish so shutdown is clean.

USAGE:
  feed := worktime.NewChannelFeed(256)
  watcher := api.NewWatcher(feed, func(user worktime.UserID) {
      log.Printf("state changed for %s", user)
  })
  watcher.Start()
  // ... later
  watcher.Stop()

SEE ALSO:
  - worktime/store.go: Feed and ChannelFeed
*/
package api

import (
	"log"
	"sync"

	"github.com/warp/worktime-engine/worktime"
)

// Watcher consumes the change feed and invokes a callback per event.
type Watcher struct {
	Feed    *worktime.ChannelFeed
	OnEvent func(worktime.UserID)

	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex

	running bool
}

// NewWatcher creates a watcher over the given feed. OnEvent may be nil,
// in which case events are logged and discarded.
func NewWatcher(feed *worktime.ChannelFeed, onEvent func(worktime.UserID)) *Watcher {
	return &Watcher{
		Feed:    feed,
		OnEvent: onEvent,
		stop:    make(chan struct{}),
	}
}

// Start launches the background consumer. Starting twice is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.stop:
				return
			case user := <-w.Feed.C:
				w.handle(user)
			}
		}
	}()
	log.Println("Change watcher started")
}

// Stop signals the consumer and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
	w.wg.Wait()
	log.Println("Change watcher stopped")
}

func (w *Watcher) handle(user worktime.UserID) {
	if w.OnEvent == nil {
		log.Printf("state changed for user %s", user)
		return
	}
	w.OnEvent(user)
}
