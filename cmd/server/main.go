/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the worktime engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire the entry, quota and balance services
  4. Configure HTTP router and start the change watcher
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port        HTTP server port (default: 8080)
  -db          SQLite database path (default: worktime.db)
               Use ":memory:" for an in-memory database
  -authz       Optional JSON file with manager and peer-review maps
  -grace-days  Working-day grace window for late entries (default: 2)

AUTHORIZATION FILE:
  {
    "managers":    {"mgr-1": ["emp-1", "emp-2"]},
    "peer_review": {"emp-1": true}
  }
  Without a file only admins (X-Actor-Role: admin) hold management
  authority and nobody requires peer review.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the change watcher and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/worktime.db"

  # Run with in-memory database and a wider grace window
  ./server -db=":memory:" -grace-days=5

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/worktime-engine/api"
	"github.com/warp/worktime-engine/balance"
	"github.com/warp/worktime-engine/quota"
	"github.com/warp/worktime-engine/store/sqlite"
	"github.com/warp/worktime-engine/worktime"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "worktime.db", "SQLite database path")
	authzPath := flag.String("authz", "", "JSON file with manager/peer-review maps")
	graceDays := flag.Int("grace-days", 2, "working-day grace window for late entries")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Organizational authority
	auth, err := loadAuthority(*authzPath)
	if err != nil {
		log.Fatalf("Failed to load authorization file: %v", err)
	}

	// Services
	feed := worktime.NewChannelFeed(256)
	entries := &worktime.Service{
		Entries: store,
		History: store,
		Auth:    auth,
		Grace:   worktime.GracePolicy{WorkingDays: *graceDays},
		Feed:    feed,
	}
	quotas := &quota.Service{Store: store, Auth: auth, Feed: feed}
	calc := &balance.Calculator{
		Entries:     store,
		Absences:    store,
		Models:      store,
		Adjustments: store,
	}

	// Change watcher (log-only consumer; push integrations hook in here)
	watcher := api.NewWatcher(feed, nil)
	watcher.Start()
	defer watcher.Stop()

	// Router
	handler := api.NewHandler(entries, quotas, calc, store, store)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// authzFile is the on-disk shape of the organizational maps.
type authzFile struct {
	Managers   map[worktime.UserID][]worktime.UserID `json:"managers"`
	PeerReview map[worktime.UserID]bool              `json:"peer_review"`
}

func loadAuthority(path string) (*worktime.StaticAuthority, error) {
	if path == "" {
		return &worktime.StaticAuthority{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f authzFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &worktime.StaticAuthority{
		Managers:   f.Managers,
		PeerReview: f.PeerReview,
	}, nil
}
