/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the claims engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load the checklist catalog (built-in defaults or a JSON file)
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: claims.db)
            Use ":memory:" for in-memory database
  -catalog  Optional JSON file mapping claim cause to checklist labels:
            {"ROBO EN VIA PUBLICA": ["DNI", "DENUNCIA POLICIAL", ...]}
            When omitted, the built-in catalog is used.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/claims.db"

  # Run with a custom checklist catalog
  ./server -catalog="./config/checklist.json"

  # Run on different port
  ./server -port=3000

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

	"github.com/warp/claims-engine/api"
	"github.com/warp/claims-engine/claims"
	"github.com/warp/claims-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "claims.db", "SQLite database path")
	catalogPath := flag.String("catalog", "", "JSON file mapping claim cause to checklist labels")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Checklist catalog
	gate, err := loadGate(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load checklist catalog: %v", err)
	}

	// Initialize handler
	handler := api.NewHandler(store, gate)

	// Create router
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
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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

// loadGate builds the checklist gate, from a JSON catalog file when one
// is configured and the built-in defaults otherwise.
func loadGate(path string) (*claims.Gate, error) {
	if path == "" {
		return claims.NewGate(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog map[string][]string
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	log.Printf("Loaded checklist catalog with %d causes from %s", len(catalog), path)
	return claims.NewGate(catalog), nil
}
