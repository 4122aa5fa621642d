package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"podpub/api"
	"podpub/config"
	"podpub/events"
	"podpub/runner"
	"podpub/status"
)

// Serve starts the dashboard HTTP server. The current working directory is
// the workspace root.
func Serve() error {
	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load()

	// Get port from environment variable or use default
	port := getEnv("PORT", "8080")

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	store, err := openStorage(root)
	if err != nil {
		return err
	}
	defer store.Close()

	podcast, err := config.LoadPodcast(root)
	if err != nil {
		log.Printf("Warning: %v", err)
		podcast = &config.Podcast{}
	} else {
		log.Printf("🎙  Serving dashboard for '%s'", podcast.Title)
	}

	tools, err := config.LoadTools(root)
	if err != nil {
		return err
	}

	broker := events.NewBroker()
	run := runner.New(root, store, broker, tools)
	reporter := status.NewReporter(root, store)

	// Setup HTTP routes
	mux := http.NewServeMux()

	// CORS middleware
	corsMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Serve the dashboard build
	webDir := filepath.Join(root, "web", "dist")
	fileServer := http.FileServer(http.Dir(webDir))

	mux.Handle("/assets/", fileServer)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		indexPath := filepath.Join(webDir, "index.html")
		http.ServeFile(w, r, indexPath)
	})

	// API endpoints
	mux.HandleFunc("/api/episodes", api.GetEpisodes(reporter, podcast))
	mux.HandleFunc("/api/episodes/", api.GetEpisode(reporter))
	mux.HandleFunc("/api/status", api.GetStatus(reporter))
	mux.HandleFunc("/api/runs", api.GetRuns(store))
	mux.HandleFunc("/api/runs/", api.GetRun(store))
	mux.HandleFunc("/api/publish", api.PostPublish(root, run, reporter))
	mux.HandleFunc("/api/events", api.SSEHandler(broker))

	serverAddr := ":" + port
	log.Printf("🚀 Starting podpub server on port %s...", port)
	log.Printf("📊 Dashboard: http://localhost:%s", port)

	if err := http.ListenAndServe(serverAddr, corsMiddleware(mux)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
