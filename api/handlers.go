package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"podpub/config"
	"podpub/episode"
	"podpub/runner"
	"podpub/runner/storage"
	"podpub/status"
)

// writeDetail writes a JSON error body with a detail message
func writeDetail(w http.ResponseWriter, code int, format string, args ...interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"detail": fmt.Sprintf(format, args...),
	})
}

// GetEpisodes returns the podcast config and all episode summaries
func GetEpisodes(reporter *status.Reporter, podcast *config.Podcast) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		episodes, err := reporter.ListEpisodes()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to list episodes: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"podcast":  podcast,
			"episodes": episodes,
		})
	}
}

// GetEpisode returns a single episode summary by slug
func GetEpisode(reporter *status.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Parse slug from URL: /api/episodes/:slug
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(pathParts) < 3 {
			writeDetail(w, http.StatusBadRequest, "Invalid path")
			return
		}
		slug := pathParts[2]

		summary, err := reporter.EpisodeStatus(slug)
		if err != nil {
			if errors.Is(err, episode.ErrNotFound) {
				writeDetail(w, http.StatusNotFound, "Episode '%s' not found", slug)
				return
			}
			writeDetail(w, http.StatusInternalServerError, "Failed to build status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// GetStatus returns the workspace-wide asset rollup
func GetStatus(reporter *status.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rollup, err := reporter.Overview()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to build status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rollup)
	}
}

// GetRuns returns the most recent publish runs across all episodes
func GetRuns(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		runs, err := store.RecentRuns(100)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to get runs: %v", err)
			return
		}
		if runs == nil {
			runs = []*storage.Run{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	}
}

// GetRun returns a single run with its step records
func GetRun(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Parse run ID from URL: /api/runs/:id
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(pathParts) < 3 {
			writeDetail(w, http.StatusBadRequest, "Invalid path")
			return
		}
		runID := pathParts[2]

		run, err := store.GetRun(runID)
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Run not found: %v", err)
			return
		}

		records, err := store.RecordsForRun(runID)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Failed to get step records: %v", err)
			return
		}
		if records == nil {
			records = []*storage.StepRecord{}
		}

		type runResponse struct {
			Run     *storage.Run          `json:"run"`
			Records []*storage.StepRecord `json:"records"`
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runResponse{Run: run, Records: records})
	}
}

// PostPublish triggers the publish pipeline for an episode and returns the
// result with the episode's refreshed summary
func PostPublish(root string, run *runner.Runner, reporter *status.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Slug  string   `json:"slug"`
			Steps []string `json:"steps,omitempty"`
			Force bool     `json:"force,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request: %v", err)
			return
		}
		if req.Slug == "" {
			writeDetail(w, http.StatusBadRequest, "slug is required")
			return
		}

		ep, err := episode.Find(root, req.Slug)
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Episode '%s' not found", req.Slug)
			return
		}

		log.Printf("🚀 Triggering publish for %s", req.Slug)

		result, err := run.Publish(context.Background(), ep, runner.Options{
			Steps: req.Steps,
			Force: req.Force,
		})
		if err != nil {
			var cfgErr *runner.ConfigError
			if errors.As(err, &cfgErr) {
				writeDetail(w, http.StatusBadRequest, "%v", err)
				return
			}
			writeDetail(w, http.StatusInternalServerError, "%v", err)
			return
		}

		summary, err := reporter.EpisodeStatus(req.Slug)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Publish succeeded but status refresh failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"run_id":  result.RunID,
			"status":  result.Status,
			"steps":   result.Steps,
			"episode": summary,
		})
	}
}
