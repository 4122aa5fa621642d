package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"podpub/config"
	"podpub/episode"
	"podpub/runner"
	"podpub/runner/storage"
)

// Publish executes the 'publish' command for one episode directory
func Publish(episodeDir string, steps []string, force bool) error {
	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load()

	ep, err := episode.Load(episodeDir)
	if err != nil {
		return err
	}

	// Workspace root is the parent of the episodes/ directory
	root := filepath.Dir(filepath.Dir(ep.Dir))

	store, err := openStorage(root)
	if err != nil {
		return err
	}
	defer store.Close()

	tools, err := config.LoadTools(root)
	if err != nil {
		return err
	}

	fmt.Printf("\nPublishing: %s\n", ep.Meta.Episode.Title)
	fmt.Printf("Directory:  %s\n\n", ep.Dir)

	run := runner.New(root, store, nil, tools)
	result, err := run.Publish(context.Background(), ep, runner.Options{
		Steps:            steps,
		Force:            force,
		StreamToTerminal: true, // Always stream to console for local use
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n📊 Run ID: %s | Status: %s | Duration: %s\n", result.RunID, result.Status, result.Duration)

	return nil
}

// openStorage creates the workspace data directory and opens the status store
func openStorage(root string) (*storage.Storage, error) {
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewStorage(filepath.Join(dataDir, "podpub.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
