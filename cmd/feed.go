package cmd

import (
	"context"
	"fmt"
	"os"

	"podpub/runner/steps"
)

// Feed regenerates the podcast feed from the current working directory's
// workspace without running any other pipeline step
func Feed() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	feedURL, err := steps.RegenerateFeed(context.Background(), root)
	if err != nil {
		return err
	}

	fmt.Printf("RSS feed updated: %s\n", steps.FeedPath(root))
	fmt.Printf("Feed URL: %s\n", feedURL)
	return nil
}
