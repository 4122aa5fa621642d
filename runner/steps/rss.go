package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podpub/config"
	"podpub/episode"
	"podpub/feed"
)

// RSSStep regenerates the shared podcast feed from every episode that has
// audio. The step is gated on the episode's [publish] spotify/apple flags;
// its "already done" signal is the episode's guid being present in the
// existing feed document.
type RSSStep struct {
	root string
}

// NewRSSStep creates the feed regeneration step for a workspace
func NewRSSStep(root string) *RSSStep {
	return &RSSStep{root: root}
}

func (s *RSSStep) Name() string { return StepRSS }

// FeedPath returns the generated feed location for a workspace
func FeedPath(root string) string {
	return filepath.Join(root, "feed", "podcast.xml")
}

func (s *RSSStep) Readiness(ep *episode.Episode) Readiness {
	if !ep.Meta.Publish.Spotify && !ep.Meta.Publish.Apple {
		return gated("rss publishing not enabled for this episode")
	}
	if s.inFeed(ep.Slug) {
		return alreadyDone("episode already in feed")
	}
	if !ep.HasAudio() {
		return missingInput("audio.mp3")
	}
	return ready()
}

func (s *RSSStep) inFeed(slug string) bool {
	data, err := os.ReadFile(FeedPath(s.root))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), fmt.Sprintf(`isPermaLink="false">%s<`, slug))
}

func (s *RSSStep) Validate(ep *episode.Episode) error {
	if _, err := config.LoadPodcast(s.root); err != nil {
		return err
	}
	return nil
}

func (s *RSSStep) Run(ctx context.Context, ep *episode.Episode) (string, error) {
	return RegenerateFeed(ctx, s.root)
}

// RegenerateFeed rebuilds the shared feed from every episode with audio and
// returns the public feed URL. Also used directly by the feed subcommand.
func RegenerateFeed(ctx context.Context, root string) (string, error) {
	pc, err := config.LoadPodcast(root)
	if err != nil {
		return "", err
	}

	episodes, err := episode.List(root)
	if err != nil {
		return "", err
	}

	items := make([]feed.Item, 0, len(episodes))
	for _, e := range episodes {
		if !e.HasAudio() {
			continue
		}
		items = append(items, buildItem(ctx, pc, e))
	}

	out, err := feed.Build(pc, items)
	if err != nil {
		return "", err
	}

	feedPath := FeedPath(root)
	if err := os.MkdirAll(filepath.Dir(feedPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create feed directory: %w", err)
	}
	if err := os.WriteFile(feedPath, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write feed: %w", err)
	}

	return pc.Website + "/feed/podcast.xml", nil
}

func buildItem(ctx context.Context, pc *config.Podcast, e *episode.Episode) feed.Item {
	base := pc.MediaBaseURL
	if base == "" {
		base = pc.Website
	}

	it := feed.Item{
		GUID:        e.Slug,
		Title:       e.Meta.Episode.Title,
		Description: e.Meta.Episode.Description,
		AudioURL:    fmt.Sprintf("%s/episodes/%s/audio.mp3", base, e.Slug),
		Number:      e.Meta.Episode.Number,
		Season:      e.Meta.Podcast.Season,
		EpisodeType: e.Meta.Podcast.EpisodeType,
		Published:   time.Now().UTC(),
	}

	if info, err := os.Stat(e.AudioPath()); err == nil {
		it.AudioBytes = info.Size()
	}

	// Duration is best effort; a missing ffprobe just drops the tag
	if seconds, err := ProbeDuration(ctx, e.AudioPath()); err == nil {
		it.Duration = FormatDuration(seconds)
	}

	if notes, err := os.ReadFile(e.ShowNotesPath()); err == nil {
		it.ShowNotes = string(notes)
	}

	if e.Meta.Publish.Date != "" {
		if t, err := time.Parse(time.RFC3339, e.Meta.Publish.Date); err == nil {
			it.Published = t
		} else if t, err := time.Parse("2006-01-02", e.Meta.Publish.Date); err == nil {
			it.Published = t
		}
	}

	return it
}
