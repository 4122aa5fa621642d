// Package status answers "what is the state of each step for each episode"
// for the CLI and the dashboard. Summaries are built from the episode
// directory and the status store at call time; nothing is cached, since the
// dashboard re-fetches after every publish.
package status

import (
	"podpub/episode"
	"podpub/runner/steps"
	"podpub/runner/storage"
)

// Assets flags which artifacts exist for an episode
type Assets struct {
	Video      bool `json:"video"`
	Audio      bool `json:"audio"`
	Transcript bool `json:"transcript"`
	ShowNotes  bool `json:"show_notes"`
}

// EpisodeSummary aggregates metadata, asset flags, and the latest step
// outcomes for one episode
type EpisodeSummary struct {
	Slug           string            `json:"slug"`
	Number         int               `json:"number,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Tags           []string          `json:"tags,omitempty"`
	Assets         Assets            `json:"assets"`
	PublishTargets episode.Targets   `json:"publish_targets"`
	YouTubeURL     string            `json:"youtube_url,omitempty"`
	Steps          map[string]string `json:"pipeline_steps"`
}

// Reporter reads episode status from disk and the store
type Reporter struct {
	root  string
	store *storage.Storage
}

// NewReporter creates a reporter for a workspace
func NewReporter(root string, store *storage.Storage) *Reporter {
	return &Reporter{root: root, store: store}
}

// ListEpisodes returns a summary per episode, sorted by number then slug
func (r *Reporter) ListEpisodes() ([]*EpisodeSummary, error) {
	episodes, err := episode.List(r.root)
	if err != nil {
		return nil, err
	}

	summaries := make([]*EpisodeSummary, 0, len(episodes))
	for _, ep := range episodes {
		summary, err := r.summarize(ep)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// EpisodeStatus returns the summary for one episode by slug
func (r *Reporter) EpisodeStatus(slug string) (*EpisodeSummary, error) {
	ep, err := episode.Find(r.root, slug)
	if err != nil {
		return nil, err
	}
	return r.summarize(ep)
}

func (r *Reporter) summarize(ep *episode.Episode) (*EpisodeSummary, error) {
	latest, err := r.store.LatestOutcomes(ep.Slug)
	if err != nil {
		return nil, err
	}

	stepStatus := make(map[string]string, len(steps.CanonicalOrder))
	for _, name := range steps.CanonicalOrder {
		if rec, ok := latest[name]; ok {
			stepStatus[name] = rec.Outcome
		}
	}

	return &EpisodeSummary{
		Slug:        ep.Slug,
		Number:      ep.Meta.Episode.Number,
		Title:       ep.Meta.Episode.Title,
		Description: ep.Meta.Episode.Description,
		Tags:        ep.Meta.Episode.Tags,
		Assets: Assets{
			Video:      ep.HasVideo(),
			Audio:      ep.HasAudio(),
			Transcript: ep.HasTranscript(),
			ShowNotes:  ep.HasShowNotes(),
		},
		PublishTargets: ep.Meta.Publish,
		YouTubeURL:     ep.YouTubeURL(),
		Steps:          stepStatus,
	}, nil
}

// Rollup summarizes asset coverage across the whole workspace
type Rollup struct {
	TotalEpisodes  int `json:"total_episodes"`
	WithAudio      int `json:"with_audio"`
	WithTranscript int `json:"with_transcript"`
	WithShowNotes  int `json:"with_show_notes"`
}

// Overview returns asset coverage counts for the dashboard status panel
func (r *Reporter) Overview() (*Rollup, error) {
	summaries, err := r.ListEpisodes()
	if err != nil {
		return nil, err
	}

	rollup := &Rollup{TotalEpisodes: len(summaries)}
	for _, s := range summaries {
		if s.Assets.Audio {
			rollup.WithAudio++
		}
		if s.Assets.Transcript {
			rollup.WithTranscript++
		}
		if s.Assets.ShowNotes {
			rollup.WithShowNotes++
		}
	}
	return rollup, nil
}
