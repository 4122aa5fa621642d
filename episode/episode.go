package episode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound reports that no episode directory exists for a slug
var ErrNotFound = errors.New("not found")

// Meta holds the [episode] table of metadata.toml
type Meta struct {
	Number      int               `toml:"number" json:"number,omitempty"`
	Title       string            `toml:"title" json:"title"`
	Description string            `toml:"description" json:"description"`
	Tags        []string          `toml:"tags" json:"tags,omitempty"`
	Guests      map[string]string `toml:"guests" json:"guests,omitempty"`
}

// Files holds the [files] table (input file overrides)
type Files struct {
	Video string `toml:"video" json:"video,omitempty"`
}

// Targets holds the [publish] table (which channels this episode goes to)
type Targets struct {
	YouTube bool   `toml:"youtube" json:"youtube"`
	Spotify bool   `toml:"spotify" json:"spotify"`
	Apple   bool   `toml:"apple" json:"apple"`
	Date    string `toml:"date" json:"date,omitempty"`
}

// YouTube holds the [youtube] table (upload settings)
type YouTube struct {
	Privacy     string   `toml:"privacy" json:"privacy,omitempty"`
	CategoryID  string   `toml:"category_id" json:"category_id,omitempty"`
	Tags        []string `toml:"tags" json:"tags,omitempty"`
	Playlist    string   `toml:"playlist" json:"playlist,omitempty"`
	MadeForKids bool     `toml:"made_for_kids" json:"made_for_kids"`
}

// Feed holds the [podcast] table (per-episode feed extras)
type Feed struct {
	Season      int    `toml:"season" json:"season,omitempty"`
	EpisodeType string `toml:"episode_type" json:"episode_type,omitempty"`
}

// Metadata is the full metadata.toml document for one episode
type Metadata struct {
	Episode Meta    `toml:"episode" json:"episode"`
	Files   Files   `toml:"files" json:"files"`
	Publish Targets `toml:"publish" json:"publish"`
	YouTube YouTube `toml:"youtube" json:"youtube"`
	Podcast Feed    `toml:"podcast" json:"podcast"`
}

// Episode is one episode directory with its parsed metadata
type Episode struct {
	Slug string
	Dir  string
	Meta Metadata
}

// Load reads an episode from its directory
func Load(dir string) (*Episode, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve episode dir: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("episode directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("episode path is not a directory: %s", abs)
	}

	metaPath := filepath.Join(abs, "metadata.toml")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("no metadata.toml in %s: %w", abs, err)
	}

	var meta Metadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", metaPath, err)
	}

	ep := &Episode{
		Slug: filepath.Base(abs),
		Dir:  abs,
		Meta: meta,
	}

	if strings.TrimSpace(ep.Meta.Episode.Title) == "" {
		return nil, fmt.Errorf("metadata.toml in %s has no episode title", ep.Slug)
	}

	return ep, nil
}

// VideoPath returns the path to the episode's video input.
// Defaults to video.mp4 unless overridden in [files].
func (e *Episode) VideoPath() string {
	name := e.Meta.Files.Video
	if name == "" {
		name = "video.mp4"
	}
	return filepath.Join(e.Dir, name)
}

// AudioPath returns the path to the extracted audio artifact
func (e *Episode) AudioPath() string {
	return filepath.Join(e.Dir, "audio.mp3")
}

// TranscriptPath returns the path to the transcript artifact
func (e *Episode) TranscriptPath() string {
	return filepath.Join(e.Dir, "transcript.md")
}

// ShowNotesPath returns the path to the show notes artifact
func (e *Episode) ShowNotesPath() string {
	return filepath.Join(e.Dir, "show-notes.md")
}

// YouTubeURLPath returns the path of the marker file holding the uploaded video URL
func (e *Episode) YouTubeURLPath() string {
	return filepath.Join(e.Dir, "youtube.url")
}

// HasVideo reports whether the video input exists on disk
func (e *Episode) HasVideo() bool { return exists(e.VideoPath()) }

// HasAudio reports whether the audio artifact exists on disk
func (e *Episode) HasAudio() bool { return exists(e.AudioPath()) }

// HasTranscript reports whether the transcript artifact exists on disk
func (e *Episode) HasTranscript() bool { return exists(e.TranscriptPath()) }

// HasShowNotes reports whether the show notes artifact exists on disk
func (e *Episode) HasShowNotes() bool { return exists(e.ShowNotesPath()) }

// HasYouTubeURL reports whether the upload marker exists on disk
func (e *Episode) HasYouTubeURL() bool { return exists(e.YouTubeURLPath()) }

// YouTubeURL returns the recorded video URL, or "" if the episode was never uploaded
func (e *Episode) YouTubeURL() string {
	data, err := os.ReadFile(e.YouTubeURLPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List returns all episodes under <root>/episodes, sorted by ordinal number
// then slug. Directories without a readable metadata.toml are skipped.
func List(root string) ([]*Episode, error) {
	epRoot := filepath.Join(root, "episodes")
	entries, err := os.ReadDir(epRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Episode{}, nil
		}
		return nil, fmt.Errorf("failed to read episodes directory: %w", err)
	}

	episodes := make([]*Episode, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ep, err := Load(filepath.Join(epRoot, entry.Name()))
		if err != nil {
			continue
		}
		episodes = append(episodes, ep)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if a.Meta.Episode.Number != b.Meta.Episode.Number {
			// Unnumbered episodes sort after numbered ones
			if a.Meta.Episode.Number == 0 {
				return false
			}
			if b.Meta.Episode.Number == 0 {
				return true
			}
			return a.Meta.Episode.Number < b.Meta.Episode.Number
		}
		return a.Slug < b.Slug
	})

	return episodes, nil
}

// Find returns the episode with the given slug, or an error if it doesn't exist
func Find(root, slug string) (*Episode, error) {
	dir := filepath.Join(root, "episodes", slug)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("episode '%s': %w", slug, ErrNotFound)
	}
	return Load(dir)
}
