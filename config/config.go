package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Podcast holds the show-level settings from podcast.toml
type Podcast struct {
	Title        string `toml:"title" json:"title"`
	Description  string `toml:"description" json:"description"`
	Author       string `toml:"author" json:"author"`
	Email        string `toml:"email" json:"email"`
	Language     string `toml:"language" json:"language"`
	Category     string `toml:"category" json:"category"`
	Explicit     bool   `toml:"explicit" json:"explicit"`
	Website      string `toml:"website" json:"website"`
	MediaBaseURL string `toml:"media_base_url" json:"media_base_url"`
	CoverURL     string `toml:"cover_url" json:"cover_url,omitempty"`
}

type podcastFile struct {
	Podcast Podcast `toml:"podcast"`
}

// LoadPodcast reads podcast.toml from the workspace root
func LoadPodcast(root string) (*Podcast, error) {
	path := filepath.Join(root, "podcast.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no podcast.toml in %s (create it with your podcast info): %w", root, err)
	}

	var pf podcastFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse podcast.toml: %w", err)
	}

	pc := pf.Podcast
	if pc.Title == "" {
		return nil, fmt.Errorf("podcast.toml is missing a title")
	}
	if pc.Language == "" {
		pc.Language = "en"
	}
	if pc.Category == "" {
		pc.Category = "Technology"
	}
	if pc.Website == "" {
		pc.Website = pc.MediaBaseURL
	}
	return &pc, nil
}

// AudioTool configures the ffmpeg extraction step
type AudioTool struct {
	Bitrate    string `yaml:"bitrate"`
	SampleRate int    `yaml:"sample_rate"`
}

// TranscriptTool configures the Whisper transcription step
type TranscriptTool struct {
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	BaseURL        string `yaml:"base_url"`
	ChunkLimitMB   int    `yaml:"chunk_limit_mb"`
	ChunkSeconds   int    `yaml:"chunk_seconds"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotesTool configures the show-notes generation step
type NotesTool struct {
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	MaxTokens      int    `yaml:"max_tokens"`
	MaxChars       int    `yaml:"max_chars"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// UploadTool configures the video upload step
type UploadTool struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Tools holds per-step tool settings from tools.yml (all optional)
type Tools struct {
	Audio      AudioTool      `yaml:"audio"`
	Transcript TranscriptTool `yaml:"transcript"`
	Notes      NotesTool      `yaml:"notes"`
	Upload     UploadTool     `yaml:"upload"`
}

// DefaultTools returns the built-in tool settings
func DefaultTools() *Tools {
	return &Tools{
		Audio: AudioTool{
			Bitrate:    "192k",
			SampleRate: 44100,
		},
		Transcript: TranscriptTool{
			Model:          "whisper-1",
			Language:       "en",
			BaseURL:        "https://api.openai.com/v1/audio/transcriptions",
			ChunkLimitMB:   24,
			ChunkSeconds:   600,
			TimeoutSeconds: 600,
		},
		Notes: NotesTool{
			Model:          "claude-sonnet-4-5-20250929",
			BaseURL:        "https://api.anthropic.com/v1/messages",
			MaxTokens:      2000,
			MaxChars:       50000,
			TimeoutSeconds: 180,
		},
		Upload: UploadTool{
			BaseURL:        "https://www.googleapis.com/upload/youtube/v3/videos",
			TimeoutSeconds: 1800,
		},
	}
}

// LoadTools reads tools.yml from the workspace root, falling back to
// defaults for the file and for any field left unset
func LoadTools(root string) (*Tools, error) {
	cfg := DefaultTools()

	path := filepath.Join(root, "tools.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var overrides Tools
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse tools config: %w", err)
	}
	cfg.merge(&overrides)

	return cfg, nil
}

func (t *Tools) merge(o *Tools) {
	if o.Audio.Bitrate != "" {
		t.Audio.Bitrate = o.Audio.Bitrate
	}
	if o.Audio.SampleRate != 0 {
		t.Audio.SampleRate = o.Audio.SampleRate
	}
	if o.Transcript.Model != "" {
		t.Transcript.Model = o.Transcript.Model
	}
	if o.Transcript.Language != "" {
		t.Transcript.Language = o.Transcript.Language
	}
	if o.Transcript.BaseURL != "" {
		t.Transcript.BaseURL = o.Transcript.BaseURL
	}
	if o.Transcript.ChunkLimitMB != 0 {
		t.Transcript.ChunkLimitMB = o.Transcript.ChunkLimitMB
	}
	if o.Transcript.ChunkSeconds != 0 {
		t.Transcript.ChunkSeconds = o.Transcript.ChunkSeconds
	}
	if o.Transcript.TimeoutSeconds != 0 {
		t.Transcript.TimeoutSeconds = o.Transcript.TimeoutSeconds
	}
	if o.Notes.Model != "" {
		t.Notes.Model = o.Notes.Model
	}
	if o.Notes.BaseURL != "" {
		t.Notes.BaseURL = o.Notes.BaseURL
	}
	if o.Notes.MaxTokens != 0 {
		t.Notes.MaxTokens = o.Notes.MaxTokens
	}
	if o.Notes.MaxChars != 0 {
		t.Notes.MaxChars = o.Notes.MaxChars
	}
	if o.Notes.TimeoutSeconds != 0 {
		t.Notes.TimeoutSeconds = o.Notes.TimeoutSeconds
	}
	if o.Upload.BaseURL != "" {
		t.Upload.BaseURL = o.Upload.BaseURL
	}
	if o.Upload.TimeoutSeconds != 0 {
		t.Upload.TimeoutSeconds = o.Upload.TimeoutSeconds
	}
}
