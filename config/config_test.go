package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPodcast(t *testing.T) {
	root := t.TempDir()
	doc := `[podcast]
title = "Boring Talks"
description = "A show"
author = "Sam Host"
email = "sam@example.com"
media_base_url = "https://media.example.com"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "podcast.toml"), []byte(doc), 0644))

	pc, err := LoadPodcast(root)
	require.NoError(t, err)

	assert.Equal(t, "Boring Talks", pc.Title)
	assert.Equal(t, "en", pc.Language, "language defaults to en")
	assert.Equal(t, "Technology", pc.Category, "category has a default")
	assert.Equal(t, "https://media.example.com", pc.Website, "website falls back to media base URL")
}

func TestLoadPodcastMissingFile(t *testing.T) {
	_, err := LoadPodcast(t.TempDir())
	assert.ErrorContains(t, err, "podcast.toml")
}

func TestLoadPodcastMissingTitle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "podcast.toml"), []byte("[podcast]\nauthor = \"x\"\n"), 0644))

	_, err := LoadPodcast(root)
	assert.ErrorContains(t, err, "title")
}

func TestLoadToolsDefaults(t *testing.T) {
	tools, err := LoadTools(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "192k", tools.Audio.Bitrate)
	assert.Equal(t, 44100, tools.Audio.SampleRate)
	assert.Equal(t, "whisper-1", tools.Transcript.Model)
	assert.Equal(t, 24, tools.Transcript.ChunkLimitMB)
	assert.Equal(t, 2000, tools.Notes.MaxTokens)
	assert.NotEmpty(t, tools.Upload.BaseURL)
}

func TestLoadToolsOverrides(t *testing.T) {
	root := t.TempDir()
	doc := `audio:
  bitrate: 128k
transcript:
  base_url: http://localhost:9999/transcribe
  timeout_seconds: 30
notes:
  max_chars: 10000
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "tools.yml"), []byte(doc), 0644))

	tools, err := LoadTools(root)
	require.NoError(t, err)

	assert.Equal(t, "128k", tools.Audio.Bitrate)
	assert.Equal(t, 44100, tools.Audio.SampleRate, "unset fields keep defaults")
	assert.Equal(t, "http://localhost:9999/transcribe", tools.Transcript.BaseURL)
	assert.Equal(t, 30, tools.Transcript.TimeoutSeconds)
	assert.Equal(t, 10000, tools.Notes.MaxChars)
	assert.Equal(t, "whisper-1", tools.Transcript.Model)
}

func TestLoadToolsMalformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tools.yml"), []byte("audio: [not a map"), 0644))

	_, err := LoadTools(root)
	assert.Error(t, err)
}
