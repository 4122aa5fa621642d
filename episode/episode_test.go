package episode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEpisode(t *testing.T, root, slug, meta string) string {
	t.Helper()
	dir := filepath.Join(root, "episodes", slug)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.toml"), []byte(meta), 0644))
	return dir
}

func TestLoadParsesMetadata(t *testing.T) {
	root := t.TempDir()
	dir := writeEpisode(t, root, "ep001-go-basics", `[episode]
number = 1
title = "Go Basics"
description = "An intro"
tags = ["go", "basics"]

[episode.guests]
"Jo Smith" = "maintainer"

[files]
video = "recording.mov"

[publish]
youtube = true
spotify = true
date = "2026-08-01"

[youtube]
privacy = "unlisted"
playlist = "Season 1"

[podcast]
season = 1
episode_type = "full"
`)

	ep, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ep001-go-basics", ep.Slug)
	assert.Equal(t, 1, ep.Meta.Episode.Number)
	assert.Equal(t, "Go Basics", ep.Meta.Episode.Title)
	assert.Equal(t, []string{"go", "basics"}, ep.Meta.Episode.Tags)
	assert.Equal(t, "maintainer", ep.Meta.Episode.Guests["Jo Smith"])
	assert.True(t, ep.Meta.Publish.YouTube)
	assert.True(t, ep.Meta.Publish.Spotify)
	assert.False(t, ep.Meta.Publish.Apple)
	assert.Equal(t, "unlisted", ep.Meta.YouTube.Privacy)
	assert.Equal(t, 1, ep.Meta.Podcast.Season)
	assert.Equal(t, filepath.Join(dir, "recording.mov"), ep.VideoPath())
}

func TestLoadDefaultsVideoName(t *testing.T) {
	root := t.TempDir()
	dir := writeEpisode(t, root, "ep001", "[episode]\ntitle = \"Ep\"\n")

	ep, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video.mp4"), ep.VideoPath())
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()

	_, err := Load(filepath.Join(root, "missing"))
	assert.Error(t, err)

	dir := filepath.Join(root, "episodes", "no-meta")
	require.NoError(t, os.MkdirAll(dir, 0755))
	_, err = Load(dir)
	assert.ErrorContains(t, err, "metadata.toml")

	dir = writeEpisode(t, root, "no-title", "[episode]\ndescription = \"x\"\n")
	_, err = Load(dir)
	assert.ErrorContains(t, err, "title")
}

func TestArtifactFlags(t *testing.T) {
	root := t.TempDir()
	dir := writeEpisode(t, root, "ep001", "[episode]\ntitle = \"Ep\"\n")

	ep, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, ep.HasAudio())
	assert.False(t, ep.HasTranscript())

	require.NoError(t, os.WriteFile(ep.AudioPath(), []byte("mp3"), 0644))
	require.NoError(t, os.WriteFile(ep.YouTubeURLPath(), []byte("https://youtube.com/watch?v=abc\n"), 0644))

	assert.True(t, ep.HasAudio())
	assert.True(t, ep.HasYouTubeURL())
	assert.Equal(t, "https://youtube.com/watch?v=abc", ep.YouTubeURL())
}

func TestListSortsByNumberThenSlug(t *testing.T) {
	root := t.TempDir()
	writeEpisode(t, root, "zz-unnumbered", "[episode]\ntitle = \"Unnumbered\"\n")
	writeEpisode(t, root, "ep002", "[episode]\nnumber = 2\ntitle = \"Second\"\n")
	writeEpisode(t, root, "ep001", "[episode]\nnumber = 1\ntitle = \"First\"\n")
	writeEpisode(t, root, "aa-also-unnumbered", "[episode]\ntitle = \"Also\"\n")

	// Broken directories are skipped, not fatal
	require.NoError(t, os.MkdirAll(filepath.Join(root, "episodes", "broken"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "episodes", ".hidden"), 0755))

	eps, err := List(root)
	require.NoError(t, err)

	slugs := make([]string, len(eps))
	for i, ep := range eps {
		slugs[i] = ep.Slug
	}
	assert.Equal(t, []string{"ep001", "ep002", "aa-also-unnumbered", "zz-unnumbered"}, slugs)
}

func TestListEmptyWorkspace(t *testing.T) {
	eps, err := List(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, eps)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeEpisode(t, root, "ep001", "[episode]\ntitle = \"Ep\"\n")

	ep, err := Find(root, "ep001")
	require.NoError(t, err)
	assert.Equal(t, "ep001", ep.Slug)

	_, err = Find(root, "ep999")
	assert.ErrorIs(t, err, ErrNotFound)
}
