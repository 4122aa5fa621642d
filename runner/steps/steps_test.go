package steps

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podpub/config"
	"podpub/episode"
)

func writeEpisode(t *testing.T, root, slug, meta string) *episode.Episode {
	t.Helper()
	dir := filepath.Join(root, "episodes", slug)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.toml"), []byte(meta), 0644))
	ep, err := episode.Load(dir)
	require.NoError(t, err)
	return ep
}

func touch(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestAudioReadiness(t *testing.T) {
	step := NewAudioStep(config.DefaultTools().Audio)
	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")

	rd := step.Readiness(ep)
	assert.Equal(t, MissingInput, rd.State)
	assert.Equal(t, "video.mp4", rd.Missing)

	touch(t, ep.VideoPath(), "v")
	assert.Equal(t, Ready, step.Readiness(ep).State)

	// Existing output wins over everything, including a deleted input
	touch(t, ep.AudioPath(), "a")
	require.NoError(t, os.Remove(ep.VideoPath()))
	assert.Equal(t, AlreadyDone, step.Readiness(ep).State)
}

func TestTranscriptReadiness(t *testing.T) {
	step := NewTranscriptStep(config.DefaultTools().Transcript)
	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")

	rd := step.Readiness(ep)
	assert.Equal(t, MissingInput, rd.State)
	assert.Equal(t, "audio.mp3", rd.Missing)

	touch(t, ep.AudioPath(), "a")
	assert.Equal(t, Ready, step.Readiness(ep).State)

	touch(t, ep.TranscriptPath(), "t")
	assert.Equal(t, AlreadyDone, step.Readiness(ep).State)
}

func TestTranscriptValidateRequiresKey(t *testing.T) {
	step := NewTranscriptStep(config.DefaultTools().Transcript)
	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")

	t.Setenv("OPENAI_API_KEY", "")
	assert.Error(t, step.Validate(ep))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	assert.NoError(t, step.Validate(ep))
}

func TestTranscriptRun(t *testing.T) {
	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(32<<20))
		gotModel = r.FormValue("model")
		io.WriteString(w, "Hello and welcome to the show.\n")
	}))
	defer server.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := config.DefaultTools().Transcript
	cfg.BaseURL = server.URL
	step := NewTranscriptStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")
	touch(t, ep.AudioPath(), "fake mp3 bytes")

	detail, err := step.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, ep.TranscriptPath(), detail)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "whisper-1", gotModel)

	content, err := os.ReadFile(ep.TranscriptPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Transcript")
	assert.Contains(t, string(content), "Hello and welcome to the show.")
}

func TestTranscriptRunAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := config.DefaultTools().Transcript
	cfg.BaseURL = server.URL
	step := NewTranscriptStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")
	touch(t, ep.AudioPath(), "fake mp3 bytes")

	_, err := step.Run(context.Background(), ep)
	require.Error(t, err)
	assert.ErrorContains(t, err, "429")
	assert.NoFileExists(t, ep.TranscriptPath())
}

func TestShowNotesRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Ep 1")
		io.WriteString(w, `{"content": [{"text": "Summary of the episode."}]}`)
	}))
	defer server.Close()

	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg := config.DefaultTools().Notes
	cfg.BaseURL = server.URL
	step := NewShowNotesStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep 1\"\n")
	touch(t, ep.TranscriptPath(), "# Transcript\n\nwords words words")

	detail, err := step.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, ep.ShowNotesPath(), detail)

	content, err := os.ReadFile(ep.ShowNotesPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Ep 1 - Show Notes")
	assert.Contains(t, string(content), "Summary of the episode.")
}

func TestShowNotesTruncatesTranscript(t *testing.T) {
	var gotLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotLen = len(body)
		io.WriteString(w, `{"content": [{"text": "notes"}]}`)
	}))
	defer server.Close()

	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg := config.DefaultTools().Notes
	cfg.BaseURL = server.URL
	cfg.MaxChars = 100
	step := NewShowNotesStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep 1\"\n")
	touch(t, ep.TranscriptPath(), strings.Repeat("x", 10000))

	_, err := step.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Less(t, gotLen, 2000, "transcript is truncated before sending")
}

func TestShowNotesTruncationKeepsValidUTF8(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `{"content": [{"text": "notes"}]}`)
	}))
	defer server.Close()

	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg := config.DefaultTools().Notes
	cfg.BaseURL = server.URL
	// 100 bytes lands in the middle of a 3-byte rune
	cfg.MaxChars = 100
	step := NewShowNotesStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep 1\"\n")
	touch(t, ep.TranscriptPath(), strings.Repeat("語", 5000))

	_, err := step.Run(context.Background(), ep)
	require.NoError(t, err)
	// A byte-boundary cut through a rune would surface as U+FFFD after
	// JSON encoding
	assert.NotContains(t, gotBody, "�", "truncation must not split a rune")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abcde", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.True(t, utf8.ValidString(truncateRunes(strings.Repeat("é", 10), 3)))
	assert.Equal(t, "", truncateRunes("abc", 0))
}

func TestYouTubeGating(t *testing.T) {
	step := NewYouTubeStep(config.DefaultTools().Upload)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n")
	assert.Equal(t, Gated, step.Readiness(ep).State)

	ep = writeEpisode(t, t.TempDir(), "ep002", "[episode]\ntitle = \"Ep\"\n\n[publish]\nyoutube = true\n")
	rd := step.Readiness(ep)
	assert.Equal(t, MissingInput, rd.State)

	touch(t, ep.VideoPath(), "v")
	assert.Equal(t, Ready, step.Readiness(ep).State)

	touch(t, ep.YouTubeURLPath(), "https://youtube.com/watch?v=abc\n")
	assert.Equal(t, AlreadyDone, step.Readiness(ep).State)
}

func TestYouTubeRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer yt-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/related")
		io.WriteString(w, `{"id": "dQw4w9WgXcQ"}`)
	}))
	defer server.Close()

	t.Setenv("YOUTUBE_TOKEN", "yt-token")

	cfg := config.DefaultTools().Upload
	cfg.BaseURL = server.URL
	step := NewYouTubeStep(cfg)

	ep := writeEpisode(t, t.TempDir(), "ep001", "[episode]\ntitle = \"Ep\"\n\n[publish]\nyoutube = true\n")
	touch(t, ep.VideoPath(), "fake video bytes")

	detail, err := step.Run(context.Background(), ep)
	require.NoError(t, err)
	assert.Equal(t, "https://youtube.com/watch?v=dQw4w9WgXcQ", detail)
	assert.Equal(t, "https://youtube.com/watch?v=dQw4w9WgXcQ", ep.YouTubeURL())
}

func TestRSSGatingAndReadiness(t *testing.T) {
	root := t.TempDir()
	step := NewRSSStep(root)

	ep := writeEpisode(t, root, "ep001", "[episode]\ntitle = \"Ep\"\n")
	assert.Equal(t, Gated, step.Readiness(ep).State)

	ep = writeEpisode(t, root, "ep002", "[episode]\ntitle = \"Ep\"\n\n[publish]\nspotify = true\n")
	rd := step.Readiness(ep)
	assert.Equal(t, MissingInput, rd.State)
	assert.Equal(t, "audio.mp3", rd.Missing)

	touch(t, ep.AudioPath(), "a")
	assert.Equal(t, Ready, step.Readiness(ep).State)
}

func TestRegenerateFeed(t *testing.T) {
	root := t.TempDir()
	doc := `[podcast]
title = "Boring Talks"
description = "A show"
author = "Sam Host"
email = "sam@example.com"
website = "https://boringtalks.example.com"
media_base_url = "https://media.example.com"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "podcast.toml"), []byte(doc), 0644))

	withAudio := writeEpisode(t, root, "ep001", "[episode]\nnumber = 1\ntitle = \"Ep 1\"\n\n[publish]\nspotify = true\n")
	touch(t, withAudio.AudioPath(), "fake mp3 bytes")
	touch(t, withAudio.ShowNotesPath(), "# Notes")
	writeEpisode(t, root, "ep002", "[episode]\nnumber = 2\ntitle = \"Ep 2\"\n")

	feedURL, err := RegenerateFeed(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "https://boringtalks.example.com/feed/podcast.xml", feedURL)

	data, err := os.ReadFile(FeedPath(root))
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "<title>Boring Talks</title>")
	assert.Contains(t, out, `isPermaLink="false">ep001<`)
	assert.Contains(t, out, "https://media.example.com/episodes/ep001/audio.mp3")
	assert.NotContains(t, out, "ep002", "episodes without audio stay out of the feed")

	// And the feed marker now reports ep001 as already published
	step := NewRSSStep(root)
	assert.Equal(t, AlreadyDone, step.Readiness(withAudio).State)
}

func TestRegenerateFeedRequiresPodcastConfig(t *testing.T) {
	_, err := RegenerateFeed(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "podcast.toml")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:05", FormatDuration(5.4))
	assert.Equal(t, "00:42:10", FormatDuration(2530))
	assert.Equal(t, "01:00:00", FormatDuration(3600))
}
